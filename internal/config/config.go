package config

import (
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// 中文说明：
// TOML 配置加载。敏感项（HZ 账号）允许环境变量兜底，
// 便于 .env / 部署环境注入，配置文件可不落盘密码。

type Config struct {
	App struct {
		Env      string `toml:"env"`
		LogLevel string `toml:"log_level"`
	} `toml:"app"`

	Server struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"server"`

	HZ HZConfig `toml:"hz"`

	Cache struct {
		Path                   string `toml:"path"`
		RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"`
	} `toml:"cache"`

	Resolver struct {
		TopK        int `toml:"top_k"`
		FuzzyCutoff int `toml:"fuzzy_cutoff"`
	} `toml:"resolver"`

	LLM struct {
		TimeoutSeconds int           `toml:"timeout_seconds"`
		Models         []ModelConfig `toml:"models"`
	} `toml:"llm"`
}

// HZConfig HZ 后端连接配置。
type HZConfig struct {
	Enabled            bool   `toml:"enabled"`
	Address            string `toml:"address"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	MaxIdleConns       int    `toml:"max_idle_conns"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	InvestorID         string `toml:"investor_id"`
}

// ModelConfig OpenAI 兼容模型条目（与 llm.models 数组对应）。
type ModelConfig struct {
	ID       string            `toml:"id"`
	Provider string            `toml:"provider"`
	Enabled  bool              `toml:"enabled"`
	APIURL   string            `toml:"api_url"`
	APIKey   string            `toml:"api_key"`
	Model    string            `toml:"model"`
	Headers  map[string]string `toml:"headers"`
}

// Load 读取并解析 TOML 配置文件，应用缺省值、环境兜底与基本校验。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析 TOML 失败: %w", err)
	}
	applyDefaults(&cfg)
	applyEnvFallback(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回不依赖配置文件的缺省配置（CLI 纯本地子命令用）。
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	applyEnvFallback(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8089"
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "data/refdata.db"
	}
	if cfg.Cache.RefreshIntervalMinutes <= 0 {
		cfg.Cache.RefreshIntervalMinutes = 60
	}
	if cfg.Resolver.TopK <= 0 {
		cfg.Resolver.TopK = 5
	}
	if cfg.Resolver.FuzzyCutoff <= 0 {
		cfg.Resolver.FuzzyCutoff = 60
	}
	if cfg.HZ.TimeoutSeconds <= 0 {
		cfg.HZ.TimeoutSeconds = 30
	}
	if cfg.HZ.MaxIdleConns <= 0 {
		cfg.HZ.MaxIdleConns = 50
	}
	if cfg.HZ.InvestorID == "" {
		cfg.HZ.InvestorID = "场外01"
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = 60
	}
}

// applyEnvFallback 环境变量兜底（仅在对应配置为空时生效）。
func applyEnvFallback(cfg *Config) {
	if cfg.HZ.Username == "" {
		cfg.HZ.Username = os.Getenv("HZ_USERNAME")
	}
	if cfg.HZ.Password == "" {
		cfg.HZ.Password = os.Getenv("HZ_PASSWORD")
	}
	if cfg.HZ.Address == "" {
		cfg.HZ.Address = os.Getenv("HZ_ADDRESS")
	}
}

func validate(cfg *Config) error {
	if cfg.HZ.Enabled {
		addr := strings.TrimSpace(cfg.HZ.Address)
		if addr == "" {
			return fmt.Errorf("hz.address 未配置（需包含 http/https 协议）")
		}
		if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
			return fmt.Errorf("hz.address 缺少协议前缀: %q", addr)
		}
		if cfg.HZ.Username == "" || cfg.HZ.Password == "" {
			return fmt.Errorf("hz 账号未配置（hz.username/hz.password 或 HZ_USERNAME/HZ_PASSWORD）")
		}
	}
	for i, m := range cfg.LLM.Models {
		if !m.Enabled {
			continue
		}
		if m.Model == "" {
			return fmt.Errorf("llm.models[%d].model 不能为空", i)
		}
	}
	return nil
}

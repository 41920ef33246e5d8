package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写配置失败: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[app]
env = "dev"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("log_level = %q", cfg.App.LogLevel)
	}
	if cfg.Server.Addr != ":8089" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Path != "data/refdata.db" || cfg.Cache.RefreshIntervalMinutes != 60 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Resolver.TopK != 5 || cfg.Resolver.FuzzyCutoff != 60 {
		t.Errorf("resolver = %+v", cfg.Resolver)
	}
	if cfg.HZ.TimeoutSeconds != 30 || cfg.HZ.InvestorID != "场外01" {
		t.Errorf("hz = %+v", cfg.HZ)
	}
}

func TestLoadHZValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"缺地址", `
[hz]
enabled = true
username = "u"
password = "p"
`},
		{"缺协议", `
[hz]
enabled = true
address = "hz.example.com"
username = "u"
password = "p"
`},
		{"缺账号", `
[hz]
enabled = true
address = "https://hz.example.com"
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Error("应校验失败")
			}
		})
	}
}

func TestEnvFallbackForCredentials(t *testing.T) {
	t.Setenv("HZ_USERNAME", "envuser")
	t.Setenv("HZ_PASSWORD", "envpass")
	path := writeConfig(t, `
[hz]
enabled = true
address = "https://hz.example.com"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HZ.Username != "envuser" || cfg.HZ.Password != "envpass" {
		t.Errorf("hz 账号 = %q/%q", cfg.HZ.Username, cfg.HZ.Password)
	}
}

func TestLoadModelsValidation(t *testing.T) {
	path := writeConfig(t, `
[[llm.models]]
id = "m1"
enabled = true
`)
	if _, err := Load(path); err == nil {
		t.Error("启用模型缺 model 应校验失败")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("文件不存在应报错")
	}
}

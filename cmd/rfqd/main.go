package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rfqd/internal/app"
	"rfqd/internal/config"
	"rfqd/internal/logger"
	"rfqd/internal/normalize"
	"rfqd/internal/pkg/jsonutil"
)

// 入口程序。子命令：
//
//	serve      启动 HTTP 服务与参考数据同步
//	parse      本地解析一条询价文本
//	products   品种候选检索
//	varietymap 从 HZ 后端拉取品种映射
//	agent      走 LLM 工具调用解析询价文本
func main() {
	// .env 先于配置加载，便于注入 HZ_USERNAME/HZ_PASSWORD 等敏感项。
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "parse":
		err = runParse(os.Args[2:])
	case "products":
		err = runProducts(os.Args[2:])
	case "varietymap":
		err = runVarietyMap(os.Args[2:])
	case "agent":
		err = runAgent(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "未知子命令: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `用法: rfqd <子命令> [选项]

子命令:
  serve       启动 HTTP 服务（含参考数据周期同步）
  parse       本地解析询价文本: rfqd parse [选项] <文本>
  products    品种候选检索:     rfqd products [选项] <查询>
  varietymap  拉取品种代码→名称映射（需启用 hz）
  agent       LLM 工具调用解析: rfqd agent [选项] <文本>

通用选项: -config 配置文件路径（缺省 configs/config.toml）
`)
}

// loadConfig 读取配置文件；local 为真时允许文件缺失并退化到缺省配置。
func loadConfig(path string, local bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if local && errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// parseContext 解析 -current-date（YYYY-MM-DD），为空取当天。
func parseContext(currentDate string) (normalize.Context, error) {
	if currentDate == "" {
		now := time.Now()
		return normalize.NewContext(now.Year(), now.Month(), now.Day()), nil
	}
	t, err := time.Parse("2006-01-02", currentDate)
	if err != nil {
		return normalize.Context{}, fmt.Errorf("-current-date 需为 YYYY-MM-DD: %q", currentDate)
	}
	return normalize.NewContext(t.Year(), t.Month(), t.Day()), nil
}

// emit 按 -pretty / -output 输出结果 JSON。
func emit(v any, pretty bool, output string) error {
	s, err := jsonutil.Marshal(v, pretty)
	if err != nil {
		return err
	}
	if output == "" {
		fmt.Println(s)
		return nil
	}
	return os.WriteFile(output, []byte(s+"\n"), 0o644)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "configs/config.toml", "配置文件路径")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*cfgPath, false)
	if err != nil {
		return err
	}
	cfg.Server.Enabled = true

	a, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger.Infof("✓ 配置加载成功（环境=%s，监听=%s）", cfg.App.Env, cfg.Server.Addr)
	return a.Run(ctx)
}

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	cfgPath := fs.String("config", "configs/config.toml", "配置文件路径")
	currentDate := fs.String("current-date", "", "解析基准日 YYYY-MM-DD（缺省当天）")
	pretty := fs.Bool("pretty", false, "缩进输出")
	output := fs.String("output", "", "结果写入文件（缺省标准输出）")
	_ = fs.Parse(args)

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return fmt.Errorf("缺少询价文本: rfqd parse [选项] <文本>")
	}
	cfg, err := loadConfig(*cfgPath, true)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.App.LogLevel)

	ictx, err := parseContext(*currentDate)
	if err != nil {
		return err
	}
	quote := normalize.Text(ictx, text, normalize.TextOverrides{})
	return emit(quote, *pretty, *output)
}

func runProducts(args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	cfgPath := fs.String("config", "configs/config.toml", "配置文件路径")
	topK := fs.Int("top-k", 0, "候选数量（缺省取配置）")
	pretty := fs.Bool("pretty", false, "缩进输出")
	output := fs.String("output", "", "结果写入文件（缺省标准输出）")
	_ = fs.Parse(args)

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("缺少查询文本: rfqd products [选项] <查询>")
	}
	cfg, err := loadConfig(*cfgPath, true)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.App.LogLevel)

	resolver, err := app.NewAppBuilder(cfg).BuildResolver(context.Background())
	if err != nil {
		return err
	}
	k := *topK
	if k <= 0 {
		k = cfg.Resolver.TopK
	}
	return emit(resolver.FindCandidates(query, k), *pretty, *output)
}

func runVarietyMap(args []string) error {
	fs := flag.NewFlagSet("varietymap", flag.ExitOnError)
	cfgPath := fs.String("config", "configs/config.toml", "配置文件路径")
	pretty := fs.Bool("pretty", false, "缩进输出")
	output := fs.String("output", "", "结果写入文件（缺省标准输出）")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*cfgPath, false)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.App.LogLevel)

	client, err := app.NewAppBuilder(cfg).BuildHZClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HZ.TimeoutSeconds)*time.Second)
	defer cancel()
	names, err := client.VarietyCodeNameMap(ctx)
	if err != nil {
		return err
	}
	return emit(names, *pretty, *output)
}

func runAgent(args []string) error {
	fs := flag.NewFlagSet("agent", flag.ExitOnError)
	cfgPath := fs.String("config", "configs/config.toml", "配置文件路径")
	currentDate := fs.String("current-date", "", "解析基准日 YYYY-MM-DD（缺省当天）")
	pretty := fs.Bool("pretty", false, "缩进输出")
	output := fs.String("output", "", "结果写入文件（缺省标准输出）")
	_ = fs.Parse(args)

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		return fmt.Errorf("缺少询价文本: rfqd agent [选项] <文本>")
	}
	cfg, err := loadConfig(*cfgPath, false)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.App.LogLevel)

	ictx, err := parseContext(*currentDate)
	if err != nil {
		return err
	}
	runner, err := app.NewAppBuilder(cfg).BuildRunner(context.Background())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
	defer cancel()
	quote, err := runner.ParseInquiry(ctx, ictx, text)
	if err != nil {
		return err
	}
	return emit(quote, *pretty, *output)
}

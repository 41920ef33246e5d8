package app

import (
	"context"
	"fmt"
	"time"

	"rfqd/internal/agent"
	"rfqd/internal/config"
	"rfqd/internal/hz"
	"rfqd/internal/logger"
	"rfqd/internal/product"
	"rfqd/internal/refdata"
	"rfqd/internal/transport/httpapi"
)

// AppBuilder 按配置装配应用依赖。CLI 子命令也复用它的各 Build* 方法，
// 避免 main 里手工重复初始化顺序。
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// Build 装配完整应用：缓存库 → HZ 客户端 → 品种解析器 → HTTP 服务。
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg

	store, err := refdata.Open(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}

	var syncer *refdata.Syncer
	if cfg.HZ.Enabled {
		client, err := hz.NewClient(cfg.HZ)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("初始化 HZ 客户端失败: %w", err)
		}
		syncer = refdata.NewSyncer(client, store)
		logger.Infof("✓ HZ 后端已启用: %s", cfg.HZ.Address)
	}

	resolver := b.buildResolver(ctx, store)

	var server *httpapi.Server
	if cfg.Server.Enabled {
		server = httpapi.NewServer(cfg.Server.Addr, resolver, cfg.Resolver.TopK)
	}

	return &App{
		cfg:     cfg,
		store:   store,
		server:  server,
		syncer:  syncer,
		refresh: time.Duration(cfg.Cache.RefreshIntervalMinutes) * time.Minute,
	}, nil
}

// buildResolver 以内置别名表为底，叠加缓存里的品种映射。
// 缓存读不到时退化为内置表（冷启动可用）。
func (b *AppBuilder) buildResolver(ctx context.Context, store refdata.Store) *product.Resolver {
	table := product.DefaultTable()
	if store != nil {
		names, err := store.ListVarietyNames(ctx)
		switch {
		case err != nil:
			logger.Warnf("读取品种映射缓存失败，使用内置别名表: %v", err)
		case len(names) > 0:
			table = table.MergeVarietyNames(names)
			logger.Infof("✓ 别名表已合并缓存品种 %d 个", len(names))
		}
	}
	return product.NewResolver(table, b.cfg.Resolver.FuzzyCutoff)
}

// BuildResolver 独立装配品种解析器（parse/products 子命令用）。
func (b *AppBuilder) BuildResolver(ctx context.Context) (*product.Resolver, error) {
	store, err := refdata.Open(b.cfg.Cache.Path)
	if err != nil {
		// 缓存不可用不阻塞纯本地解析。
		logger.Warnf("打开缓存失败，使用内置别名表: %v", err)
		return product.NewResolver(nil, b.cfg.Resolver.FuzzyCutoff), nil
	}
	defer store.Close()
	return b.buildResolver(ctx, store), nil
}

// BuildRunner 装配 LLM 工具调用编排器，取 llm.models 中首个启用条目。
func (b *AppBuilder) BuildRunner(ctx context.Context) (*agent.Runner, error) {
	var model *config.ModelConfig
	for i := range b.cfg.LLM.Models {
		if b.cfg.LLM.Models[i].Enabled {
			model = &b.cfg.LLM.Models[i]
			break
		}
	}
	if model == nil {
		return nil, fmt.Errorf("llm.models 未配置启用的模型")
	}
	client := &agent.ChatClient{
		BaseURL:      model.APIURL,
		APIKey:       model.APIKey,
		Model:        model.Model,
		Timeout:      time.Duration(b.cfg.LLM.TimeoutSeconds) * time.Second,
		ExtraHeaders: model.Headers,
	}
	resolver, err := b.BuildResolver(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("✓ 已启用 LLM 模型: %s (%s)", model.ID, model.Model)
	return agent.NewRunner(client, resolver), nil
}

// BuildHZClient 独立装配 HZ 客户端（varietymap 等直连子命令用）。
func (b *AppBuilder) BuildHZClient() (*hz.Client, error) {
	if !b.cfg.HZ.Enabled {
		return nil, fmt.Errorf("hz.enabled 未开启")
	}
	return hz.NewClient(b.cfg.HZ)
}

package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"rfqd/internal/config"
	"rfqd/internal/logger"
	"rfqd/internal/refdata"
	"rfqd/internal/transport/httpapi"
)

// App 负责应用级编排：配置→依赖装配→启动 HTTP 服务与参考数据同步。
type App struct {
	cfg     *config.Config
	store   refdata.Store
	server  *httpapi.Server
	syncer  *refdata.Syncer
	refresh time.Duration
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动已启用的子服务，直到 ctx 取消或任一子服务出错。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	if a.syncer != nil {
		group.Go(func() error {
			a.syncer.RunPeriodic(ctx, a.refresh)
			return nil
		})
	}

	if a.server != nil {
		group.Go(func() error {
			if err := a.server.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("HTTP 服务退出: %w", err)
			}
			return nil
		})
	} else if a.syncer == nil {
		return fmt.Errorf("server 与 hz 均未启用，无可运行的子服务")
	}

	err := group.Wait()
	if err == nil {
		logger.Infof("应用退出")
	}
	return err
}

// Close 释放底层资源（幂等）。
func (a *App) Close() {
	if a != nil && a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
}

package refdata

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"rfqd/internal/logger"
)

// 中文说明：
// 参考数据同步：并发拉取品种映射与非交易日，写入缓存。
// 非交易日查询窗口取当前日期前后各一年。

// Source 参考数据来源（由 hz.Client 实现）。
type Source interface {
	VarietyCodeNameMap(ctx context.Context) (map[string]string, error)
	NoTradeDates(ctx context.Context, startDate, endDate string) ([]string, error)
}

// Syncer 把 Source 的最新参考数据灌入 Store。
type Syncer struct {
	source Source
	store  Store
}

func NewSyncer(source Source, store Store) *Syncer {
	return &Syncer{source: source, store: store}
}

// Sync 执行一次全量同步，两类数据并发拉取。
func (s *Syncer) Sync(ctx context.Context) error {
	now := time.Now().UTC()
	start := now.AddDate(-1, 0, 0).Format("2006-01-02")
	end := now.AddDate(1, 0, 0).Format("2006-01-02")

	var (
		names map[string]string
		dates []string
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		names, err = s.source.VarietyCodeNameMap(gctx)
		if err != nil {
			return fmt.Errorf("拉取品种映射失败: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		dates, err = s.source.NoTradeDates(gctx, start, end)
		if err != nil {
			return fmt.Errorf("拉取非交易日失败: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	if err := s.store.UpsertVarietyNames(ctx, names); err != nil {
		return err
	}
	if err := s.store.ReplaceNoTradeDates(ctx, dates); err != nil {
		return err
	}
	logger.Infof("参考数据同步完成：品种 %d 个，非交易日 %d 天", len(names), len(dates))
	return nil
}

// RunPeriodic 周期同步，ctx 取消时退出。首次同步立即执行。
func (s *Syncer) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	if err := s.Sync(ctx); err != nil {
		logger.Warnf("参考数据首次同步失败: %v", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				logger.Warnf("参考数据同步失败: %v", err)
			}
		}
	}
}

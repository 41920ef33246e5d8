package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// 中文说明：
// 参考数据缓存：品种代码→名称映射、非交易日列表，落在本地 sqlite。
// 冷启动（后端不可达）时 CLI/服务可直接读缓存。

// Store 参考数据存取接口。
type Store interface {
	UpsertVarietyNames(ctx context.Context, names map[string]string) error
	ListVarietyNames(ctx context.Context) (map[string]string, error)
	ReplaceNoTradeDates(ctx context.Context, dates []string) error
	ListNoTradeDates(ctx context.Context, startDate, endDate string) ([]string, error)
	Close() error
}

// SQLiteStore 基于 modernc sqlite 的实现。
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open 打开（必要时创建）缓存数据库并确保表结构。
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建缓存目录失败: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开缓存数据库失败: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS variety_names (
    code       TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS no_trade_dates (
    date       TEXT PRIMARY KEY,
    updated_at TEXT NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("初始化缓存表失败: %w", err)
	}
	return nil
}

// UpsertVarietyNames 批量写入品种映射（存在则更新）。
func (s *SQLiteStore) UpsertVarietyNames(ctx context.Context, names map[string]string) error {
	if len(names) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO variety_names(code, name, updated_at) VALUES(?, ?, ?)
ON CONFLICT(code) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("准备写入语句失败: %w", err)
	}
	defer stmt.Close()

	for code, name := range names {
		if code == "" || name == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, code, name, now); err != nil {
			return fmt.Errorf("写入品种 %s 失败: %w", code, err)
		}
	}
	return tx.Commit()
}

// ListVarietyNames 读取全部品种映射。
func (s *SQLiteStore) ListVarietyNames(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, name FROM variety_names ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("查询品种映射失败: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var code, name string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, err
		}
		out[code] = name
	}
	return out, rows.Err()
}

// ReplaceNoTradeDates 整表替换非交易日列表。
func (s *SQLiteStore) ReplaceNoTradeDates(ctx context.Context, dates []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM no_trade_dates`); err != nil {
		return fmt.Errorf("清空非交易日失败: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO no_trade_dates(date, updated_at) VALUES(?, ?)`, d, now); err != nil {
			return fmt.Errorf("写入非交易日 %s 失败: %w", d, err)
		}
	}
	return tx.Commit()
}

// ListNoTradeDates 查询区间内非交易日（闭区间，串比较依赖 ISO 日期格式）。
func (s *SQLiteStore) ListNoTradeDates(ctx context.Context, startDate, endDate string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM no_trade_dates WHERE date >= ? AND date <= ? ORDER BY date`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("查询非交易日失败: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close 关闭底层数据库。
func (s *SQLiteStore) Close() error { return s.db.Close() }

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"rfqd/internal/refdata"
)

// 向参考数据缓存灌入一批演示数据，便于在无 HZ 后端的环境里联调。
// 用法: go run scripts/seed_refdata.go [db_path]
// 缺省 db_path: data/refdata.db
func main() {
	dbPath := "data/refdata.db"
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		dbPath = strings.TrimSpace(os.Args[1])
	}

	store, err := refdata.Open(dbPath)
	if err != nil {
		panic(err)
	}
	defer store.Close()

	ctx := context.Background()
	names := map[string]string{
		"HC": "热轧卷板",
		"RB": "螺纹钢",
		"CU": "阴极铜",
		"M":  "豆粕",
		"OI": "菜籽油",
		"CF": "一号棉花",
		"TA": "精对苯二甲酸",
	}
	if err := store.UpsertVarietyNames(ctx, names); err != nil {
		panic(err)
	}

	// 近两年的周末之外再加几个节假日样例。
	dates := []string{
		"2026-01-01", "2026-01-02",
		"2026-02-16", "2026-02-17", "2026-02-18", "2026-02-19", "2026-02-20",
		"2026-04-06", "2026-05-01", "2026-10-01", "2026-10-02",
	}
	if err := store.ReplaceNoTradeDates(ctx, dates); err != nil {
		panic(err)
	}

	fmt.Printf("已写入 %s：品种 %d 个，非交易日 %d 天（%s）\n",
		dbPath, len(names), len(dates), time.Now().Format("2006-01-02 15:04:05"))
}

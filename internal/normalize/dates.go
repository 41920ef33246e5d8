package normalize

import (
	"math"
	"time"
)

// 中文说明：
// 日期推算工具。所有函数均为纯函数：输入日期 + 偏移量 → 输出日期，
// 不读取系统时钟，便于确定性测试。

// lastDayOfMonth 返回 year-month 的月末日。
func lastDayOfMonth(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// AddMonths 对日期加（可为负、可带小数的）月数。
// 整数部分按日历月推进并将日号夹到目标月的月末；
// 小数部分按 30 天/月折算为天数，四舍六入五成双。
func AddMonths(start time.Time, months float64) time.Time {
	whole := int(months)
	frac := months - float64(whole)

	idx := int(start.Month()) + whole - 1
	year := start.Year() + floorDiv(idx, 12)
	month := time.Month(floorMod(idx, 12) + 1)

	day := start.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	out := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	if math.Abs(frac) > 1e-9 {
		out = out.AddDate(0, 0, int(math.RoundToEven(frac*30)))
	}
	return out
}

// AddNaturalDays 自然日加减。
func AddNaturalDays(start time.Time, days int) time.Time {
	return start.AddDate(0, 0, days)
}

// AddTradingDays 按交易日推进，仅跳过周六/周日（不含节假日）。
// days <= 0 时原样返回。
func AddTradingDays(start time.Time, days int) time.Time {
	if days <= 0 {
		return start
	}
	d := start
	remaining := days
	for remaining > 0 {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		remaining--
	}
	return d
}

package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// 中文说明：
// 到期日解析。优先级链（先命中先返回）：
//  1) 显式绝对日期字符串：严格 YYYY?MM?DD（任意单个非数字分隔）→ “M月D日”
//     （年份按“已过则推到明年”补全）→（文本推断场景）宽松解析兜底；
//  2) 显式相对期限：月数 → 交易日 → 自然日，只认第一个非空项；
//  3) 仅文本推断场景：在原文中扫描绝对日期→月日→相对期限短语。
// 单个分支内的解析失败只意味着“该分支未命中”，永不向上抛错。

const isoDate = "2006-01-02"

var (
	reAbsDate    = regexp.MustCompile(`^([0-9]{4})\D([0-9]{1,2})\D([0-9]{1,2})$`)
	reMonthDay   = regexp.MustCompile(`^([0-9]{1,2})\s*月\s*([0-9]{1,2})\s*[日号]?$`)
	reScanAbs    = regexp.MustCompile(`[0-9]{4}\D[0-9]{1,2}\D[0-9]{1,2}`)
	reScanMD     = regexp.MustCompile(`([0-9]{1,2})\s*月\s*([0-9]{1,2})\s*[日号]?`)
	reTradingDay = regexp.MustCompile(`([0-9]+)\s*个?\s*交易日`)
	reNaturalDay = regexp.MustCompile(`([0-9]+)\s*(天|日)`)
	reMonthNum   = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*个?\s*月`)
	reMonthCN    = regexp.MustCompile(`(半|一|二|两|三|四|五|六|七|八|九|十)\s*个?\s*月`)
)

var cnNumerals = map[string]float64{
	"一": 1, "二": 2, "两": 2, "三": 3, "四": 4,
	"五": 5, "六": 6, "七": 7, "八": 8, "九": 9, "十": 10,
}

// validDate 构造并校验公历日期（Go 的 time.Date 会对溢出做归一化，需回验）。
func validDate(year, month, day int) (time.Time, bool) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// inferYearForMonthDay 月日早于今天则取明年。
func inferYearForMonthDay(current time.Time, month, day int) int {
	if month < int(current.Month()) || (month == int(current.Month()) && day < current.Day()) {
		return current.Year() + 1
	}
	return current.Year()
}

// parseExpireDateStr 解析显式到期日字符串；flexible 打开后追加宽松解析兜底。
func parseExpireDateStr(s string, current time.Time, flexible bool) (time.Time, bool) {
	s = strings.TrimSpace(s)

	if m := reAbsDate.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		return validDate(y, mo, d)
	}

	if m := reMonthDay.FindStringSubmatch(s); m != nil {
		mo, _ := strconv.Atoi(m[1])
		d, _ := strconv.Atoi(m[2])
		return validDate(inferYearForMonthDay(current, mo, d), mo, d)
	}

	if flexible {
		if d, err := dateparse.ParseAny(s); err == nil {
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

type relativeKind int

const (
	relMonths relativeKind = iota + 1
	relTradingDays
	relNaturalDays
)

// inferRelativeFromText 扫描相对期限短语。
// “交易日”模式先于“天/日”模式，避免 N个交易日 被自然日模式重复吃掉。
func inferRelativeFromText(text string) (relativeKind, float64, bool) {
	if m := reTradingDay.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return relTradingDays, float64(n), true
	}
	if m := reNaturalDay.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return relNaturalDays, float64(n), true
	}
	if m := reMonthNum.FindStringSubmatch(text); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return relMonths, v, true
	}
	if m := reMonthCN.FindStringSubmatch(text); m != nil {
		if m[1] == "半" {
			return relMonths, 0.5, true
		}
		return relMonths, cnNumerals[m[1]], true
	}
	return 0, 0, false
}

// ExpiryInput 到期日解析入参。Text 为空或 ScanText=false 时不做文本扫描。
type ExpiryInput struct {
	ExplicitDate string
	Months       *float64
	TradingDays  *int
	NaturalDays  *int
	Text         string
	ScanText     bool
}

// ResolveExpiry 按优先级解析到期日，返回 ISO YYYY-MM-DD；未命中返回 false。
func ResolveExpiry(current time.Time, in ExpiryInput) (string, bool) {
	if in.ExplicitDate != "" {
		if d, ok := parseExpireDateStr(in.ExplicitDate, current, in.ScanText); ok {
			return d.Format(isoDate), true
		}
	}

	if in.Months != nil {
		return AddMonths(current, *in.Months).Format(isoDate), true
	}
	if in.TradingDays != nil {
		return AddTradingDays(current, *in.TradingDays).Format(isoDate), true
	}
	if in.NaturalDays != nil {
		return AddNaturalDays(current, *in.NaturalDays).Format(isoDate), true
	}

	if !in.ScanText || in.Text == "" {
		return "", false
	}

	// 文本扫描：绝对日期子串优先。
	if s := reScanAbs.FindString(in.Text); s != "" {
		if d, ok := parseExpireDateStr(s, current, false); ok {
			return d.Format(isoDate), true
		}
	}
	if m := reScanMD.FindStringSubmatch(in.Text); m != nil {
		mo, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if d, ok := validDate(inferYearForMonthDay(current, mo, day), mo, day); ok {
			return d.Format(isoDate), true
		}
	}

	if kind, v, ok := inferRelativeFromText(in.Text); ok {
		switch kind {
		case relMonths:
			return AddMonths(current, v).Format(isoDate), true
		case relTradingDays:
			return AddTradingDays(current, int(v)).Format(isoDate), true
		case relNaturalDays:
			return AddNaturalDays(current, int(v)).Format(isoDate), true
		}
	}
	return "", false
}

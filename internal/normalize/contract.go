package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rfqd/internal/product"
)

// 中文说明：
// 合约代码解析。两条路径：
//  1) 从自由文本推断（hc10 / HC2610 / hc2610合约 …）
//  2) 从显式 (品种, 月份, 年份) 构造
// 两条路径对同一语义输入必须给出相同结果，因此文本路径的“仅月份”分支
// 直接复用显式构造逻辑（含郑商所单年位格式）。

// Go 的 RE2 不支持环视，这里用消耗型边界组 (^|[^A-Za-z]) / ([^0-9]|$)
// 等价模拟“品种字母前无字母、月份数字后无数字”的约束。
var (
	reProductYYMM  = regexp.MustCompile(`(?i)(^|[^A-Za-z])([A-Za-z]{1,6})\s*([0-9]{4})([^0-9]|$)`)
	reProductYMM   = regexp.MustCompile(`(?i)(^|[^A-Za-z])([A-Za-z]{1,6})\s*([0-9]{3})([^0-9]|$)`)
	reProductMonth = regexp.MustCompile(`(?i)(^|[^A-Za-z])([A-Za-z]{1,6})\s*([0-9]{1,2})([^0-9]|$)`)
	reProductToken = regexp.MustCompile(`^[A-Za-z]{1,6}$`)
)

// InferContractCode 从文本中推断合约代码。
// 优先匹配显式 YYMM（月份校验 1-12，不合法则整体判定失败，不再降级）；
// 否则匹配 1-2 位月份并按“当月及以后取今年，否则取明年”补全年份。
func InferContractCode(text string, current time.Time) (string, bool) {
	t := strings.TrimSpace(text)

	if m := reProductYYMM.FindStringSubmatch(t); m != nil {
		code := strings.ToUpper(m[2])
		yymm := m[3]
		mm, _ := strconv.Atoi(yymm[2:])
		if mm >= 1 && mm <= 12 {
			return code + yymm, true
		}
		return "", false
	}

	// 单年位品种（郑商所风格）的显式 YMM 形式原样放行，保证规整幂等。
	if m := reProductYMM.FindStringSubmatch(t); m != nil {
		code := strings.ToUpper(m[2])
		ymm := m[3]
		if mm, _ := strconv.Atoi(ymm[1:]); mm >= 1 && mm <= 12 && product.UsesSingleDigitYear(code) {
			return code + ymm, true
		}
	}

	m := reProductMonth.FindStringSubmatch(t)
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 {
		return "", false
	}
	code, err := BuildContractCodeFromParts(current, m[2], month, nil)
	if err != nil {
		return "", false
	}
	return code, true
}

// BuildContractCodeFromParts 由显式部件构造合约代码。
// 年份解析规则：
//   - 缺省：月份 >= 当前月取今年，否则取明年（两位年份可回绕 99→00）；
//   - >= 100：按完整年份取模 100；
//   - 1-9：视为两位年份的个位，取尚未过期的最近年份（已过则 +10）；
//   - 其余 0-99：直接作为两位年份；
//   - 负数：调用方契约违规，返回错误。
func BuildContractCodeFromParts(current time.Time, productCode string, contractMonth int, contractYear *int) (string, error) {
	code := strings.TrimSpace(productCode)
	if !reProductToken.MatchString(code) {
		return "", fmt.Errorf("品种代码非法（应为 1-6 个字母）: %q", productCode)
	}
	code = strings.ToUpper(code)

	if contractMonth < 1 || contractMonth > 12 {
		return "", fmt.Errorf("合约月份必须在 1-12 之间: %d", contractMonth)
	}

	curYY := current.Year() % 100
	var yy int
	switch {
	case contractYear == nil:
		yy = curYY
		if contractMonth < int(current.Month()) {
			yy = (yy + 1) % 100
		}
	case *contractYear < 0:
		return "", fmt.Errorf("合约年份非法: %d", *contractYear)
	case *contractYear >= 100:
		yy = *contractYear % 100
	case *contractYear >= 1 && *contractYear <= 9:
		// 个位年份：补全为不早于当前的最近两位年份。
		cand := (curYY/10)*10 + *contractYear
		if cand < curYY || (cand == curYY && contractMonth < int(current.Month())) {
			cand += 10
		}
		yy = cand % 100
	default:
		yy = *contractYear
	}

	if product.UsesSingleDigitYear(code) {
		return fmt.Sprintf("%s%d%02d", code, yy%10, contractMonth), nil
	}
	return fmt.Sprintf("%s%02d%02d", code, yy, contractMonth), nil
}

// NormalizeContractCode 规整松散书写的合约代码（幂等）。
func NormalizeContractCode(text string, current time.Time) (string, bool) {
	return InferContractCode(strings.TrimSpace(text), current)
}

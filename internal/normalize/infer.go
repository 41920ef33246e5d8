package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// 中文说明：
// 字段启发式推断：看涨/看跌、客户买卖方向、虚实值档位。
// 约定：推断不出即返回 false（对应 JSON null），绝不报错，
// 方向冲突（同时指向买和卖）同样视为推断失败。

// 方向取值：CallOption/PutOption 对应 call_put，
// CustomerBuys/CustomerSells 对应 buy_sell。
const (
	CallOption    = 1
	PutOption     = 2
	CustomerBuys  = 1
	CustomerSells = -1
)

func containsAny(s string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// InferCallPut 看涨/认购/call → 1，看跌/认沽/put → 2；call 判定先行。
func InferCallPut(text string) (int, bool) {
	lower := strings.ToLower(text)
	if containsAny(text, "看涨", "认购") || strings.Contains(lower, "call") {
		return CallOption, true
	}
	if containsAny(text, "看跌", "认沽") || strings.Contains(lower, "put") {
		return PutOption, true
	}
	return 0, false
}

// InferBuySell 推断客户方向：1=客户买入，-1=客户卖出。
// 三层候选：客户显式措辞 → 我方视角翻转（我方卖=客户买；offer/bid 同理）→
// 裸动词兜底（排除已被更高层吃掉的短语）。仅当唯一方向时返回。
func InferBuySell(text string) (int, bool) {
	lower := strings.ToLower(text)
	buy, sell := false, false

	if containsAny(text, "客户买", "客户买入") {
		buy = true
	}
	if containsAny(text, "客户卖", "客户卖出") {
		sell = true
	}

	if containsAny(text, "我方卖", "我们卖", "卖给你") || strings.Contains(lower, "offer") {
		buy = true
	}
	if containsAny(text, "我方买", "我们买", "从你买") || strings.Contains(lower, "bid") {
		sell = true
	}

	if strings.Contains(text, "买入") && !strings.Contains(text, "我方买入") && !strings.Contains(text, "客户买入") {
		buy = true
	}
	if strings.Contains(text, "卖出") && !strings.Contains(text, "我方卖出") && !strings.Contains(text, "客户卖出") {
		sell = true
	}

	if buy == sell {
		return 0, false
	}
	if buy {
		return CustomerBuys, true
	}
	return CustomerSells, true
}

var reMoneyness = regexp.MustCompile(`(实|虚)\s*([0-9]+(?:\.[0-9]+)?)`)

// InferMoneyness 虚实值档位：平值/ATM → 0；实N → +N（价内），虚N → -N（价外）。
func InferMoneyness(text string) (float64, bool) {
	if strings.Contains(text, "平值") || containsAny(strings.ToLower(text), "atm", "at-the-money", "at the money") {
		return 0.0, true
	}
	m := reMoneyness.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	if m[1] == "虚" {
		v = -v
	}
	return v, true
}

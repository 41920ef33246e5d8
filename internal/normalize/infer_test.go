package normalize

import "testing"

func TestInferCallPut(t *testing.T) {
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"看涨期权", CallOption, true},
		{"做一个认购", CallOption, true},
		{"买个CALL", CallOption, true},
		{"看跌", PutOption, true},
		{"认沽报价", PutOption, true},
		{"put 3500", PutOption, true},
		{"看涨还是看跌", CallOption, true}, // call 判定先行
		{"报个价", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := InferCallPut(c.text)
		if ok != c.ok || got != c.want {
			t.Errorf("InferCallPut(%q) = (%d, %v), want (%d, %v)", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestInferBuySell(t *testing.T) {
	cases := []struct {
		text string
		want int
		ok   bool
	}{
		{"客户买入一个月平值", CustomerBuys, true},
		{"客户卖50吨", CustomerSells, true},
		{"我方卖一个月期权", CustomerBuys, true}, // 我方卖 → 客户买
		{"我方买入对冲", CustomerSells, true},
		{"卖给你一个call", CustomerBuys, true},
		{"从你买一个put", CustomerSells, true},
		{"offer一个月平值", CustomerBuys, true},
		{"给个bid", CustomerSells, true},
		{"买入hc10", CustomerBuys, true},
		{"卖出rb05", CustomerSells, true},
		{"我方卖出热卷", CustomerBuys, true}, // 裸“卖出”被“我方卖出”排除，仅视角翻转生效
	}
	for _, c := range cases {
		got, ok := InferBuySell(c.text)
		if ok != c.ok || got != c.want {
			t.Errorf("InferBuySell(%q) = (%d, %v), want (%d, %v)", c.text, got, ok, c.want, c.ok)
		}
	}
}

func TestInferBuySellAmbiguous(t *testing.T) {
	cases := []string{
		"我方买，客户买", // 两个方向同时成立 → 放弃
		"买入又卖出",   // 裸动词冲突
		"客户买，客户卖",
		"随便问问",
		"",
	}
	for _, text := range cases {
		if got, ok := InferBuySell(text); ok {
			t.Errorf("InferBuySell(%q) = %d, want ambiguous/none", text, got)
		}
	}
}

func TestInferMoneyness(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"平值期权", 0, true},
		{"ATM call", 0, true},
		{"at-the-money", 0, true},
		{"实2", 2, true},
		{"实 30", 30, true},
		{"虚30", -30, true},
		{"虚1.5", -1.5, true},
		{"报个价", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := InferMoneyness(c.text)
		if ok != c.ok || got != c.want {
			t.Errorf("InferMoneyness(%q) = (%v, %v), want (%v, %v)", c.text, got, ok, c.want, c.ok)
		}
	}
}

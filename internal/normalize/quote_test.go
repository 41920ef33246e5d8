package normalize

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func ctxAt(y int, m time.Month, day int) Context {
	return NewContext(y, m, day)
}

func TestTextVariantFullInference(t *testing.T) {
	q := Text(ctxAt(2026, 2, 12), "hc10合约，我方卖一个月平值期权", TextOverrides{})

	if q.ContractCode == nil || *q.ContractCode != "HC2610" {
		t.Errorf("contract_code = %v", q.ContractCode)
	}
	if q.BuySell == nil || *q.BuySell != CustomerBuys {
		t.Errorf("buy_sell = %v", q.BuySell)
	}
	if q.StrikeOffset == nil || *q.StrikeOffset != 0 {
		t.Errorf("strike_offset = %v", q.StrikeOffset)
	}
	if q.ExpireDate == nil || *q.ExpireDate != "2026-03-12" {
		t.Errorf("expire_date = %v", q.ExpireDate)
	}
	if q.CallPut != nil {
		t.Errorf("call_put 应为空: %v", *q.CallPut)
	}
}

func TestTextVariantExplicitOverrides(t *testing.T) {
	q := Text(ctxAt(2026, 2, 12), "看涨 hc10", TextOverrides{
		ContractCode: "RB2605",
		CallPut:      intPtr(PutOption),
	})
	if q.ContractCode == nil || *q.ContractCode != "RB2605" {
		t.Errorf("显式合约应优先: %v", q.ContractCode)
	}
	if q.CallPut == nil || *q.CallPut != PutOption {
		t.Errorf("显式 call_put 应优先: %v", q.CallPut)
	}
}

func TestStrikeOverridesStrikeOffset(t *testing.T) {
	q, err := Parts(ctxAt(2026, 2, 12), PartsInput{
		Strike:       f64Ptr(3500.0),
		StrikeOffset: f64Ptr(-30.0),
	})
	if err != nil {
		t.Fatalf("Parts: %v", err)
	}
	if q.Strike == nil || *q.Strike != 3500.0 {
		t.Errorf("strike = %v", q.Strike)
	}
	if q.StrikeOffset != nil {
		t.Errorf("strike 存在时 strike_offset 必须为空, got %v", *q.StrikeOffset)
	}

	// 文本变体同理：显式 strike 压制文本推断出的档位。
	tq := Text(ctxAt(2026, 2, 12), "平值期权", TextOverrides{Strike: f64Ptr(3500.0)})
	if tq.StrikeOffset != nil {
		t.Errorf("文本变体 strike_offset 应为空, got %v", *tq.StrikeOffset)
	}
}

func TestPartsVariantNoTextFallback(t *testing.T) {
	q, err := Parts(ctxAt(2026, 2, 12), PartsInput{})
	if err != nil {
		t.Fatalf("Parts: %v", err)
	}
	if q.ContractCode != nil || q.CallPut != nil || q.BuySell != nil ||
		q.Strike != nil || q.StrikeOffset != nil || q.ExpireDate != nil {
		t.Errorf("空入参应全部为 null: %+v", q)
	}
}

func TestPartsVariantContract(t *testing.T) {
	month := 10
	q, err := Parts(ctxAt(2026, 2, 12), PartsInput{ProductCode: "hc", ContractMonth: &month})
	if err != nil {
		t.Fatalf("Parts: %v", err)
	}
	if q.ContractCode == nil || *q.ContractCode != "HC2610" {
		t.Errorf("contract_code = %v", q.ContractCode)
	}

	q, err = Parts(ctxAt(2026, 2, 12), PartsInput{ContractCode: "hc10"})
	if err != nil {
		t.Fatalf("Parts: %v", err)
	}
	if q.ContractCode == nil || *q.ContractCode != "HC2610" {
		t.Errorf("规整显式合约 = %v", q.ContractCode)
	}
}

func TestPartsVariantRejectsBadMonth(t *testing.T) {
	month := 13
	if _, err := Parts(ctxAt(2026, 2, 12), PartsInput{ProductCode: "hc", ContractMonth: &month}); err == nil {
		t.Fatal("非法月份应返回错误")
	}
}

func TestPartsVariantExpiryPrecedence(t *testing.T) {
	q, err := Parts(ctxAt(2026, 2, 12), PartsInput{
		ExpireDate:     "2026-04-15",
		ExpireInMonths: fp(1),
	})
	if err != nil {
		t.Fatalf("Parts: %v", err)
	}
	if q.ExpireDate == nil || *q.ExpireDate != "2026-04-15" {
		t.Errorf("expire_date = %v", q.ExpireDate)
	}
}

func TestInquiryQuoteJSONEmitsNulls(t *testing.T) {
	q, _ := Parts(ctxAt(2026, 2, 12), PartsInput{})
	buf, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"contract_code", "call_put", "buy_sell", "strike", "strike_offset", "underlying_price", "expire_date", "quantity"} {
		if !strings.Contains(string(buf), `"`+key+`":null`) {
			t.Errorf("缺少显式 null 字段 %s: %s", key, buf)
		}
	}
}

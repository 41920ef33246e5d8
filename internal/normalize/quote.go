package normalize

import (
	"time"
)

// 中文说明：
// 询价归一化的顶层组合。输出为严格模式的 InquiryQuote：
// 缺失/无法推断一律置 null，引擎绝不反问；单次解析内每个字段只计算一次。
// “当前日期”由 Context 注入，核心逻辑不读系统时钟。

// Context 承载引擎需要的全部环境状态。
type Context struct {
	CurrentDate time.Time
}

// NewContext 以公历日构造上下文（时刻部分截断到 UTC 零点）。
func NewContext(year int, month time.Month, day int) Context {
	return Context{CurrentDate: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// InquiryQuote 下游定价系统消费的归一化结果。
// 指针字段的 nil 序列化为显式 null（不可省略键）。
// 不变式：Strike 非空时 StrikeOffset 必为空。
type InquiryQuote struct {
	ContractCode    *string  `json:"contract_code"`
	CallPut         *int     `json:"call_put"`
	BuySell         *int     `json:"buy_sell"`
	Strike          *float64 `json:"strike"`
	StrikeOffset    *float64 `json:"strike_offset"`
	UnderlyingPrice *float64 `json:"underlying_price"`
	ExpireDate      *string  `json:"expire_date"`
	Quantity        *float64 `json:"quantity"`
}

// TextOverrides 文本推断入口的显式覆盖项；显式值优先于文本启发式。
type TextOverrides struct {
	ContractCode        string   `json:"contract_code"`
	CallPut             *int     `json:"call_put"`
	BuySell             *int     `json:"buy_sell"`
	Strike              *float64 `json:"strike"`
	StrikeOffset        *float64 `json:"strike_offset"`
	UnderlyingPrice     *float64 `json:"underlying_price"`
	Quantity            *float64 `json:"quantity"`
	ExpireDate          string   `json:"expire_date"`
	ExpireInMonths      *float64 `json:"expire_in_months"`
	ExpireInTradingDays *int     `json:"expire_in_trading_days"`
	ExpireInNaturalDays *int     `json:"expire_in_natural_days"`
}

// PartsInput 显式部件入口的入参；该入口不做任何文本解析。
type PartsInput struct {
	ContractCode        string   `json:"contract_code"`
	ProductCode         string   `json:"product_code"`
	ContractMonth       *int     `json:"contract_month"`
	ContractYear        *int     `json:"contract_year"`
	CallPut             *int     `json:"call_put"`
	BuySell             *int     `json:"buy_sell"`
	Strike              *float64 `json:"strike"`
	StrikeOffset        *float64 `json:"strike_offset"`
	UnderlyingPrice     *float64 `json:"underlying_price"`
	Quantity            *float64 `json:"quantity"`
	ExpireDate          string   `json:"expire_date"`
	ExpireInMonths      *float64 `json:"expire_in_months"`
	ExpireInTradingDays *int     `json:"expire_in_trading_days"`
	ExpireInNaturalDays *int     `json:"expire_in_natural_days"`
}

func strPtr(s string) *string   { return &s }
func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

// Text 文本推断变体：固定顺序组合各解析器，显式覆盖项优先。
// 永不返回错误——推断失败即字段置空。
func Text(ctx Context, text string, ov TextOverrides) *InquiryQuote {
	q := &InquiryQuote{
		UnderlyingPrice: ov.UnderlyingPrice,
		Quantity:        ov.Quantity,
	}

	// 合约代码：显式值优先，但同样走规整（hc10 → HC2610）。
	if ov.ContractCode != "" {
		if code, ok := NormalizeContractCode(ov.ContractCode, ctx.CurrentDate); ok {
			q.ContractCode = strPtr(code)
		} else {
			q.ContractCode = strPtr(ov.ContractCode)
		}
	} else if code, ok := InferContractCode(text, ctx.CurrentDate); ok {
		q.ContractCode = strPtr(code)
	}

	// 看涨/看跌。
	if ov.CallPut != nil {
		q.CallPut = ov.CallPut
	} else if cp, ok := InferCallPut(text); ok {
		q.CallPut = intPtr(cp)
	}

	// 客户方向。
	if ov.BuySell != nil {
		q.BuySell = ov.BuySell
	} else if bs, ok := InferBuySell(text); ok {
		q.BuySell = intPtr(bs)
	}

	// 行权价优先级：strike 覆盖 strike_offset。
	if ov.Strike != nil {
		q.Strike = ov.Strike
	} else if ov.StrikeOffset != nil {
		q.StrikeOffset = ov.StrikeOffset
	} else if off, ok := InferMoneyness(text); ok {
		q.StrikeOffset = f64Ptr(off)
	}

	if exp, ok := ResolveExpiry(ctx.CurrentDate, ExpiryInput{
		ExplicitDate: ov.ExpireDate,
		Months:       ov.ExpireInMonths,
		TradingDays:  ov.ExpireInTradingDays,
		NaturalDays:  ov.ExpireInNaturalDays,
		Text:         text,
		ScanText:     true,
	}); ok {
		q.ExpireDate = strPtr(exp)
	}
	return q
}

// Parts 显式部件变体：只接受结构化入参，不做文本兜底。
// 仅对调用方契约违规（非法月份/品种/年份）返回错误。
func Parts(ctx Context, in PartsInput) (*InquiryQuote, error) {
	q := &InquiryQuote{
		CallPut:         in.CallPut,
		BuySell:         in.BuySell,
		UnderlyingPrice: in.UnderlyingPrice,
		Quantity:        in.Quantity,
	}

	switch {
	case in.ContractCode != "":
		if code, ok := NormalizeContractCode(in.ContractCode, ctx.CurrentDate); ok {
			q.ContractCode = strPtr(code)
		}
	case in.ProductCode != "" && in.ContractMonth != nil:
		code, err := BuildContractCodeFromParts(ctx.CurrentDate, in.ProductCode, *in.ContractMonth, in.ContractYear)
		if err != nil {
			return nil, err
		}
		q.ContractCode = strPtr(code)
	}

	if in.Strike != nil {
		q.Strike = in.Strike
	} else {
		q.StrikeOffset = in.StrikeOffset
	}

	if exp, ok := ResolveExpiry(ctx.CurrentDate, ExpiryInput{
		ExplicitDate: in.ExpireDate,
		Months:       in.ExpireInMonths,
		TradingDays:  in.ExpireInTradingDays,
		NaturalDays:  in.ExpireInNaturalDays,
	}); ok {
		q.ExpireDate = strPtr(exp)
	}
	return q, nil
}

package agent

import (
	"encoding/json"
	"fmt"

	"rfqd/internal/normalize"
	"rfqd/internal/product"
)

// 中文说明：
// 工具定义与本地执行。入参边界校验放在这一层（编排边界），
// 核心解析函数保持“推断失败=null”的纯语义。

// NormalizeInquiryTool 归一化询价的工具名。
const NormalizeInquiryTool = "normalize_inquiry"

// FindProductCandidatesTool 品种候选检索的工具名。
const FindProductCandidatesTool = "find_product_candidates"

var normalizeInquirySchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["text"],
  "properties": {
    "text": {"type": "string", "description": "原始询价文本"},
    "contract_code": {"type": ["string", "null"], "pattern": "^[A-Za-z]+[0-9]{1,4}$"},
    "call_put": {"type": ["integer", "null"], "enum": [1, 2, null]},
    "buy_sell": {"type": ["integer", "null"], "enum": [1, -1, null]},
    "strike": {"type": ["number", "null"], "exclusiveMinimum": 0},
    "strike_offset": {"type": ["number", "null"]},
    "underlying_price": {"type": ["number", "null"], "exclusiveMinimum": 0},
    "quantity": {"type": ["number", "null"], "exclusiveMinimum": 0},
    "expire_date": {"type": ["string", "null"]},
    "expire_in_months": {"type": ["number", "null"], "minimum": 0},
    "expire_in_natural_days": {"type": ["integer", "null"], "minimum": 0},
    "expire_in_trading_days": {"type": ["integer", "null"], "minimum": 0}
  }
}`)

var findProductCandidatesSchema = json.RawMessage(`{
  "type": "object",
  "additionalProperties": false,
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "description": "含品种提法的询价文本"},
    "top_k": {"type": "integer", "minimum": 1, "maximum": 20}
  }
}`)

// Tools 返回对外暴露的工具清单。
func Tools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        NormalizeInquiryTool,
			Description: "把自由询价文本归一化为严格的结构化报价字段，缺失项为 null，不反问。",
			Parameters:  normalizeInquirySchema,
		},
		{
			Name:        FindProductCandidatesTool,
			Description: "把模糊品种提法解析为标准品种代码候选（含置信分）。",
			Parameters:  findProductCandidatesSchema,
		},
	}
}

// normalizeInquiryArgs normalize_inquiry 的入参。
type normalizeInquiryArgs struct {
	Text                string   `json:"text"`
	ContractCode        *string  `json:"contract_code"`
	CallPut             *int     `json:"call_put"`
	BuySell             *int     `json:"buy_sell"`
	Strike              *float64 `json:"strike"`
	StrikeOffset        *float64 `json:"strike_offset"`
	UnderlyingPrice     *float64 `json:"underlying_price"`
	Quantity            *float64 `json:"quantity"`
	ExpireDate          *string  `json:"expire_date"`
	ExpireInMonths      *float64 `json:"expire_in_months"`
	ExpireInNaturalDays *int     `json:"expire_in_natural_days"`
	ExpireInTradingDays *int     `json:"expire_in_trading_days"`
}

func (a *normalizeInquiryArgs) validate() error {
	if a.Text == "" {
		return fmt.Errorf("text 不能为空")
	}
	if a.CallPut != nil && *a.CallPut != normalize.CallOption && *a.CallPut != normalize.PutOption {
		return fmt.Errorf("call_put 取值非法: %d", *a.CallPut)
	}
	if a.BuySell != nil && *a.BuySell != normalize.CustomerBuys && *a.BuySell != normalize.CustomerSells {
		return fmt.Errorf("buy_sell 取值非法: %d", *a.BuySell)
	}
	if a.Strike != nil && *a.Strike <= 0 {
		return fmt.Errorf("strike 必须为正数: %v", *a.Strike)
	}
	if a.UnderlyingPrice != nil && *a.UnderlyingPrice <= 0 {
		return fmt.Errorf("underlying_price 必须为正数: %v", *a.UnderlyingPrice)
	}
	if a.Quantity != nil && *a.Quantity <= 0 {
		return fmt.Errorf("quantity 必须为正数: %v", *a.Quantity)
	}
	return nil
}

// ExecuteNormalizeInquiry 校验入参并执行文本归一化。
func ExecuteNormalizeInquiry(ctx normalize.Context, raw json.RawMessage) (*normalize.InquiryQuote, error) {
	var args normalizeInquiryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("解析 normalize_inquiry 入参失败: %w", err)
	}
	if err := args.validate(); err != nil {
		return nil, err
	}

	ov := normalize.TextOverrides{
		CallPut:             args.CallPut,
		BuySell:             args.BuySell,
		Strike:              args.Strike,
		StrikeOffset:        args.StrikeOffset,
		UnderlyingPrice:     args.UnderlyingPrice,
		Quantity:            args.Quantity,
		ExpireInMonths:      args.ExpireInMonths,
		ExpireInNaturalDays: args.ExpireInNaturalDays,
		ExpireInTradingDays: args.ExpireInTradingDays,
	}
	if args.ContractCode != nil {
		ov.ContractCode = *args.ContractCode
	}
	if args.ExpireDate != nil {
		ov.ExpireDate = *args.ExpireDate
	}
	return normalize.Text(ctx, args.Text, ov), nil
}

// findProductCandidatesArgs find_product_candidates 的入参。
type findProductCandidatesArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// ExecuteFindProductCandidates 校验入参并执行品种候选检索。
func ExecuteFindProductCandidates(resolver *product.Resolver, raw json.RawMessage) ([]product.Candidate, error) {
	var args findProductCandidatesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("解析 find_product_candidates 入参失败: %w", err)
	}
	if args.Query == "" {
		return nil, fmt.Errorf("query 不能为空")
	}
	if args.TopK <= 0 {
		args.TopK = 5
	}
	if args.TopK > 20 {
		args.TopK = 20
	}
	return resolver.FindCandidates(args.Query, args.TopK), nil
}

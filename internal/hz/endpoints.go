package hz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// 中文说明：
// HZ 业务端点封装。与参考数据相关的接口：场内交易信息、在途合约、
// 品种代码↔名称映射、历史价格、非交易日列表。

// ExchangePosition 场内持仓条目（只保留消费到的字段）。
type ExchangePosition struct {
	InvestorID   string  `json:"investorId"`
	ContractCode string  `json:"contractCode"`
	Direction    string  `json:"direction"`
	Position     float64 `json:"position"`
}

type exchangeInfosData struct {
	ExchangePositionList []ExchangePosition `json:"exchangePositionList"`
}

// GetExchangeInfosByDate 获取指定日期的场内交易信息，按配置的 investor_id 过滤。
func (c *Client) GetExchangeInfosByDate(ctx context.Context, date, version string) ([]ExchangePosition, error) {
	if version == "" {
		version = "sss"
	}
	var data exchangeInfosData
	err := c.doRequest(ctx, http.MethodGet,
		"/exchange-business/exchange/getExchangeInfosByDate",
		map[string]string{"date": date},
		url.Values{"version": {version}},
		&data,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ExchangePosition, 0, len(data.ExchangePositionList))
	for _, p := range data.ExchangePositionList {
		if p.InvestorID == c.investorID {
			out = append(out, p)
		}
	}
	return out, nil
}

// OngoingContract 在途合约条目。品种名可能嵌套在 varietyInfo 里。
type OngoingContract struct {
	ContractCode string `json:"contractCode"`
	VarietyCode  string `json:"varietyCode"`
	VarietyName  string `json:"varietyName"`
	VarietyInfo  *struct {
		VarietyName string `json:"varietyName"`
	} `json:"varietyInfo"`
}

// ListOngoingContracts 获取当前在途合约列表。
func (c *Client) ListOngoingContracts(ctx context.Context) ([]OngoingContract, error) {
	var out []OngoingContract
	if err := c.doRequest(ctx, http.MethodPost, "/otc-business/hzotcContract/listOngoing", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOngoingContractsByWei 获取当前在途合约列表（wei 维度）。
func (c *Client) ListOngoingContractsByWei(ctx context.Context) ([]OngoingContract, error) {
	var out []OngoingContract
	if err := c.doRequest(ctx, http.MethodPost, "/otc-business/hzotcContract/listOngoingByWei", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VarietyCodeNameMap 从在途合约聚合 {varietyCode: varietyName} 映射。
func (c *Client) VarietyCodeNameMap(ctx context.Context) (map[string]string, error) {
	contracts, err := c.ListOngoingContracts(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(contracts))
	for _, contract := range contracts {
		if contract.VarietyCode == "" {
			continue
		}
		name := contract.VarietyName
		if name == "" && contract.VarietyInfo != nil {
			name = contract.VarietyInfo.VarietyName
		}
		if name != "" {
			out[contract.VarietyCode] = name
		}
	}
	return out, nil
}

// DayPrice 合约日价格条目。
type DayPrice struct {
	ContractCode string  `json:"contractCode"`
	PriceDate    string  `json:"priceDate"`
	Price        float64 `json:"price"`
}

// HistoryPrices 查询合约历史价格。
func (c *Client) HistoryPrices(ctx context.Context, contractCodes []string, startDate, endDate string) ([]DayPrice, error) {
	payload := map[string]any{
		"contractCodeList": contractCodes,
		"startDate":        startDate,
		"endDate":          endDate,
	}
	var out []DayPrice
	if err := c.doRequest(ctx, http.MethodPost,
		"/otc-business/hzotcContractDayPrice/weiQueryContractDayPriceList",
		payload, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NoTradeDates 获取非交易日列表。不同版本的后端 data 形态不一：
// 可能是字符串数组，也可能包成 {dateList|date_list|dates: [...]}。
func (c *Client) NoTradeDates(ctx context.Context, startDate, endDate string) ([]string, error) {
	payload := map[string]string{
		"startTime": startDate,
		"endTime":   endDate,
	}
	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost,
		"/otc-business/hzotcTradeCalendar/listNoTradeDate",
		payload, nil, &raw); err != nil {
		return nil, err
	}
	return parseNoTradeDates(raw), nil
}

func parseNoTradeDates(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil
	}
	for _, key := range []string{"dateList", "date_list", "dates"} {
		if inner, ok := wrapped[key]; ok {
			if err := json.Unmarshal(inner, &list); err == nil {
				return list
			}
		}
	}
	return nil
}

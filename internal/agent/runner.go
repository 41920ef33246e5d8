package agent

import (
	"context"
	"fmt"

	"rfqd/internal/normalize"
	"rfqd/internal/product"
)

// instructions 系统提示：模型只负责把口语文本搬进工具入参，
// 不做日期换算，缺失项一律留空由本地推断补齐。
const instructions = `你是场外期权询价解析助手。用户会发来一条自由格式的询价文本。
你必须恰好调用一次 normalize_inquiry 工具，把原文放进 text 字段。
只有当文本里明确出现某个字段的取值时才填对应参数，否则留空。
不要自己换算日期或合约月份，不要向用户反问。`

// Runner 把 LLM 工具调用编排和本地执行串起来。
type Runner struct {
	client   *ChatClient
	resolver *product.Resolver
}

func NewRunner(client *ChatClient, resolver *product.Resolver) *Runner {
	return &Runner{client: client, resolver: resolver}
}

// ParseInquiry 走一轮 LLM 工具调用解析询价文本。
// 模型给出的入参在本地校验并执行，首个工具调用即为最终结果。
func (r *Runner) ParseInquiry(ctx context.Context, ictx normalize.Context, text string) (*normalize.InquiryQuote, error) {
	if text == "" {
		return nil, fmt.Errorf("询价文本不能为空")
	}
	call, err := r.client.CallTool(ctx, instructions, text, Tools())
	if err != nil {
		return nil, err
	}
	if call.Name != NormalizeInquiryTool {
		return nil, fmt.Errorf("模型调用了未预期的工具: %s", call.Name)
	}
	return ExecuteNormalizeInquiry(ictx, call.Arguments)
}

// Dispatch 按名称执行一条工具调用，供服务端直接暴露工具时复用。
func (r *Runner) Dispatch(ictx normalize.Context, call *ToolCall) (any, error) {
	switch call.Name {
	case NormalizeInquiryTool:
		return ExecuteNormalizeInquiry(ictx, call.Arguments)
	case FindProductCandidatesTool:
		return ExecuteFindProductCandidates(r.resolver, call.Arguments)
	default:
		return nil, fmt.Errorf("未知工具: %s", call.Name)
	}
}

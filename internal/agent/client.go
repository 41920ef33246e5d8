package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rfqd/internal/logger"
)

// 中文说明：
// OpenAI 兼容 chat/completions 客户端，仅覆盖工具调用场景：
// 单轮请求 + tool_choice=required，取第一条 tool_call 即返回
// （本地执行，不回传工具结果，与“停在首个工具”的编排方式一致）。

// ChatClient OpenAI 兼容接口客户端。
type ChatClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	ExtraHeaders map[string]string
}

// ToolSpec 函数工具定义，Parameters 为 JSON Schema。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall 模型返回的工具调用。
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
}

func (c *ChatClient) endpoint() string {
	u := strings.TrimRight(c.BaseURL, "/")
	if u == "" {
		u = "https://api.openai.com/v1"
	}
	u = strings.TrimSuffix(u, "/chat/completions")
	return u + "/chat/completions"
}

func (c *ChatClient) headers() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if c.APIKey != "" {
		h["Authorization"] = "Bearer " + c.APIKey
	}
	for k, v := range c.ExtraHeaders {
		h[k] = v
	}
	return h
}

func (c *ChatClient) buildBody(system, user string, tools []ToolSpec) []byte {
	messages := []map[string]any{}
	if system != "" {
		messages = append(messages, map[string]any{"role": "system", "content": system})
	}
	messages = append(messages, map[string]any{"role": "user", "content": user})

	toolDefs := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		toolDefs = append(toolDefs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}

	body := map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"tools":       toolDefs,
		"tool_choice": "required",
		"temperature": 0,
	}
	buf, _ := json.Marshal(body)
	return buf
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CallTool 发起一次工具调用请求，返回模型选择的第一条调用。
func (c *ChatClient) CallTool(ctx context.Context, system, user string, tools []ToolSpec) (*ToolCall, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	body := c.buildBody(system, user, tools)
	logger.Payload("llm-req", string(body))
	httpc := &http.Client{Timeout: timeout}
	endpoint := c.endpoint()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		for k, v := range c.headers() {
			req.Header.Set(k, v)
		}

		resp, err := httpc.Do(req)
		if err != nil {
			lastErr = err
			break
		}
		buf, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			break
		}

		// 限流与服务端错误重试，其余状态直接失败。
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
			lastErr = fmt.Errorf("LLM 接口返回 %d", resp.StatusCode)
			if attempt < maxRetries {
				logger.Warnf("LLM 请求失败（%d），第 %d 次重试", resp.StatusCode, attempt+1)
				time.Sleep(time.Second * time.Duration(attempt+1))
				continue
			}
			break
		}
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("LLM 接口返回 %d: %s", resp.StatusCode, truncate(string(buf), 256))
		}

		logger.Payload("llm-resp", string(buf))
		var parsed chatCompletionResponse
		if err := json.Unmarshal(buf, &parsed); err != nil {
			return nil, fmt.Errorf("解析 LLM 响应失败: %w", err)
		}
		if parsed.Error != nil {
			return nil, fmt.Errorf("LLM 错误: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
			return nil, fmt.Errorf("LLM 未返回工具调用")
		}
		call := parsed.Choices[0].Message.ToolCalls[0]
		return &ToolCall{
			Name:      call.Function.Name,
			Arguments: json.RawMessage(call.Function.Arguments),
		}, nil
	}
	return nil, fmt.Errorf("LLM 请求失败: %w", lastErr)
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package hz

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rfqd/internal/config"
	"rfqd/internal/logger"
)

// 中文说明：
// HZ 后端认证 REST 客户端。
// 密码模式登录换取 access_token / refresh_token；token 过期前 120s 视为失效，
// 刷新失败回退重新登录；HTTP 401 或业务码 401 强制刷新并重试一次。
// Token 状态由互斥锁保护，其余字段构造后只读，可并发使用。

// 登录接口的固定客户端凭据（与后端约定）。
const basicClientCredential = "Basic YXBpOkthbWluYW4="

const (
	tokenSafetyWindow  = 120 * time.Second
	defaultTokenExpiry = 55 * time.Minute
)

// Client HZ REST 客户端。
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	username   string
	password   string
	investorID string

	mu             sync.Mutex
	token          string
	refreshToken   string
	tokenExpiresAt time.Time
}

// NewClient 由配置构造客户端。
func NewClient(cfg config.HZConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("hz 未启用")
	}
	raw := strings.TrimRight(strings.TrimSpace(cfg.Address), "/")
	if raw == "" {
		return nil, fmt.Errorf("hz.address 不能为空")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return nil, fmt.Errorf("hz.address 缺少协议前缀: %q", raw)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("解析 hz.address 失败: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = cfg.MaxIdleConns
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConns
	if cfg.InsecureSkipVerify {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true // #nosec G402
		}
	}

	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		username:   strings.TrimSpace(cfg.Username),
		password:   strings.TrimSpace(cfg.Password),
		investorID: cfg.InvestorID,
	}, nil
}

// apiResponse HZ 接口统一响应壳：code=0 表示成功。
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresInAlt int    `json:"expiresIn"`
}

// postTokenForm 调用 /auth/oauth/token（登录与刷新共用）。
func (c *Client) postTokenForm(ctx context.Context, form url.Values) (*tokenData, error) {
	endpoint := c.baseURL.String() + "/auth/oauth/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("构造登录请求失败: %w", err)
	}
	req.Header.Set("Authorization", basicClientCredential)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("登录请求失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("登录接口返回 %d", resp.StatusCode)
	}

	var shell apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&shell); err != nil {
		return nil, fmt.Errorf("解析登录响应失败: %w", err)
	}
	if shell.Code != 0 {
		return nil, fmt.Errorf("HZ 登录失败: %s", shell.Message)
	}
	var data tokenData
	if err := json.Unmarshal(shell.Data, &data); err != nil {
		return nil, fmt.Errorf("解析 token 数据失败: %w", err)
	}
	if data.AccessToken == "" {
		return nil, fmt.Errorf("登录返回中缺少 access_token")
	}
	return &data, nil
}

// login 密码模式登录。调用方需持有 c.mu。
func (c *Client) login(ctx context.Context) error {
	logger.Infof("HZ 客户端登录中...")
	data, err := c.postTokenForm(ctx, url.Values{
		"username":   {c.username},
		"password":   {c.password},
		"grant_type": {"password"},
		"user_type":  {"user"},
	})
	if err != nil {
		return err
	}
	c.adoptToken(data)
	logger.Infof("HZ 登录成功，token 有效至 %s", c.tokenExpiresAt.Format(time.RFC3339))
	return nil
}

// refresh 用 refresh_token 换新 token，失败由调用方回退登录。调用方需持有 c.mu。
func (c *Client) refresh(ctx context.Context) error {
	if c.refreshToken == "" {
		return c.login(ctx)
	}
	logger.Infof("HZ 客户端刷新 token...")
	data, err := c.postTokenForm(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.refreshToken},
	})
	if err != nil {
		return err
	}
	if data.RefreshToken == "" {
		data.RefreshToken = c.refreshToken
	}
	c.adoptToken(data)
	return nil
}

// adoptToken 记录新 token 与过期时刻（预留安全窗口）。调用方需持有 c.mu。
func (c *Client) adoptToken(data *tokenData) {
	c.token = data.AccessToken
	if data.RefreshToken != "" {
		c.refreshToken = data.RefreshToken
	}
	expiresIn := data.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = data.ExpiresInAlt
	}
	if expiresIn > 0 {
		d := time.Duration(expiresIn)*time.Second - tokenSafetyWindow
		if d < 0 {
			d = 0
		}
		c.tokenExpiresAt = time.Now().Add(d)
	} else {
		c.tokenExpiresAt = time.Now().Add(defaultTokenExpiry)
	}
}

// ensureToken 返回有效 token；过期则先刷新，刷新失败强制重登一次。
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiresAt) {
		return c.token, nil
	}
	if err := c.refresh(ctx); err != nil {
		logger.Warnf("HZ token 刷新失败，回退重新登录: %v", err)
		if err := c.login(ctx); err != nil {
			return "", err
		}
	}
	if c.token == "" {
		return "", fmt.Errorf("未能获取到有效的 access_token")
	}
	return c.token, nil
}

// expireToken 强制标记 token 失效（401 重试前）。
func (c *Client) expireToken() {
	c.mu.Lock()
	c.tokenExpiresAt = time.Now().Add(-time.Second)
	c.mu.Unlock()
}

// doRequest 带 token 管理与 401 重试的一般性调用。
// data 序列化为 JSON 请求体，params 拼接查询串，out 接收 data 字段。
func (c *Client) doRequest(ctx context.Context, method, endpoint string, data any, params url.Values, out any) error {
	const retry = 1
	reqID := uuid.NewString()
	method = strings.ToUpper(method)

	rel, err := url.Parse("/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return fmt.Errorf("解析端点失败: %w", err)
	}
	target := c.baseURL.ResolveReference(rel)
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}

	var payload []byte
	if data != nil {
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= retry; attempt++ {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
		if err != nil {
			return fmt.Errorf("构造请求失败: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-Id", reqID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < retry {
				logger.Warnf("HZ 请求失败，准备重试 req_id=%s endpoint=%s err=%v", reqID, endpoint, err)
				time.Sleep(time.Second)
				continue
			}
			break
		}

		shell, err := readShell(resp)
		if err != nil {
			lastErr = err
			break
		}

		// HTTP 401 或业务码 401 → 强制刷新并重试。
		if resp.StatusCode == http.StatusUnauthorized || shell.Code == http.StatusUnauthorized {
			logger.Warnf("HZ 返回 401，强制刷新 token req_id=%s endpoint=%s", reqID, endpoint)
			c.expireToken()
			if attempt < retry {
				continue
			}
			return fmt.Errorf("HZ 鉴权失败 endpoint=%s", endpoint)
		}
		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("HZ 接口返回 %d endpoint=%s", resp.StatusCode, endpoint)
		}
		if shell.Code != 0 {
			return fmt.Errorf("HZ 业务失败 code=%d message=%s endpoint=%s", shell.Code, shell.Message, endpoint)
		}

		if out != nil && len(shell.Data) > 0 {
			if err := json.Unmarshal(shell.Data, out); err != nil {
				return fmt.Errorf("解析响应 data 失败: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("HZ 请求在 %d 次尝试后仍失败: %w", retry+1, lastErr)
}

func readShell(resp *http.Response) (*apiResponse, error) {
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	logger.Payload("hz-resp", string(buf))
	var shell apiResponse
	if len(buf) > 0 {
		if err := json.Unmarshal(buf, &shell); err != nil {
			return nil, fmt.Errorf("HZ 接口返回格式异常（期望 JSON object）: %w", err)
		}
	}
	return &shell, nil
}

package hz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"rfqd/internal/config"
)

func testConfig(addr string) config.HZConfig {
	return config.HZConfig{
		Enabled:        true,
		Address:        addr,
		Username:       "user",
		Password:       "pass",
		TimeoutSeconds: 5,
		MaxIdleConns:   2,
		InvestorID:     "场外01",
	}
}

func writeShell(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": "",
		"data":    data,
	})
}

func TestClientLoginAndVarietyMap(t *testing.T) {
	var logins atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/oauth/token":
			if r.Header.Get("Authorization") != basicClientCredential {
				t.Errorf("缺少客户端凭据头: %q", r.Header.Get("Authorization"))
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if got := r.PostFormValue("grant_type"); got != "password" {
				t.Errorf("grant_type = %q", got)
			}
			logins.Add(1)
			writeShell(w, 0, map[string]any{
				"access_token":  "tok-1",
				"refresh_token": "ref-1",
				"expires_in":    3600,
			})
		case "/otc-business/hzotcContract/listOngoing":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
				t.Errorf("Authorization = %q", got)
			}
			writeShell(w, 0, []map[string]any{
				{"varietyCode": "HC", "varietyName": "热轧卷板"},
				{"varietyCode": "OI", "varietyInfo": map[string]any{"varietyName": "菜籽油"}},
				{"varietyCode": "", "varietyName": "无代码忽略"},
				{"varietyCode": "XX"},
			})
		default:
			t.Errorf("未知路径: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := c.VarietyCodeNameMap(context.Background())
	if err != nil {
		t.Fatalf("VarietyCodeNameMap: %v", err)
	}
	want := map[string]string{"HC": "热轧卷板", "OI": "菜籽油"}
	if len(got) != len(want) || got["HC"] != want["HC"] || got["OI"] != want["OI"] {
		t.Errorf("variety map = %v, want %v", got, want)
	}
	if logins.Load() != 1 {
		t.Errorf("登录次数 = %d", logins.Load())
	}

	// 第二次调用复用缓存 token，不再登录。
	if _, err := c.VarietyCodeNameMap(context.Background()); err != nil {
		t.Fatalf("第二次调用: %v", err)
	}
	if logins.Load() != 1 {
		t.Errorf("token 未复用，登录次数 = %d", logins.Load())
	}
}

func TestClientRetriesOnBusiness401(t *testing.T) {
	var calls atomic.Int32
	var tokens atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/oauth/token":
			n := tokens.Add(1)
			writeShell(w, 0, map[string]any{
				"access_token": "tok-" + string(rune('0'+n)),
				"expires_in":   3600,
			})
		case "/otc-business/hzotcContract/listOngoing":
			if calls.Add(1) == 1 {
				// 首次返回业务码 401，触发强制刷新重试。
				writeShell(w, 401, nil)
				return
			}
			writeShell(w, 0, []map[string]any{{"varietyCode": "RB", "varietyName": "螺纹钢"}})
		}
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := c.VarietyCodeNameMap(context.Background())
	if err != nil {
		t.Fatalf("VarietyCodeNameMap: %v", err)
	}
	if got["RB"] != "螺纹钢" {
		t.Errorf("variety map = %v", got)
	}
	if calls.Load() != 2 {
		t.Errorf("业务调用次数 = %d, want 2", calls.Load())
	}
	if tokens.Load() != 2 {
		t.Errorf("token 获取次数 = %d, want 2", tokens.Load())
	}
}

func TestClientRejectsBadAddress(t *testing.T) {
	for _, addr := range []string{"", "example.com", "ftp://example.com"} {
		cfg := testConfig(addr)
		if _, err := NewClient(cfg); err == nil {
			t.Errorf("地址 %q 应被拒绝", addr)
		}
	}
	cfg := testConfig("http://example.com")
	cfg.Enabled = false
	if _, err := NewClient(cfg); err == nil {
		t.Error("未启用时应返回错误")
	}
}

func TestParseNoTradeDates(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{`["2026-01-01","2026-01-02"]`, 2},
		{`{"dateList":["2026-01-01"]}`, 1},
		{`{"date_list":["2026-01-01","2026-01-02","2026-01-03"]}`, 3},
		{`{"dates":[]}`, 0},
		{`{"other":1}`, 0},
		{``, 0},
	}
	for _, c := range cases {
		if got := parseNoTradeDates([]byte(c.raw)); len(got) != c.want {
			t.Errorf("parseNoTradeDates(%q) = %v, want %d 项", c.raw, got, c.want)
		}
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rfqd/internal/product"
)

func newTestServer() *Server {
	return NewServer(":0", product.NewResolver(nil, 0), 5)
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("响应非 JSON: %v\n%s", err, w.Body.String())
		}
	}
	return w, out
}

func TestHealthz(t *testing.T) {
	w, out := doJSON(t, newTestServer(), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("healthz = %d %v", w.Code, out)
	}
}

func TestNormalizeTextMode(t *testing.T) {
	body := `{"mode":"text","current_date":"2026-02-12","text":"客户买 hc2610 看涨 平值 1000吨"}`
	w, out := doJSON(t, newTestServer(), http.MethodPost, "/api/v1/normalize", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, out)
	}
	if out["contract_code"] != "HC2610" {
		t.Errorf("contract_code = %v", out["contract_code"])
	}
	if out["call_put"] != float64(1) {
		t.Errorf("call_put = %v", out["call_put"])
	}
	if out["buy_sell"] != float64(1) {
		t.Errorf("buy_sell = %v", out["buy_sell"])
	}
	if out["strike_offset"] != float64(0) {
		t.Errorf("strike_offset = %v", out["strike_offset"])
	}
	// 严格模式：未知字段以显式 null 出现。
	if v, present := out["strike"]; !present || v != nil {
		t.Errorf("strike = %v (present=%v)", v, present)
	}
}

func TestNormalizePartsMode(t *testing.T) {
	body := `{"mode":"parts","current_date":"2026-02-12","parts":{"product_code":"hc","contract_month":1,"strike":3300}}`
	w, out := doJSON(t, newTestServer(), http.MethodPost, "/api/v1/normalize", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, out)
	}
	if out["contract_code"] != "HC2701" {
		t.Errorf("contract_code = %v", out["contract_code"])
	}
	if out["strike"] != float64(3300) {
		t.Errorf("strike = %v", out["strike"])
	}
}

func TestNormalizePartsModeContractViolation(t *testing.T) {
	body := `{"mode":"parts","parts":{"product_code":"hc","contract_month":13}}`
	w, _ := doJSON(t, newTestServer(), http.MethodPost, "/api/v1/normalize", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", w.Code)
	}
}

func TestNormalizeBadInput(t *testing.T) {
	s := newTestServer()
	cases := []struct {
		name string
		body string
	}{
		{"非法 mode", `{"mode":"magic","text":"x"}`},
		{"text 模式缺文本", `{"mode":"text"}`},
		{"非法日期", `{"mode":"text","text":"x","current_date":"12/02/2026"}`},
		{"坏 JSON", `{"mode":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := doJSON(t, s, http.MethodPost, "/api/v1/normalize", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d", w.Code)
			}
		})
	}
}

func TestProductsEndpoint(t *testing.T) {
	w, out := doJSON(t, newTestServer(), http.MethodGet, "/api/v1/products?q=%E7%83%AD%E5%8D%B7&top_k=3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %v", w.Code, out)
	}
	cands, ok := out["candidates"].([]any)
	if !ok || len(cands) == 0 {
		t.Fatalf("candidates = %v", out["candidates"])
	}
	top, _ := cands[0].(map[string]any)
	if top["product_code"] != "HC" {
		t.Errorf("top = %v", top)
	}
	if len(cands) > 3 {
		t.Errorf("top_k 未生效: %d", len(cands))
	}
}

func TestProductsEndpointValidation(t *testing.T) {
	s := newTestServer()
	if w, _ := doJSON(t, s, http.MethodGet, "/api/v1/products", ""); w.Code != http.StatusBadRequest {
		t.Errorf("缺 q: status = %d", w.Code)
	}
	if w, _ := doJSON(t, s, http.MethodGet, "/api/v1/products?q=hc&top_k=0", ""); w.Code != http.StatusBadRequest {
		t.Errorf("top_k=0: status = %d", w.Code)
	}
}

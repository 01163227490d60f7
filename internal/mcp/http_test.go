package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/tools"
)

func testHTTPServer(t *testing.T) *HTTPServer {
	t.Helper()
	client := graph.NewClient("http://localhost:0", time.Second)
	registry := tools.NewRegistry(client, tools.VariantHTTP)
	return NewHTTPServer(NewDispatcher(registry), client.BaseURL())
}

func TestHTTP_RPCRoundTrip(t *testing.T) {
	srv := testHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize"}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("CORS origin = %q", origin)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}
}

func TestHTTP_ParseError(t *testing.T) {
	srv := testHTTPServer(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Errorf("resp = %+v, want -32700", resp)
	}
}

func TestHTTP_Preflight(t *testing.T) {
	srv := testHTTPServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if methods := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(methods, "POST") {
		t.Errorf("allow-methods = %q", methods)
	}
}

func TestHTTP_Status(t *testing.T) {
	srv := testHTTPServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["protocolVersion"] != "2024-11-05" {
		t.Errorf("body = %v", body)
	}
	if toolNames, ok := body["tools"].([]any); !ok || len(toolNames) == 0 {
		t.Errorf("tools = %v", body["tools"])
	}
	if lastErr, ok := body["last_error"]; !ok || lastErr != "" {
		t.Errorf("last_error = %v, want empty string", lastErr)
	}
	if _, ok := body["target_base_url"]; !ok {
		t.Errorf("missing target_base_url in %v", body)
	}
}

func TestHTTP_StatusReportsLastError(t *testing.T) {
	srv := testHTTPServer(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	lastErr, _ := body["last_error"].(string)
	if !strings.Contains(lastErr, "parse error") {
		t.Errorf("last_error = %q, want parse error", lastErr)
	}
}

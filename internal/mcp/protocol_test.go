package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/tools"
)

func testDispatcher(t *testing.T, handler http.HandlerFunc) (*Dispatcher, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := graph.NewClient(srv.URL, 5*time.Second)
	registry := tools.NewRegistry(client, tools.VariantStdio)
	return NewDispatcher(registry), srv.Close
}

func rawRequest(t *testing.T, method string, params any) *Request {
	t.Helper()
	req := &Request{JSONRPC: "2.0", ID: float64(1), Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		req.Params = data
	}
	return req
}

func TestDispatcher_Initialize(t *testing.T) {
	d, done := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {})
	defer done()

	resp := d.Handle(context.Background(), rawRequest(t, "initialize", nil))
	if resp == nil || resp.Error != nil {
		t.Fatalf("resp = %+v", resp)
	}

	result := resp.Result.(InitializeResult)
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("ProtocolVersion = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "rah-mcp" {
		t.Errorf("ServerInfo = %+v", result.ServerInfo)
	}
	if result.Capabilities.Tools == nil {
		t.Error("tools capability should be advertised")
	}
}

func TestDispatcher_ToolsList(t *testing.T) {
	d, done := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {})
	defer done()

	resp := d.Handle(context.Background(), rawRequest(t, "tools/list", nil))
	result := resp.Result.(ListToolsResult)

	if len(result.Tools) != 17 {
		t.Fatalf("tools = %d, want 17", len(result.Tools))
	}
	for _, tool := range result.Tools {
		if tool.Name == "" || tool.InputSchema == nil {
			t.Errorf("tool %+v missing name or schema", tool)
		}
	}
}

func TestDispatcher_ToolsCall(t *testing.T) {
	d, done := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": 5, "title": "hello", "dimensions": []string{"x", "y"}},
		})
	})
	defer done()

	resp := d.Handle(context.Background(), rawRequest(t, "tools/call", CallToolParams{
		Name: "rah_add_node",
		Arguments: map[string]any{
			"title":      "hello",
			"dimensions": []any{"x", "X", "y"},
		},
	}))
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}

	result := resp.Result.(CallToolResult)
	if result.IsError {
		t.Fatalf("IsError set: %+v", result)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" ||
		result.Content[0].Text != "Added node 5: hello" {
		t.Errorf("Content = %+v", result.Content)
	}
	if result.StructuredContent["id"] != int64(5) {
		t.Errorf("StructuredContent = %+v", result.StructuredContent)
	}
}

func TestDispatcher_ToolsCallValidationError(t *testing.T) {
	d, done := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the graph")
	})
	defer done()

	// Missing required title surfaces as an invalid-params RPC error.
	resp := d.Handle(context.Background(), rawRequest(t, "tools/call", CallToolParams{
		Name:      "rah_add_node",
		Arguments: map[string]any{},
	}))
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("resp = %+v, want -32602", resp)
	}
}

func TestDispatcher_ToolsCallUpstreamError(t *testing.T) {
	d, done := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"error":"graph offline"}`, http.StatusBadGateway)
	})
	defer done()

	// Upstream failures come back as error tool results, not RPC errors.
	resp := d.Handle(context.Background(), rawRequest(t, "tools/call", CallToolParams{
		Name:      "rah_add_node",
		Arguments: map[string]any{"title": "x"},
	}))
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}
	result := resp.Result.(CallToolResult)
	if !result.IsError {
		t.Fatal("IsError should be set")
	}
	if result.Content[0].Text != "Error: graph offline" {
		t.Errorf("Content = %+v", result.Content)
	}
}

func TestDispatcher_UnknownMethod(t *testing.T) {
	d, done := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {})
	defer done()

	resp := d.Handle(context.Background(), rawRequest(t, "resources/list", nil))
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Errorf("resp = %+v, want -32601", resp)
	}
}

func TestDispatcher_NotificationHasNoResponse(t *testing.T) {
	d, done := testDispatcher(t, func(w http.ResponseWriter, r *http.Request) {})
	defer done()

	if resp := d.Handle(context.Background(), rawRequest(t, "notifications/initialized", nil)); resp != nil {
		t.Errorf("notification produced a response: %+v", resp)
	}
}

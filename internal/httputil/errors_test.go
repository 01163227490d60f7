package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "trace_123", http.StatusBadRequest, "invalid request", "missing field")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	if tid := w.Header().Get("X-Trace-ID"); tid != "trace_123" {
		t.Errorf("expected X-Trace-ID trace_123, got %s", tid)
	}

	var resp ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Error != "invalid request" {
		t.Errorf("expected error 'invalid request', got %q", resp.Error)
	}
	if resp.Details != "missing field" {
		t.Errorf("expected details 'missing field', got %q", resp.Details)
	}
	if resp.TraceID != "trace_123" {
		t.Errorf("expected trace_id 'trace_123', got %q", resp.TraceID)
	}
}

func TestWriteInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalError(w, "trace_456", "something broke")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	var resp ErrorBody
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Details != "check server logs" {
		t.Errorf("expected details 'check server logs', got %q", resp.Details)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})

	if w.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["status"] != "queued" {
		t.Errorf("expected status 'queued', got %q", body["status"])
	}
}

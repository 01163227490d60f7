package chat

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rah-labs/rah-core/internal/config"
	"github.com/rah-labs/rah-core/internal/delegation"
	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/provider"
	"github.com/rah-labs/rah-core/internal/telemetry"
	"github.com/rah-labs/rah-core/internal/tools"
	"github.com/rah-labs/rah-core/internal/usagestore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHandler(t *testing.T) *Handler {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rahd.yaml"), []byte("server:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	loader := config.NewLoader(dir, testLogger())
	if err := loader.Load(); err != nil {
		t.Fatalf("loader: %v", err)
	}

	client := graph.NewClient("http://localhost:0", time.Second)
	return NewHandler(
		loader,
		provider.NewResolver(time.Second),
		tools.NewRegistry(client, tools.VariantHTTP),
		nil,
		sharedMetrics(),
		telemetry.NewCacheStatsRecorder(sharedMetrics(), false),
		usagestore.NewStore(nil),
		delegation.NewStore(nil),
	)
}

func TestChat_InvalidBody(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/rah/v1/chat", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == nil {
		t.Errorf("body = %v, want error field", body)
	}
}

func TestChat_NoForwardableMessages(t *testing.T) {
	h := testHandler(t)

	// Only a dropped role: nothing forwardable remains.
	payload := `{"messages":[{"role":"tool","content":"x"}]}`
	req := httptest.NewRequest(http.MethodPost, "/rah/v1/chat", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestChat_MissingCredentialIs500(t *testing.T) {
	for _, env := range []string{
		"RAH_ORCHESTRATOR_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY",
		"RAH_DELEGATE_OPENAI_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(env, "")
	}

	h := testHandler(t)

	payload := `{"messages":[{"role":"user","content":"hi"}],"mode":"hard"}`
	req := httptest.NewRequest(http.MethodPost, "/rah/v1/chat", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == nil || body["details"] == nil {
		t.Errorf("body = %v, want error and details", body)
	}
}

func TestDelegation_NotFoundWithoutRedis(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/rah/v1/delegations/dg-1", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRecentUsage_EmptyWithoutDatabase(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/rah/v1/usage/recent?limit=5", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["usage"]; !ok {
		t.Errorf("body = %v, want usage key", body)
	}
}

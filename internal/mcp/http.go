package mcp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rah-labs/rah-core/internal/httputil"
)

const maxRequestBytes = 4 << 20

// HTTPServer exposes the MCP dispatcher as a streamable-HTTP endpoint for
// clients that speak MCP over POST rather than stdio.
type HTTPServer struct {
	dispatcher *Dispatcher
	targetURL  string
	started    time.Time

	mu        sync.Mutex
	lastError string
}

func NewHTTPServer(dispatcher *Dispatcher, targetURL string) *HTTPServer {
	return &HTTPServer{dispatcher: dispatcher, targetURL: targetURL, started: time.Now()}
}

func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsOpen)

	r.Post("/mcp", s.handleRPC)
	r.Get("/status", s.handleStatus)
	return r
}

// corsOpen allows any origin. The bridge binds to localhost and the desktop
// app connects from an app:// or file:// origin, so a permissive policy is
// required for the handshake to work at all.
func corsOpen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) recordError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// LastError returns the most recent RPC or dispatch failure, empty when the
// bridge has been healthy.
func (s *HTTPServer) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.recordError("failed to read request body: " + err.Error())
		httputil.WriteBadRequest(w, middleware.GetReqID(r.Context()), "failed to read request body")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.recordError("parse error: " + err.Error())
		httputil.WriteJSON(w, http.StatusOK, Response{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: codeParseError, Message: "Parse error"},
		})
		return
	}

	slog.Debug("mcp request", "method", req.Method, "id", req.ID)

	resp := s.dispatcher.Handle(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if resp.Error != nil {
		s.recordError(resp.Error.Message)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"server":          serverName,
		"version":         serverVersion,
		"protocolVersion": protocolVersion,
		"target_base_url": s.targetURL,
		"last_error":      s.LastError(),
		"uptime_seconds":  int64(time.Since(s.started).Seconds()),
		"tools":           s.dispatcher.registry.Names(),
	})
}

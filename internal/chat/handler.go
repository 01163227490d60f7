package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rah-labs/rah-core/internal/config"
	"github.com/rah-labs/rah-core/internal/delegation"
	"github.com/rah-labs/rah-core/internal/httputil"
	"github.com/rah-labs/rah-core/internal/prompt"
	"github.com/rah-labs/rah-core/internal/provider"
	"github.com/rah-labs/rah-core/internal/telemetry"
	"github.com/rah-labs/rah-core/internal/toolpolicy"
	"github.com/rah-labs/rah-core/internal/tools"
	"github.com/rah-labs/rah-core/internal/types"
	"github.com/rah-labs/rah-core/internal/usage"
	"github.com/rah-labs/rah-core/internal/usagestore"
)

const maxChatBodyBytes = 8 << 20

// Handler serves the chat API: the streaming orchestrator endpoint plus the
// read-only delegation and usage endpoints.
type Handler struct {
	loader      *config.Loader
	resolver    *provider.Resolver
	registry    *tools.Registry
	policy      *toolpolicy.Evaluator
	metrics     *telemetry.Metrics
	cacheStats  *telemetry.CacheStatsRecorder
	usageStore  *usagestore.Store
	delegations *delegation.Store
}

func NewHandler(
	loader *config.Loader,
	resolver *provider.Resolver,
	registry *tools.Registry,
	policy *toolpolicy.Evaluator,
	metrics *telemetry.Metrics,
	cacheStats *telemetry.CacheStatsRecorder,
	usageStore *usagestore.Store,
	delegations *delegation.Store,
) *Handler {
	return &Handler{
		loader:      loader,
		resolver:    resolver,
		registry:    registry,
		policy:      policy,
		metrics:     metrics,
		cacheStats:  cacheStats,
		usageStore:  usageStore,
		delegations: delegations,
	}
}

// Routes mounts the chat API under /rah/v1.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/rah/v1", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/delegations/{id}", h.Delegation)
		r.Get("/usage/recent", h.RecentUsage)
	})
	return r
}

// Chat is POST /rah/v1/chat. Every failure before the stream opens returns a
// JSON 500 {error, details}; once SSE headers are written, errors ride the
// error event.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req types.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err := dec.Decode(&req); err != nil {
		httputil.WriteInternalError(w, middleware.GetReqID(r.Context()), "invalid request body")
		return
	}

	traceID := req.TraceID
	if traceID == "" {
		traceID = middleware.GetReqID(r.Context())
	}
	mode := types.NormalizeMode(req.Mode)

	messages := types.FilterMessages(req.Messages)
	if len(messages) == 0 {
		httputil.WriteInternalError(w, traceID, "at least one message is required")
		return
	}

	ctx := r.Context()
	ctx = WithTraceID(ctx, traceID)
	ctx = WithSessionID(ctx, req.SessionID)
	ctx = WithMode(ctx, mode)
	ctx = WithAPIKeys(ctx, req.APIKeys)

	agent, err := h.loader.Agents().Agent(string(mode))
	if err != nil {
		slog.Error("agent lookup failed", "trace_id", traceID, "mode", mode, "error", err)
		httputil.WriteInternalError(w, traceID, err.Error())
		return
	}

	client, err := h.resolver.Resolve(agent.Model, APIKeysFrom(ctx))
	if err != nil {
		slog.Error("model resolution failed", "trace_id", traceID, "model", agent.Model, "error", err)
		httputil.WriteInternalError(w, traceID, err.Error())
		return
	}

	maxSteps := agent.MaxSteps
	if maxSteps <= 0 {
		maxSteps = h.loader.Config().Chat.MaxSteps
	}

	turns := make([]provider.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, provider.Turn{Role: m.Role, Content: m.Content})
	}

	preq := &provider.Request{
		SystemBlocks:    prompt.Assemble(agent.HelperKey, req.OpenTabs, req.ActiveTabID, req.CurrentView),
		Turns:           turns,
		Tools:           h.toolDefs(agent.Tools),
		MaxTokens:       8192,
		ReasoningEffort: agent.ReasoningEffort,
	}

	slog.Info("chat turn started",
		"trace_id", traceID, "session_id", req.SessionID,
		"mode", mode, "model", agent.Model, "messages", len(messages))

	ew, err := newEventWriter(w, traceID)
	if err != nil {
		httputil.WriteInternalError(w, traceID, err.Error())
		return
	}

	sess := &session{
		client:    client,
		registry:  h.registry,
		policy:    h.policy,
		metrics:   h.metrics,
		mode:      string(mode),
		helperKey: agent.HelperKey,
		traceID:   traceID,
		maxSteps:  maxSteps,
	}

	out, runErr := sess.run(ctx, preq, ew)
	if runErr != nil {
		slog.Error("chat session failed", "trace_id", traceID, "error", runErr)
		ew.sendError(runErr.Error())
	}

	h.finish(ctx, ew, client, out, start, runErr)
}

// finish aggregates usage, records telemetry and persists the usage row, then
// emits the finish event. Trace id, session id and mode ride the context set
// by Chat. Telemetry failures are logged, never surfaced.
func (h *Handler) finish(
	ctx context.Context,
	ew *eventWriter,
	client provider.Client,
	out *outcome,
	start time.Time,
	runErr error,
) {
	traceID := TraceIDFrom(ctx)
	sessionID := SessionIDFrom(ctx)
	mode := ModeFrom(ctx)

	totals := usage.AggregateConversation(out.Steps)
	pricing := h.loader.Pricing().Table()
	cost := usage.EstimateCost(totals, pricing.Lookup(client.Model()))

	var savingsPct float64
	cacheHit := totals.CacheRead > 0
	if client.Provider() == "anthropic" {
		stats := usage.ComputeCacheStats(totals)
		savingsPct = stats.SavingsPercentage
		h.cacheStats.Record(client.Model(), stats)
	}

	status := "ok"
	if runErr != nil {
		status = "error"
	}

	if !totals.IsZero() {
		data := types.UsageData{
			TraceID:          traceID,
			SessionID:        sessionID,
			Mode:             string(mode),
			Provider:         client.Provider(),
			ModelUsed:        client.Model(),
			Tokens:           totals,
			CacheHit:         cacheHit,
			CacheSavingsPct:  savingsPct,
			EstimatedCostUSD: cost,
			TotalTokens:      usage.TotalTokens(totals),
			ToolsUsed:        out.ToolsUsed,
			ToolCallsCount:   out.ToolCalls,
			CompletedAt:      time.Now().UTC(),
		}

		if sessionID != "" {
			if rec, err := h.delegations.Active(ctx, sessionID); err == nil && rec != nil {
				data.WorkflowID = rec.ID
				data.WorkflowStatus = string(rec.Status)
			}
		}

		if err := h.usageStore.Insert(ctx, data); err != nil {
			slog.Error("usage insert failed", "trace_id", traceID, "error", err)
		}
	}

	h.metrics.RecordRequest(telemetry.RequestLabels{
		Mode:             string(mode),
		Provider:         client.Provider(),
		Model:            client.Model(),
		Status:           status,
		DurationMs:       float64(time.Since(start).Milliseconds()),
		Steps:            out.StepCount,
		InputTokens:      totals.Input,
		OutputTokens:     totals.Output,
		CacheWriteTokens: totals.CacheWrite,
		CacheReadTokens:  totals.CacheRead,
		CostUSD:          cost,
	})

	slog.Info("chat turn finished",
		"trace_id", traceID, "status", status, "steps", out.StepCount,
		"stop_reason", out.StopReason, "tool_calls", out.ToolCalls,
		"total_tokens", usage.TotalTokens(totals), "cost_usd", cost,
		"duration_ms", time.Since(start).Milliseconds())

	ew.send("finish", map[string]any{
		"stopReason":      out.StopReason,
		"steps":           out.StepCount,
		"usage":           totals,
		"totalTokens":     usage.TotalTokens(totals),
		"costUsd":         cost,
		"cacheSavingsPct": savingsPct,
		"toolsUsed":       out.ToolsUsed,
	})
}

// toolDefs converts the registry's tool set into provider declarations,
// filtered to the agent's allow list when one is configured.
func (h *Handler) toolDefs(allowed []string) []provider.ToolDef {
	var allow map[string]bool
	if len(allowed) > 0 {
		allow = make(map[string]bool, len(allowed))
		for _, name := range allowed {
			allow[name] = true
		}
	}

	defs := make([]provider.ToolDef, 0)
	for _, t := range h.registry.List() {
		if allow != nil && !allow[t.Name] {
			continue
		}
		defs = append(defs, provider.ToolDef{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return defs
}

// Delegation is GET /rah/v1/delegations/{id}.
func (h *Handler) Delegation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	traceID := middleware.GetReqID(r.Context())

	rec, err := h.delegations.Get(r.Context(), id)
	if err != nil {
		slog.Error("delegation lookup failed", "id", id, "error", err)
		httputil.WriteInternalError(w, traceID, "delegation lookup failed")
		return
	}
	if rec == nil {
		httputil.WriteNotFound(w, traceID, "delegation not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// RecentUsage is GET /rah/v1/usage/recent?limit=N.
func (h *Handler) RecentUsage(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetReqID(r.Context())

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	rows, err := h.usageStore.Recent(r.Context(), limit)
	if err != nil {
		slog.Error("usage query failed", "error", err)
		httputil.WriteInternalError(w, traceID, "usage query failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"usage": rows})
}

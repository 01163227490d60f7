package types

import "time"

// Tokens is the canonical per-step token tuple. All counts are non-negative.
type Tokens struct {
	Input      int64 `json:"input"`
	Output     int64 `json:"output"`
	CacheWrite int64 `json:"cacheWrite"`
	CacheRead  int64 `json:"cacheRead"`
}

// IsZero reports whether every count is zero.
func (t Tokens) IsZero() bool {
	return t.Input == 0 && t.Output == 0 && t.CacheWrite == 0 && t.CacheRead == 0
}

// Add merges another tuple into this one across steps. Cache-write
// intentionally takes the maximum: a prompt cache is written at most once per
// conversation, and some providers echo the write on every step.
func (t *Tokens) Add(o Tokens) {
	t.Input += o.Input
	t.Output += o.Output
	t.CacheRead += o.CacheRead
	if o.CacheWrite > t.CacheWrite {
		t.CacheWrite = o.CacheWrite
	}
}

// Sum adds another tuple on every axis, cache-write included. Used within a
// single step, where multiple request entries each bill their own cache write.
func (t *Tokens) Sum(o Tokens) {
	t.Input += o.Input
	t.Output += o.Output
	t.CacheRead += o.CacheRead
	t.CacheWrite += o.CacheWrite
}

// CacheStats is an ephemeral per-response diagnostic for prompt caching.
type CacheStats struct {
	CacheCreationInputTokens int64     `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64     `json:"cache_read_input_tokens"`
	InputTokens              int64     `json:"input_tokens"`
	OutputTokens             int64     `json:"output_tokens"`
	SavingsPercentage        float64   `json:"savings_percentage"`
	RecordedAt               time.Time `json:"recorded_at"`
}

// UsageData is the persisted telemetry record for one completed chat turn.
type UsageData struct {
	TraceID          string    `json:"trace_id"`
	SessionID        string    `json:"session_id,omitempty"`
	Mode             string    `json:"mode"`
	Provider         string    `json:"provider"`
	ModelUsed        string    `json:"model_used"`
	Tokens           Tokens    `json:"tokens"`
	CacheHit         bool      `json:"cache_hit"`
	CacheSavingsPct  float64   `json:"cache_savings_pct"`
	EstimatedCostUSD float64   `json:"estimated_cost_usd"`
	TotalTokens      int64     `json:"total_tokens"`
	ToolsUsed        []string  `json:"tools_used"`
	ToolCallsCount   int       `json:"tool_calls_count"`
	WorkflowID       string    `json:"workflow_id,omitempty"`
	WorkflowStatus   string    `json:"workflow_status,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

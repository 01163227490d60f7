package telemetry

import (
	"log/slog"
	"sync"

	"github.com/rah-labs/rah-core/internal/types"
)

// CacheStatsRecorder keeps the most recent prompt-cache diagnostic. It is a
// single-writer-owned replacement for the ambient global the product used to
// carry: last-writer-wins under concurrent requests, best-effort telemetry
// only, never correctness-bearing.
type CacheStatsRecorder struct {
	mu      sync.RWMutex
	last    *types.CacheStats
	metrics *Metrics
	debug   bool
}

func NewCacheStatsRecorder(metrics *Metrics, debug bool) *CacheStatsRecorder {
	return &CacheStatsRecorder{metrics: metrics, debug: debug}
}

// Record stores the stats, exports the savings gauge, and logs them when
// cache debugging is on. The log rides Info level so enabling DEBUG_CACHE
// produces output regardless of the configured log level.
func (r *CacheStatsRecorder) Record(model string, stats types.CacheStats) {
	r.mu.Lock()
	r.last = &stats
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.CacheSavingsPct.WithLabelValues(model).Set(stats.SavingsPercentage)
	}

	if r.debug {
		slog.Info("prompt cache stats",
			"model", model,
			"cache_creation_input_tokens", stats.CacheCreationInputTokens,
			"cache_read_input_tokens", stats.CacheReadInputTokens,
			"input_tokens", stats.InputTokens,
			"output_tokens", stats.OutputTokens,
			"savings_pct", stats.SavingsPercentage,
		)
	}
}

// Last returns the most recently recorded stats, or nil when none yet.
func (r *CacheStatsRecorder) Last() *types.CacheStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil
	}
	copy := *r.last
	return &copy
}

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the RA-H core service.
type Metrics struct {
	RequestTotal      *prometheus.CounterVec
	RequestDurationMs *prometheus.HistogramVec
	TokensTotal       *prometheus.CounterVec
	CostUSDTotal      *prometheus.CounterVec
	ToolCallsTotal    *prometheus.CounterVec
	StepsPerChat      *prometheus.HistogramVec
	CacheSavingsPct   *prometheus.GaugeVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rah_chat_request_total",
			Help: "Total chat requests processed.",
		}, []string{"mode", "provider", "model", "status"}),

		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rah_chat_request_duration_ms",
			Help:    "Chat request duration in milliseconds, provider time included.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		}, []string{"mode", "provider"}),

		TokensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rah_tokens_total",
			Help: "Total tokens processed by direction.",
		}, []string{"mode", "model", "direction"}),

		CostUSDTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rah_cost_usd_total",
			Help: "Estimated total spend in USD.",
		}, []string{"mode", "provider", "model"}),

		ToolCallsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rah_tool_calls_total",
			Help: "Tool invocations made by the orchestrator.",
		}, []string{"tool", "status"}),

		StepsPerChat: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rah_chat_steps",
			Help:    "Model turns per chat request.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		}, []string{"mode"}),

		CacheSavingsPct: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rah_cache_savings_pct",
			Help: "Prompt-cache savings percentage of the most recent response.",
		}, []string{"model"}),
	}
}

// RequestLabels holds the label values for recording a completed chat turn.
type RequestLabels struct {
	Mode             string
	Provider         string
	Model            string
	Status           string
	DurationMs       float64
	Steps            int
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
	CostUSD          float64
}

// RecordRequest records metrics for a completed chat request.
func (m *Metrics) RecordRequest(labels RequestLabels) {
	m.RequestTotal.WithLabelValues(labels.Mode, labels.Provider, labels.Model, labels.Status).Inc()
	m.RequestDurationMs.WithLabelValues(labels.Mode, labels.Provider).Observe(labels.DurationMs)
	m.StepsPerChat.WithLabelValues(labels.Mode).Observe(float64(labels.Steps))

	directions := []struct {
		name  string
		count int64
	}{
		{"input", labels.InputTokens},
		{"output", labels.OutputTokens},
		{"cache_write", labels.CacheWriteTokens},
		{"cache_read", labels.CacheReadTokens},
	}
	for _, d := range directions {
		if d.count > 0 {
			m.TokensTotal.WithLabelValues(labels.Mode, labels.Model, d.name).Add(float64(d.count))
		}
	}

	if labels.CostUSD > 0 {
		m.CostUSDTotal.WithLabelValues(labels.Mode, labels.Provider, labels.Model).Add(labels.CostUSD)
	}
}

// RecordToolCall records one tool invocation.
func (m *Metrics) RecordToolCall(tool string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

package usage

import (
	"strings"
	"time"

	"github.com/rah-labs/rah-core/internal/types"
)

// ModelPricing holds per-token USD rates (not per million).
type ModelPricing struct {
	InputCostPerToken      float64 `yaml:"input"`
	OutputCostPerToken     float64 `yaml:"output"`
	CacheWriteCostPerToken float64 `yaml:"cache_write"`
	CacheReadCostPerToken  float64 `yaml:"cache_read"`
}

// CostTable maps resolved model ids to pricing.
type CostTable map[string]ModelPricing

// DefaultPricing returns the embedded fallback table. A pricing.yaml entry
// with the same model id overrides it.
func DefaultPricing() CostTable {
	return CostTable{
		"claude-sonnet-4-5-20250929": {3e-06, 1.5e-05, 3.75e-06, 3e-07},
		"claude-opus-4-1-20250805":   {1.5e-05, 7.5e-05, 1.875e-05, 1.5e-06},
		"claude-haiku-4-5-20251001":  {1e-06, 5e-06, 1.25e-06, 1e-07},
		"claude-3-5-sonnet-20241022": {3e-06, 1.5e-05, 3.75e-06, 3e-07},
		"claude-3-5-haiku-20241022":  {8e-07, 4e-06, 1e-06, 8e-08},
		"claude-3-opus-20240229":     {1.5e-05, 7.5e-05, 1.875e-05, 1.5e-06},
		"gpt-4o":                     {2.5e-06, 1e-05, 0, 1.25e-06},
		"gpt-4o-mini":                {1.5e-07, 6e-07, 0, 7.5e-08},
		"gpt-4.1":                    {2e-06, 8e-06, 0, 5e-07},
		"o4-mini":                    {1.1e-06, 4.4e-06, 0, 2.75e-07},
	}
}

// Lookup resolves pricing for a model id: exact match first, then a
// normalized match (case/dash/underscore-insensitive), then a conservative
// mid-tier default.
func (t CostTable) Lookup(model string) ModelPricing {
	if p, ok := t[model]; ok {
		return p
	}
	want := normalizeModelName(model)
	for name, p := range t {
		if normalizeModelName(name) == want {
			return p
		}
	}
	return ModelPricing{3e-06, 1.5e-05, 3.75e-06, 3e-07}
}

func normalizeModelName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	name = strings.ReplaceAll(name, ".", "")
	return name
}

// EstimateCost converts aggregated tokens into a USD estimate.
func EstimateCost(tokens types.Tokens, pricing ModelPricing) float64 {
	cost := float64(tokens.Input) * pricing.InputCostPerToken
	cost += float64(tokens.Output) * pricing.OutputCostPerToken
	cost += float64(tokens.CacheWrite) * pricing.CacheWriteCostPerToken
	cost += float64(tokens.CacheRead) * pricing.CacheReadCostPerToken
	return cost
}

// TotalTokens is the all-axes token count recorded alongside cost.
func TotalTokens(tokens types.Tokens) int64 {
	return tokens.Input + tokens.Output + tokens.CacheWrite + tokens.CacheRead
}

// ComputeCacheStats derives the prompt-cache diagnostic for one response.
// Cache reads bill at roughly a tenth of the base input rate, so the savings
// percentage is the discounted share of all prompt-side tokens.
func ComputeCacheStats(tokens types.Tokens) types.CacheStats {
	promptSide := tokens.Input + tokens.CacheWrite + tokens.CacheRead
	var savings float64
	if promptSide > 0 {
		savings = 100 * 0.9 * float64(tokens.CacheRead) / float64(promptSide)
	}
	return types.CacheStats{
		CacheCreationInputTokens: tokens.CacheWrite,
		CacheReadInputTokens:     tokens.CacheRead,
		InputTokens:              tokens.Input,
		OutputTokens:             tokens.Output,
		SavingsPercentage:        savings,
		RecordedAt:               time.Now(),
	}
}

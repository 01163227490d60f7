package usage

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/rah-labs/rah-core/internal/types"
)

func TestNormalize_AliasChains(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want types.Tokens
	}{
		{
			name: "camelCase openai style",
			raw: map[string]any{
				"promptTokens":      float64(120),
				"completionTokens":  float64(45),
				"cachedInputTokens": float64(100),
			},
			want: types.Tokens{Input: 120, Output: 45, CacheRead: 100},
		},
		{
			name: "snake_case anthropic style",
			raw: map[string]any{
				"input_tokens":                float64(10),
				"output_tokens":               float64(20),
				"cache_creation_input_tokens": float64(500),
				"cache_read_input_tokens":     float64(30),
			},
			want: types.Tokens{Input: 10, Output: 20, CacheWrite: 500, CacheRead: 30},
		},
		{
			name: "first alias in chain wins",
			raw: map[string]any{
				"inputTokens":  float64(7),
				"promptTokens": float64(999),
				"input_tokens": float64(888),
			},
			want: types.Tokens{Input: 7},
		},
		{
			name: "non-numeric entry falls through to next alias",
			raw: map[string]any{
				"inputTokens":  "not a number",
				"promptTokens": float64(42),
			},
			want: types.Tokens{Input: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalize_Totality(t *testing.T) {
	// Every input produces a tuple, never a panic or error.
	tests := []struct {
		name string
		raw  map[string]any
		want types.Tokens
	}{
		{"nil map", nil, types.Tokens{}},
		{"empty map", map[string]any{}, types.Tokens{}},
		{"garbage values", map[string]any{
			"inputTokens":  []any{1, 2},
			"outputTokens": map[string]any{"x": 1},
		}, types.Tokens{}},
		{"NaN rejected", map[string]any{"inputTokens": math.NaN()}, types.Tokens{}},
		{"Inf rejected", map[string]any{"outputTokens": math.Inf(1)}, types.Tokens{}},
		{"negative clamped", map[string]any{"inputTokens": float64(-5)}, types.Tokens{}},
		{"numeric string coerced", map[string]any{"inputTokens": "37"}, types.Tokens{Input: 37}},
		{"json.Number coerced", map[string]any{"outputTokens": json.Number("64")}, types.Tokens{Output: 64}},
		{"int coerced", map[string]any{"inputTokens": 12}, types.Tokens{Input: 12}},
		{"int64 coerced", map[string]any{"inputTokens": int64(13)}, types.Tokens{Input: 13}},
		{"bool rejected", map[string]any{"inputTokens": true}, types.Tokens{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%v) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

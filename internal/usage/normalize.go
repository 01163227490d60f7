package usage

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/rah-labs/rah-core/internal/types"
)

// Field-alias chains, first present and numeric wins. Provider SDKs have
// shipped every one of these spellings at some point.
var (
	inputAliases      = []string{"inputTokens", "promptTokens", "input_tokens"}
	outputAliases     = []string{"outputTokens", "completionTokens", "output_tokens"}
	cacheWriteAliases = []string{"cacheCreationInputTokens", "cache_creation_input_tokens", "cacheWriteInputTokens", "cache_write_input_tokens"}
	cacheReadAliases  = []string{"cachedInputTokens", "cacheReadInputTokens", "cache_read_input_tokens"}
)

// Normalize extracts a canonical token tuple from a raw provider usage record.
// It is total: nil input, missing fields, string-typed numbers and outright
// garbage all come back as zeros, never an error.
func Normalize(raw map[string]any) types.Tokens {
	if raw == nil {
		return types.Tokens{}
	}
	return types.Tokens{
		Input:      firstNumeric(raw, inputAliases),
		Output:     firstNumeric(raw, outputAliases),
		CacheWrite: firstNumeric(raw, cacheWriteAliases),
		CacheRead:  firstNumeric(raw, cacheReadAliases),
	}
}

func firstNumeric(raw map[string]any, keys []string) int64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		if n, ok := coerce(v); ok {
			return n
		}
	}
	return 0
}

// coerce accepts finite native numbers and finite numeric strings.
func coerce(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return clamp(int64(n)), true
	case float32:
		return coerce(float64(n))
	case int:
		return clamp(int64(n)), true
	case int32:
		return clamp(int64(n)), true
	case int64:
		return clamp(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return coerce(f)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return coerce(f)
	default:
		return 0, false
	}
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

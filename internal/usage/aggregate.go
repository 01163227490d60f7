package usage

import "github.com/rah-labs/rah-core/internal/types"

// Step is one model turn of a multi-step tool-calling run, as reported by the
// provider: a top-level usage object plus an optional provider metadata blob.
type Step struct {
	Usage            map[string]any
	ProviderMetadata map[string]any
}

// AggregateStep extracts the token tuple for a single step.
//
// Anthropic metadata takes priority over the top-level usage object because
// the SDK surface has reported cache fields in three different places across
// versions:
//  1. metadata.anthropic.requests[]: normalize and sum every entry's usage;
//  2. metadata.anthropic.response.usage: normalize;
//  3. metadata.anthropic.usage: normalize, only if nothing accumulated yet;
//  4. the top-level usage object, when no metadata source yielded non-zero.
//
// OpenAI steps carry no anthropic metadata and fall straight through to (4).
func AggregateStep(step Step) types.Tokens {
	var total types.Tokens

	if anth := childMap(step.ProviderMetadata, "anthropic"); anth != nil {
		if reqs, ok := anth["requests"].([]any); ok && len(reqs) > 0 {
			for _, r := range reqs {
				entry, ok := r.(map[string]any)
				if !ok {
					continue
				}
				if u := childMap(entry, "usage"); u != nil {
					total.Sum(Normalize(u))
				} else {
					total.Sum(Normalize(entry))
				}
			}
		} else if u := childMap(childMap(anth, "response"), "usage"); u != nil {
			total.Add(Normalize(u))
		} else if u := childMap(anth, "usage"); u != nil && total.IsZero() {
			total.Add(Normalize(u))
		}
	}

	if total.IsZero() {
		total = Normalize(step.Usage)
	}
	return total
}

// AggregateConversation folds per-step tuples into conversation totals.
// Input, output and cache-read tokens sum; cache-write takes the maximum
// (see types.Tokens.Add). An empty slice yields zeros; callers with only a
// whole-response usage object pass it as a single step.
func AggregateConversation(steps []Step) types.Tokens {
	var total types.Tokens
	for _, s := range steps {
		total.Add(AggregateStep(s))
	}
	return total
}

func childMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

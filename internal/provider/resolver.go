package provider

import (
	"os"
	"strings"
	"time"

	"github.com/rah-labs/rah-core/internal/types"
)

const (
	envOrchestratorAnthropicKey = "RAH_ORCHESTRATOR_ANTHROPIC_API_KEY"
	envAnthropicKey             = "ANTHROPIC_API_KEY"
	envDelegateOpenAIKey        = "RAH_DELEGATE_OPENAI_API_KEY"
	envOpenAIKey                = "OPENAI_API_KEY"
)

// anthropicAliases maps short model names to canonical dated ids. Anthropic
// only; OpenAI model names pass through as-is.
var anthropicAliases = map[string]string{
	"claude-3-5-sonnet": "claude-3-5-sonnet-20241022",
	"claude-3-5-haiku":  "claude-3-5-haiku-20241022",
	"claude-3-opus":     "claude-3-opus-20240229",
	"claude-sonnet-4.5": "claude-sonnet-4-5-20250929",
	"claude-opus-4.1":   "claude-opus-4-1-20250805",
	"claude-haiku-4.5":  "claude-haiku-4-5-20251001",
}

// Resolver builds provider clients from logical model ids.
type Resolver struct {
	timeout time.Duration
	// lookupEnv is swappable for tests.
	lookupEnv func(string) (string, bool)
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{timeout: timeout, lookupEnv: os.LookupEnv}
}

// Resolve maps a "provider/model" id plus optional per-request key overrides
// to a configured client. No network call happens here.
func (r *Resolver) Resolve(modelID string, overrides types.APIKeyOverrides) (Client, error) {
	providerName, modelName, ok := strings.Cut(modelID, "/")
	if !ok || modelName == "" {
		return nil, &types.UnsupportedModelError{ModelID: modelID}
	}

	switch providerName {
	case "anthropic":
		if dated, ok := anthropicAliases[modelName]; ok {
			modelName = dated
		}
		key := r.resolveKey(overrides.AnthropicKey(), envOrchestratorAnthropicKey, envAnthropicKey)
		if key == "" {
			return nil, &types.MissingCredentialError{Provider: "anthropic", EnvVar: envAnthropicKey}
		}
		return newAnthropicClient(modelName, key, r.timeout), nil

	case "openai":
		key := r.resolveKey(overrides.OpenAIKey(), envDelegateOpenAIKey, envOpenAIKey)
		if key == "" {
			return nil, &types.MissingCredentialError{Provider: "openai", EnvVar: envOpenAIKey}
		}
		return newOpenAIClient(modelName, key, r.timeout), nil

	default:
		return nil, &types.UnsupportedModelError{ModelID: modelID}
	}
}

// resolveKey applies the priority order: explicit override, scoped env var,
// generic env var. Whitespace-only values are treated as absent.
func (r *Resolver) resolveKey(override string, envVars ...string) string {
	if override != "" {
		return override
	}
	for _, name := range envVars {
		if v, ok := r.lookupEnv(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

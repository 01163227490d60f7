package config

import (
	"github.com/rah-labs/rah-core/internal/types"
	"github.com/rah-labs/rah-core/internal/usage"
)

// AgentsConfig maps chat modes to orchestrator agent definitions (agents.yaml).
type AgentsConfig struct {
	Agents map[string]AgentConfig `yaml:"agents"`
}

// AgentConfig describes one orchestrator persona.
type AgentConfig struct {
	HelperKey       string   `yaml:"helper_key"`
	Model           string   `yaml:"model"`
	Tools           []string `yaml:"tools"`
	MaxSteps        int      `yaml:"max_steps"`
	ReasoningEffort string   `yaml:"reasoning_effort"`
}

// Agent returns the agent for a mode, or a ConfigurationError.
func (c *AgentsConfig) Agent(mode string) (AgentConfig, error) {
	if c != nil {
		if a, ok := c.Agents[mode]; ok {
			return a, nil
		}
	}
	return AgentConfig{}, &types.ConfigurationError{Mode: mode}
}

// DefaultAgents registers the two shipped personas: ra-h runs hard mode on
// Claude, ra-h-easy runs easy mode on GPT.
func DefaultAgents() *AgentsConfig {
	return &AgentsConfig{
		Agents: map[string]AgentConfig{
			"hard": {
				HelperKey:       "ra-h",
				Model:           "anthropic/claude-sonnet-4.5",
				MaxSteps:        10,
				ReasoningEffort: "",
			},
			"easy": {
				HelperKey:       "ra-h-easy",
				Model:           "openai/gpt-4o",
				MaxSteps:        10,
				ReasoningEffort: "low",
			},
		},
	}
}

// PricingConfig overlays embedded per-token pricing (pricing.yaml).
type PricingConfig struct {
	Pricing map[string]usage.ModelPricing `yaml:"pricing"`
}

// Table merges the overlay on top of the embedded defaults.
func (p *PricingConfig) Table() usage.CostTable {
	table := usage.DefaultPricing()
	if p == nil {
		return table
	}
	for model, entry := range p.Pricing {
		table[model] = entry
	}
	return table
}

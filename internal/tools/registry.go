package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/types"
)

// Variant selects which flavor of the tool surface a transport exposes. The
// two MCP transports historically shipped divergent edge schemas; both are
// preserved until product settles on one.
type Variant int

const (
	// VariantHTTP: explanation-required edges (relationship type inferred
	// server-side), no extraction tools.
	VariantHTTP Variant = iota
	// VariantStdio: explicit type/weight edges plus the extraction tools.
	VariantStdio
)

// Result is what every tool returns: a human-readable summary line and the
// structured output matching the tool's declared schema.
type Result struct {
	Summary    string
	Structured map[string]any
}

// Handler executes one validated tool call.
type Handler func(ctx context.Context, input map[string]any) (*Result, error)

// Tool is one declared tool: schemas for the wire, a handler for the work.
type Tool struct {
	Name         string
	Description  string
	InputSchema  map[string]any
	OutputSchema map[string]any
	Handler      Handler
}

// Registry holds the tool set for one transport, in declaration order.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry assembles the tool surface for a variant against a graph client.
func NewRegistry(client *graph.Client, variant Variant) *Registry {
	r := &Registry{tools: map[string]*Tool{}}
	registerNodeTools(r, client)
	registerEdgeTools(r, client, variant)
	registerDimensionTools(r, client)
	registerWorkflowTools(r, client)
	if variant == VariantStdio {
		registerExtractTools(r, client)
	}
	return r
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools in declaration order.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns the declared tool names in order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Call dispatches one tool invocation.
func (r *Registry) Call(ctx context.Context, name string, input map[string]any) (*Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, &types.ValidationError{Message: fmt.Sprintf("unknown tool: %s", name)}
	}
	return t.Handler(ctx, input)
}

const maxDimensions = 5

// SanitizeDimensions keeps non-empty trimmed strings, de-duplicates
// case-insensitively (first casing wins) and caps the result at five.
// Idempotent: sanitizing sanitized input is a no-op.
func SanitizeDimensions(raw []any) []string {
	out := make([]string, 0, maxDimensions)
	seen := map[string]bool{}
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == maxDimensions {
			break
		}
	}
	return out
}

// --- input accessors -------------------------------------------------------

func requireString(tool string, input map[string]any, key string) (string, error) {
	s, _ := input[key].(string)
	if strings.TrimSpace(s) == "" {
		return "", &types.ValidationError{Tool: tool, Message: key + " is required"}
	}
	return s, nil
}

func optString(input map[string]any, key string) (string, bool) {
	s, ok := input[key].(string)
	return s, ok && s != ""
}

func requireInt(tool string, input map[string]any, key string) (int64, error) {
	n, ok := asInt(input[key])
	if !ok {
		return 0, &types.ValidationError{Tool: tool, Message: key + " is required and must be a number"}
	}
	return n, nil
}

func optInt(input map[string]any, key string) (int64, bool) {
	return asInt(input[key])
}

func optFloat(input map[string]any, key string) (float64, bool) {
	switch n := input[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func anySlice(input map[string]any, key string) []any {
	s, _ := input[key].([]any)
	return s
}

// --- schema helpers --------------------------------------------------------

func schema(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func num(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func boolean(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

func strArray(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

func numArray(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "number"}, "description": desc}
}

package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Client is one resolved provider/model pair, ready to run model turns.
// Resolution never touches the network; the first call does.
type Client interface {
	Provider() string
	Model() string
	// Stream runs a single model turn, invoking onDelta for each text
	// fragment as it arrives, and returns the completed step.
	Stream(ctx context.Context, req *Request, onDelta func(text string)) (*StepResult, error)
}

// Request is the provider-neutral shape of one model turn.
type Request struct {
	SystemBlocks []SystemBlock
	Turns        []Turn
	Tools        []ToolDef
	MaxTokens    int
	// ReasoningEffort is an OpenAI-only hint; other providers ignore it.
	ReasoningEffort string
}

// SystemBlock is an ordered system-prompt segment. Cache is only meaningful
// for providers that support prompt caching; others concatenate the text.
type SystemBlock struct {
	Text  string
	Cache bool
}

// Turn is one conversation entry in provider-neutral form. Assistant turns
// may carry tool calls; role "tool" carries a result for a prior call.
type Turn struct {
	Role      string
	Content   string
	ToolCalls []ToolCall
	ToolID    string
}

// ToolCall is a provider-issued tool invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolDef declares a tool to the provider.
type ToolDef struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// StepResult is the outcome of one completed model turn. Usage and Metadata
// keep the provider's raw field names; the usage package normalizes them.
type StepResult struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	Usage      map[string]any
	Metadata   map[string]any
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

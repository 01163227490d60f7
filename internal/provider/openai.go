package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openAIBaseURL = "https://api.openai.com/v1"

// openAIClient speaks the OpenAI chat-completions API, streaming, with tools.
// No special caching headers: OpenAI manages prompt caching server-side.
type openAIClient struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func newOpenAIClient(model, apiKey string, timeout time.Duration) *openAIClient {
	return &openAIClient{
		model:   model,
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
		client:  newHTTPClient(timeout),
	}
}

func (c *openAIClient) Provider() string { return "openai" }
func (c *openAIClient) Model() string    { return c.model }

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAITool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type openAIRequestBody struct {
	Model           string          `json:"model"`
	Messages        []openAIMessage `json:"messages"`
	Tools           []openAITool    `json:"tools,omitempty"`
	MaxTokens       *int            `json:"max_completion_tokens,omitempty"`
	Stream          bool            `json:"stream"`
	StreamOptions   map[string]any  `json:"stream_options,omitempty"`
	ReasoningEffort string          `json:"reasoning_effort,omitempty"`
}

func (c *openAIClient) buildBody(req *Request) ([]byte, error) {
	body := openAIRequestBody{
		Model:           c.model,
		Stream:          true,
		StreamOptions:   map[string]any{"include_usage": true},
		ReasoningEffort: req.ReasoningEffort,
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = &req.MaxTokens
	}

	// System blocks concatenate into one leading system message; the cache
	// directive only means something to Anthropic and is dropped here.
	if len(req.SystemBlocks) > 0 {
		var sys strings.Builder
		for i, b := range req.SystemBlocks {
			if i > 0 {
				sys.WriteString("\n\n")
			}
			sys.WriteString(b.Text)
		}
		body.Messages = append(body.Messages, openAIMessage{Role: "system", Content: sys.String()})
	}

	for _, t := range req.Turns {
		msg := openAIMessage{Role: t.Role, Content: t.Content}
		if t.Role == "tool" {
			msg.ToolCallID = t.ToolID
		}
		for _, tc := range t.ToolCalls {
			call := openAIToolCall{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Name
			call.Function.Arguments = string(tc.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
		body.Messages = append(body.Messages, msg)
	}

	for _, t := range req.Tools {
		tool := openAITool{Type: "function"}
		tool.Function.Name = t.Name
		tool.Function.Description = t.Description
		tool.Function.Parameters = t.InputSchema
		body.Tools = append(body.Tools, tool)
	}

	return json.Marshal(body)
}

func (c *openAIClient) Stream(ctx context.Context, req *Request, onDelta func(string)) (*StepResult, error) {
	data, err := c.buildBody(req)
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(body))
	}

	return c.readStream(resp.Body, onDelta)
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens        int64 `json:"prompt_tokens"`
		CompletionTokens    int64 `json:"completion_tokens"`
		PromptTokensDetails struct {
			CachedTokens int64 `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
	} `json:"usage"`
}

func (c *openAIClient) readStream(body io.Reader, onDelta func(string)) (*StepResult, error) {
	result := &StepResult{}
	var text strings.Builder

	// Tool calls arrive as fragments keyed by index: first chunk carries the
	// id and name, later chunks append argument text.
	type partialCall struct {
		id   string
		name string
		args strings.Builder
	}
	calls := map[int]*partialCall{}
	order := []int{}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		var chunk openAIStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				text.WriteString(choice.Delta.Content)
				if onDelta != nil {
					onDelta(choice.Delta.Content)
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				pc, ok := calls[tc.Index]
				if !ok {
					pc = &partialCall{}
					calls[tc.Index] = pc
					order = append(order, tc.Index)
				}
				if tc.ID != "" {
					pc.id = tc.ID
				}
				if tc.Function.Name != "" {
					pc.name = tc.Function.Name
				}
				pc.args.WriteString(tc.Function.Arguments)
			}
			if choice.FinishReason != "" {
				result.StopReason = choice.FinishReason
			}
		}

		if chunk.Usage != nil {
			// Keep the SDK's camelCase spellings; the normalizer owns the
			// alias chains.
			result.Usage = map[string]any{
				"promptTokens":      chunk.Usage.PromptTokens,
				"completionTokens":  chunk.Usage.CompletionTokens,
				"cachedInputTokens": chunk.Usage.PromptTokensDetails.CachedTokens,
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read openai stream: %w", err)
	}

	for _, idx := range order {
		pc := calls[idx]
		args := pc.args.String()
		if args == "" {
			args = "{}"
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        pc.id,
			Name:      pc.name,
			Arguments: json.RawMessage(args),
		})
	}

	result.Text = text.String()
	return result, nil
}

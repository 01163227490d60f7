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

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	anthropicVersion    = "2023-06-01"
	anthropicCacheBeta  = "prompt-caching-2024-07-31"
	defaultMaxTokens    = 4096
)

// anthropicClient speaks the Anthropic Messages API, streaming, with tool use
// and prompt caching enabled via the beta header.
type anthropicClient struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func newAnthropicClient(model, apiKey string, timeout time.Duration) *anthropicClient {
	return &anthropicClient{
		model:   model,
		apiKey:  apiKey,
		baseURL: anthropicBaseURL,
		client:  newHTTPClient(timeout),
	}
}

func (c *anthropicClient) Provider() string { return "anthropic" }
func (c *anthropicClient) Model() string    { return c.model }

type anthropicSystemBlock struct {
	Type         string          `json:"type"`
	Text         string          `json:"text"`
	CacheControl json.RawMessage `json:"cache_control,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequestBody struct {
	Model     string                 `json:"model"`
	System    []anthropicSystemBlock `json:"system,omitempty"`
	Messages  []anthropicMessage     `json:"messages"`
	Tools     []anthropicTool        `json:"tools,omitempty"`
	MaxTokens int                    `json:"max_tokens"`
	Stream    bool                   `json:"stream"`
}

var ephemeralCache = json.RawMessage(`{"type":"ephemeral"}`)

func (c *anthropicClient) buildBody(req *Request) ([]byte, error) {
	body := anthropicRequestBody{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
		Stream:    true,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = defaultMaxTokens
	}

	for _, b := range req.SystemBlocks {
		sb := anthropicSystemBlock{Type: "text", Text: b.Text}
		if b.Cache {
			sb.CacheControl = ephemeralCache
		}
		body.System = append(body.System, sb)
	}

	for _, t := range req.Turns {
		switch t.Role {
		case "system":
			// System turns ride the system block array, not messages.
			body.System = append(body.System, anthropicSystemBlock{Type: "text", Text: t.Content})
		case "assistant":
			msg := anthropicMessage{Role: "assistant"}
			if t.Content != "" {
				msg.Content = append(msg.Content, anthropicContentBlock{Type: "text", Text: t.Content})
			}
			for _, tc := range t.ToolCalls {
				input := tc.Arguments
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				msg.Content = append(msg.Content, anthropicContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			body.Messages = append(body.Messages, msg)
		case "tool":
			body.Messages = append(body.Messages, anthropicMessage{
				Role: "user",
				Content: []anthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: t.ToolID,
					Content:   t.Content,
				}},
			})
		default:
			body.Messages = append(body.Messages, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: t.Content}},
			})
		}
	}

	for _, t := range req.Tools {
		body.Tools = append(body.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	return json.Marshal(body)
}

func (c *anthropicClient) Stream(ctx context.Context, req *Request, onDelta func(string)) (*StepResult, error) {
	data, err := c.buildBody(req)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("anthropic-beta", anthropicCacheBeta)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, string(body))
	}

	return c.readStream(resp.Body, onDelta)
}

// anthropicStreamEvent covers every event shape we care about:
// message_start, content_block_start, content_block_delta, content_block_stop,
// message_delta, message_stop. Unknown events are skipped.
type anthropicStreamEvent struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Message struct {
		Usage map[string]any `json:"usage"`
	} `json:"message"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`
	Usage map[string]any `json:"usage"`
}

func (c *anthropicClient) readStream(body io.Reader, onDelta func(string)) (*StepResult, error) {
	result := &StepResult{Usage: map[string]any{}}
	var text strings.Builder

	// Tool-argument JSON arrives as input_json_delta fragments per block index.
	toolArgs := map[int]*strings.Builder{}
	toolByIndex := map[int]int{}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")

		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			continue // skip unparseable chunks
		}

		switch event.Type {
		case "message_start":
			for k, v := range event.Message.Usage {
				result.Usage[k] = v
			}

		case "content_block_start":
			if event.ContentBlock.Type == "tool_use" {
				result.ToolCalls = append(result.ToolCalls, ToolCall{
					ID:   event.ContentBlock.ID,
					Name: event.ContentBlock.Name,
				})
				toolByIndex[event.Index] = len(result.ToolCalls) - 1
				toolArgs[event.Index] = &strings.Builder{}
			}

		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				text.WriteString(event.Delta.Text)
				if onDelta != nil {
					onDelta(event.Delta.Text)
				}
			case "input_json_delta":
				if b, ok := toolArgs[event.Index]; ok {
					b.WriteString(event.Delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if i, ok := toolByIndex[event.Index]; ok {
				args := toolArgs[event.Index].String()
				if args == "" {
					args = "{}"
				}
				result.ToolCalls[i].Arguments = json.RawMessage(args)
			}

		case "message_delta":
			if event.Delta.StopReason != "" {
				result.StopReason = event.Delta.StopReason
			}
			for k, v := range event.Usage {
				result.Usage[k] = v
			}

		case "message_stop":
			result.Text = text.String()
			result.Metadata = map[string]any{
				"anthropic": map[string]any{"usage": result.Usage},
			}
			return result, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read anthropic stream: %w", err)
	}

	// Stream ended without message_stop; return what we have.
	result.Text = text.String()
	result.Metadata = map[string]any{
		"anthropic": map[string]any{"usage": result.Usage},
	}
	return result, nil
}

package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rah-labs/rah-core/internal/types"
)

const (
	envTargetURL     = "RAH_MCP_TARGET_URL"
	envPublicBaseURL = "NEXT_PUBLIC_BASE_URL"
	defaultBaseURL   = "http://localhost:3000"
)

// ResolveBaseURL picks the graph API base URL. Priority: explicit override
// env var, generic public-base-url env var, a status-file hint (port number or
// full URL), loopback port 3000.
func ResolveBaseURL(statusHint string) string {
	if v := strings.TrimSpace(os.Getenv(envTargetURL)); v != "" {
		return strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(envPublicBaseURL)); v != "" {
		return strings.TrimRight(v, "/")
	}
	if hint := strings.TrimSpace(statusHint); hint != "" {
		if strings.HasPrefix(hint, "http://") || strings.HasPrefix(hint, "https://") {
			return strings.TrimRight(hint, "/")
		}
		// Bare port number.
		return "http://localhost:" + hint
	}
	return defaultBaseURL
}

// Client is a thin typed client for the sibling REST API that owns nodes,
// edges, dimensions, workflows and extraction.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// envelope is the REST layer's uniform response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// do performs one request and translates failures into UpstreamRequestError.
// The returned bytes are the data field when the envelope carries one,
// otherwise the whole body.
func (c *Client) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &types.UpstreamRequestError{Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.UpstreamRequestError{Path: path, Status: resp.StatusCode, Message: err.Error()}
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (env.Success != nil && !*env.Success) {
		return nil, &types.UpstreamRequestError{Path: path, Status: resp.StatusCode, Message: env.Error}
	}

	if len(env.Data) > 0 {
		return env.Data, nil
	}
	return raw, nil
}

// Node is the graph's knowledge item as echoed by the REST layer.
type Node struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Content     string         `json:"content,omitempty"`
	Chunk       string         `json:"chunk,omitempty"`
	Dimensions  []string       `json:"dimensions,omitempty"`
	Link        string         `json:"link,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	ChunkStatus string         `json:"chunk_status,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
}

// Edge is a typed, weighted connection between two nodes.
type Edge struct {
	ID          int64   `json:"id"`
	FromNodeID  int64   `json:"from_node_id"`
	ToNodeID    int64   `json:"to_node_id"`
	Type        string  `json:"type,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// Dimension is a tag applied to nodes; locked dimensions pin UI ordering.
type Dimension struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority,omitempty"`
	Locked   bool   `json:"locked,omitempty"`
}

// Workflow is a long-running agent task definition/state.
type Workflow struct {
	Key         string         `json:"key"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status,omitempty"`
	Steps       []string       `json:"steps,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func decode[T any](raw json.RawMessage, path string) (T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &types.UpstreamRequestError{Path: path, Message: "malformed response: " + err.Error()}
	}
	return out, nil
}

func (c *Client) CreateNode(ctx context.Context, payload map[string]any) (Node, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/nodes", payload)
	if err != nil {
		return Node{}, err
	}
	return decode[Node](raw, "/api/nodes")
}

func (c *Client) GetNode(ctx context.Context, id int64) (Node, error) {
	path := fmt.Sprintf("/api/nodes/%d", id)
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Node{}, err
	}
	return decode[Node](raw, path)
}

func (c *Client) UpdateNode(ctx context.Context, id int64, updates map[string]any) (Node, error) {
	path := fmt.Sprintf("/api/nodes/%d", id)
	raw, err := c.do(ctx, http.MethodPatch, path, updates)
	if err != nil {
		return Node{}, err
	}
	return decode[Node](raw, path)
}

func (c *Client) SearchNodes(ctx context.Context, query string, dimensions []string, limit int) ([]Node, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	for _, d := range dimensions {
		q.Add("dimension", d)
	}
	path := "/api/nodes/search?" + q.Encode()
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Node](raw, "/api/nodes/search", "nodes")
}

func (c *Client) SearchEmbeddings(ctx context.Context, query string, limit int) ([]Node, error) {
	payload := map[string]any{"query": query}
	if limit > 0 {
		payload["limit"] = limit
	}
	raw, err := c.do(ctx, http.MethodPost, "/api/nodes/search", payload)
	if err != nil {
		return nil, err
	}
	return decodeList[Node](raw, "/api/nodes/search", "nodes")
}

func (c *Client) CreateEdge(ctx context.Context, payload map[string]any) (Edge, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/edges", payload)
	if err != nil {
		return Edge{}, err
	}
	return decode[Edge](raw, "/api/edges")
}

func (c *Client) UpdateEdge(ctx context.Context, id int64, updates map[string]any) (Edge, error) {
	path := fmt.Sprintf("/api/edges/%d", id)
	raw, err := c.do(ctx, http.MethodPatch, path, updates)
	if err != nil {
		return Edge{}, err
	}
	return decode[Edge](raw, path)
}

func (c *Client) QueryEdges(ctx context.Context, nodeID int64, edgeType string) ([]Edge, error) {
	q := url.Values{}
	if nodeID > 0 {
		q.Set("node_id", fmt.Sprintf("%d", nodeID))
	}
	if edgeType != "" {
		q.Set("type", edgeType)
	}
	path := "/api/edges"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Edge](raw, "/api/edges", "edges")
}

func (c *Client) CreateDimension(ctx context.Context, payload map[string]any) (Dimension, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/dimensions", payload)
	if err != nil {
		return Dimension{}, err
	}
	return decode[Dimension](raw, "/api/dimensions")
}

func (c *Client) UpdateDimension(ctx context.Context, name string, updates map[string]any) (Dimension, error) {
	updates["name"] = name
	raw, err := c.do(ctx, http.MethodPatch, "/api/dimensions", updates)
	if err != nil {
		return Dimension{}, err
	}
	return decode[Dimension](raw, "/api/dimensions")
}

func (c *Client) DeleteDimension(ctx context.Context, name string) error {
	path := "/api/dimensions?" + url.Values{"name": {name}}.Encode()
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/workflows", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Workflow](raw, "/api/workflows", "workflows")
}

func (c *Client) GetWorkflow(ctx context.Context, key string) (Workflow, error) {
	path := "/api/workflows/" + url.PathEscape(key)
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Workflow{}, err
	}
	return decode[Workflow](raw, path)
}

func (c *Client) ExecuteWorkflow(ctx context.Context, key string, input map[string]any) (map[string]any, error) {
	payload := map[string]any{"key": key}
	if input != nil {
		payload["input"] = input
	}
	raw, err := c.do(ctx, http.MethodPost, "/api/workflows/execute", payload)
	if err != nil {
		return nil, err
	}
	return decode[map[string]any](raw, "/api/workflows/execute")
}

// Extract runs one of the extraction endpoints: kind is url, youtube or pdf.
func (c *Client) Extract(ctx context.Context, kind string, payload map[string]any) (map[string]any, error) {
	path := "/api/extract/" + kind
	raw, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	return decode[map[string]any](raw, path)
}

// decodeList tolerates both a bare JSON array and an object wrapping the
// array under a named key.
func decodeList[T any](raw json.RawMessage, path, key string) ([]T, error) {
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &types.UpstreamRequestError{Path: path, Message: "malformed response: " + err.Error()}
	}
	if inner, ok := wrapped[key]; ok {
		if err := json.Unmarshal(inner, &list); err != nil {
			return nil, &types.UpstreamRequestError{Path: path, Message: "malformed response: " + err.Error()}
		}
	}
	return list, nil
}

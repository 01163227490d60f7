package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/rah-labs/rah-core/internal/tools"
	"github.com/rah-labs/rah-core/internal/types"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "rah-mcp"
	serverVersion   = "1.0.0"
)

// JSON-RPC 2.0 message shapes per the MCP protocol.

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ListToolsResult struct {
	Tools []ToolDecl `json:"tools"`
}

type ToolDecl struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema,omitempty"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type CallToolResult struct {
	Content           []ToolContent  `json:"content"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Dispatcher translates the MCP RPC surface into tool registry calls. Both
// transports share one dispatcher; only framing differs.
type Dispatcher struct {
	registry *tools.Registry
}

func NewDispatcher(registry *tools.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Handle processes one request. Nil means notification, no response.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: InitializeResult{
				ProtocolVersion: protocolVersion,
				ServerInfo:      ServerInfo{Name: serverName, Version: serverVersion},
				Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			},
		}
	case "tools/list":
		return d.handleListTools(req)
	case "tools/call":
		return d.handleCallTool(ctx, req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{}}
	case "notifications/initialized":
		return nil
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: codeMethodNotFound, Message: "Method not found"},
		}
	}
}

func (d *Dispatcher) handleListTools(req *Request) *Response {
	decls := make([]ToolDecl, 0)
	for _, t := range d.registry.List() {
		decls = append(decls, ToolDecl{
			Name:         t.Name,
			Description:  t.Description,
			InputSchema:  t.InputSchema,
			OutputSchema: t.OutputSchema,
		})
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ListToolsResult{Tools: decls},
	}
}

func (d *Dispatcher) handleCallTool(ctx context.Context, req *Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: codeInvalidParams, Message: "Invalid params"},
		}
	}

	result, err := d.registry.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		slog.Warn("tool call failed", "tool", params.Name, "error", err)

		// Schema/precondition failures are structured RPC errors; upstream
		// REST failures surface as error tool results so the client can read
		// the upstream message.
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			return &Response{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &RPCError{Code: codeInvalidParams, Message: verr.Error()},
			}
		}
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: CallToolResult{
				Content: []ToolContent{{Type: "text", Text: "Error: " + err.Error()}},
				IsError: true,
			},
		}
	}

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content:           []ToolContent{{Type: "text", Text: result.Summary}},
			StructuredContent: result.Structured,
		},
	}
}

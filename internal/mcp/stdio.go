package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// StdioServer speaks newline-delimited JSON-RPC over a reader/writer pair,
// the framing MCP clients use when they spawn the bridge as a subprocess.
// Logs must go to stderr; stdout carries only protocol messages.
type StdioServer struct {
	dispatcher *Dispatcher
	in         io.Reader
	out        io.Writer

	mu sync.Mutex
}

func NewStdioServer(dispatcher *Dispatcher, in io.Reader, out io.Writer) *StdioServer {
	return &StdioServer{dispatcher: dispatcher, in: in, out: out}
}

// Run reads requests until EOF or context cancellation.
func (s *StdioServer) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxRequestBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.send(&Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: codeParseError, Message: "Parse error"},
			})
			continue
		}

		slog.Debug("mcp stdio request", "method", req.Method, "id", req.ID)

		if resp := s.dispatcher.Handle(ctx, &req); resp != nil {
			s.send(resp)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func (s *StdioServer) send(resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("encode response", "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Write(append(data, '\n'))
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/tools"
)

func TestStdio_NewlineDelimitedSession(t *testing.T) {
	client := graph.NewClient("http://localhost:0", time.Second)
	registry := tools.NewRegistry(client, tools.VariantStdio)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`not json at all`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	srv := NewStdioServer(NewDispatcher(registry), strings.NewReader(in), &out)
	if err := srv.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// initialize response, parse error, tools/list response. The notification
	// produces nothing.
	if len(lines) != 3 {
		t.Fatalf("got %d response lines, want 3: %v", len(lines), lines)
	}

	var first Response
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.Error != nil {
		t.Errorf("first response = %s (err %v)", lines[0], err)
	}

	var second Response
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode parse-error response: %v", err)
	}
	if second.Error == nil || second.Error.Code != -32700 {
		t.Errorf("second response = %+v, want -32700", second)
	}

	var third Response
	if err := json.Unmarshal([]byte(lines[2]), &third); err != nil || third.Error != nil {
		t.Errorf("third response = %s (err %v)", lines[2], err)
	}
}

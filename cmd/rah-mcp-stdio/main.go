package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/mcp"
	"github.com/rah-labs/rah-core/internal/tools"
)

// The stdio bridge is spawned as a subprocess by MCP clients. stdout carries
// only protocol frames; all logging goes to stderr.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	// The status file left behind by a running HTTP bridge supplies the graph
	// port when no env var points anywhere.
	targetURL := graph.ResolveBaseURL(mcp.PortHint())
	client := graph.NewClient(targetURL, 30*time.Second)
	registry := tools.NewRegistry(client, tools.VariantStdio)
	server := mcp.NewStdioServer(mcp.NewDispatcher(registry), os.Stdin, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("stdio bridge exited", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/mcp"
	"github.com/rah-labs/rah-core/internal/tools"
)

var version = "dev"

const defaultPort = 3333

func main() {
	portFlag := flag.Int("port", 0, "listen port (overrides RAH_MCP_PORT)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	port := *portFlag
	if port == 0 {
		if v := os.Getenv("RAH_MCP_PORT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				port = n
			} else {
				logger.Warn("invalid RAH_MCP_PORT, using default", "value", v)
			}
		}
	}
	if port == 0 {
		port = defaultPort
	}

	targetURL := graph.ResolveBaseURL("")
	client := graph.NewClient(targetURL, 30*time.Second)
	registry := tools.NewRegistry(client, tools.VariantHTTP)
	server := mcp.NewHTTPServer(mcp.NewDispatcher(registry), client.BaseURL())

	url := fmt.Sprintf("http://localhost:%d/mcp", port)
	if err := mcp.WriteStatus(mcp.Status{
		Enabled:       true,
		Port:          port,
		URL:           url,
		TargetBaseURL: client.BaseURL(),
	}); err != nil {
		logger.Warn("failed to write status file", "error", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp bridge starting",
			"addr", srv.Addr, "version", version,
			"target_base_url", client.BaseURL(), "tools", len(registry.Names()))
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var lastError string
	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			lastError = err.Error()
		}
	}

	if err := mcp.WriteStatus(mcp.Status{
		Enabled:       false,
		TargetBaseURL: client.BaseURL(),
		LastError:     lastError,
	}); err != nil {
		logger.Warn("failed to clear status file", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	if lastError != "" {
		os.Exit(1)
	}
	logger.Info("mcp bridge stopped")
}

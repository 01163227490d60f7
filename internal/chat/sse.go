package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// eventWriter frames orchestrator events as SSE. Each event is
// "event: <name>\ndata: <json>\n\n", flushed immediately so text deltas reach
// the client as they arrive.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventWriter(w http.ResponseWriter, traceID string) (*eventWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Trace-ID", traceID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventWriter{w: w, flusher: flusher}, nil
}

func (e *eventWriter) send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encode sse payload", "event", event, "error", err)
		return
	}
	fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data)
	e.flusher.Flush()
}

func (e *eventWriter) textDelta(text string) {
	e.send("text-delta", map[string]any{"text": text})
}

func (e *eventWriter) toolCall(id, name string, args json.RawMessage) {
	payload := map[string]any{"id": id, "name": name}
	if len(args) > 0 {
		payload["arguments"] = json.RawMessage(args)
	}
	e.send("tool-call", payload)
}

func (e *eventWriter) toolResult(id, name, summary string, isError bool) {
	e.send("tool-result", map[string]any{
		"id":      id,
		"name":    name,
		"summary": summary,
		"isError": isError,
	})
}

func (e *eventWriter) sendError(message string) {
	e.send("error", map[string]any{"error": message})
}

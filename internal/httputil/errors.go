package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON error envelope for every endpoint. Details never
// carry stack traces or internals, just a hint pointing at the server logs.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func WriteError(w http.ResponseWriter, traceID string, statusCode int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	if traceID != "" {
		w.Header().Set("X-Trace-ID", traceID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorBody{
		Error:   message,
		Details: details,
		TraceID: traceID,
	})
}

func WriteBadRequest(w http.ResponseWriter, traceID, message string) {
	WriteError(w, traceID, http.StatusBadRequest, message, "")
}

func WriteInternalError(w http.ResponseWriter, traceID, message string) {
	WriteError(w, traceID, http.StatusInternalServerError, message, "check server logs")
}

func WriteNotFound(w http.ResponseWriter, traceID, message string) {
	WriteError(w, traceID, http.StatusNotFound, message, "")
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

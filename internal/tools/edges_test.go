package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/rah-labs/rah-core/internal/types"
)

func TestCreateEdge_ExplainedVariant(t *testing.T) {
	var gotPayload map[string]any
	client, done := fakeGraph(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		writeEnvelope(w, map[string]any{
			"id": 3, "from_node_id": 1, "to_node_id": 2, "type": "supports",
		})
	})
	defer done()

	reg := NewRegistry(client, VariantHTTP)
	result, err := reg.Call(context.Background(), "rah_create_edge", map[string]any{
		"source_id":   float64(1),
		"target_id":   float64(2),
		"explanation": "paper A supports claim B",
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	// The REST payload always uses from/to names regardless of variant.
	if gotPayload["from_node_id"] != float64(1) || gotPayload["to_node_id"] != float64(2) {
		t.Errorf("payload = %v", gotPayload)
	}
	if gotPayload["explanation"] != "paper A supports claim B" {
		t.Errorf("explanation = %v", gotPayload["explanation"])
	}

	// The structured output uses the variant's naming.
	if result.Structured["source_id"] != int64(1) || result.Structured["target_id"] != int64(2) {
		t.Errorf("Structured = %v", result.Structured)
	}
	if result.Structured["type"] != "supports" {
		t.Errorf("type = %v", result.Structured["type"])
	}
}

func TestCreateEdge_ExplanationRequired(t *testing.T) {
	client, done := fakeGraph(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the graph")
	})
	defer done()

	reg := NewRegistry(client, VariantHTTP)
	_, err := reg.Call(context.Background(), "rah_create_edge", map[string]any{
		"source_id": float64(1),
		"target_id": float64(2),
	})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestCreateEdge_TypedVariant(t *testing.T) {
	var gotPayload map[string]any
	client, done := fakeGraph(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		writeEnvelope(w, map[string]any{"id": 9, "from_node_id": 4, "to_node_id": 5})
	})
	defer done()

	reg := NewRegistry(client, VariantStdio)
	result, err := reg.Call(context.Background(), "rah_create_edge", map[string]any{
		"from_node_id": float64(4),
		"to_node_id":   float64(5),
		"type":         "references",
		"weight":       0.8,
	})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if gotPayload["type"] != "references" || gotPayload["weight"] != 0.8 {
		t.Errorf("payload = %v", gotPayload)
	}
	if result.Structured["from_node_id"] != int64(4) || result.Structured["to_node_id"] != int64(5) {
		t.Errorf("Structured = %v", result.Structured)
	}
}

func TestUpdateEdge_TypedVariantRequiresChange(t *testing.T) {
	client, done := fakeGraph(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the graph")
	})
	defer done()

	reg := NewRegistry(client, VariantStdio)
	_, err := reg.Call(context.Background(), "rah_update_edge", map[string]any{
		"edge_id": float64(9),
	})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestQueryEdges_VariantNaming(t *testing.T) {
	client, done := fakeGraph(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, []map[string]any{
			{"id": 1, "from_node_id": 10, "to_node_id": 20, "type": "supports", "weight": 0.5},
		})
	})
	defer done()

	httpReg := NewRegistry(client, VariantHTTP)
	result, err := httpReg.Call(context.Background(), "rah_query_edges", map[string]any{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	edges := result.Structured["edges"].([]map[string]any)
	if _, ok := edges[0]["source_id"]; !ok {
		t.Errorf("http variant edge = %v, want source_id key", edges[0])
	}

	stdioReg := NewRegistry(client, VariantStdio)
	result, err = stdioReg.Call(context.Background(), "rah_query_edges", map[string]any{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	edges = result.Structured["edges"].([]map[string]any)
	if _, ok := edges[0]["from_node_id"]; !ok {
		t.Errorf("stdio variant edge = %v, want from_node_id key", edges[0])
	}
	if edges[0]["weight"] != 0.5 {
		t.Errorf("stdio variant should include weight, got %v", edges[0])
	}
}

package tools

import (
	"context"
	"fmt"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/types"
)

// The two transports declare different edge schemas (see Variant). The HTTP
// variant names endpoints source_id/target_id and requires a free-text
// explanation from which the REST layer infers a relationship type; the stdio
// variant keeps the REST layer's from_node_id/to_node_id names with explicit
// type and weight.
func registerEdgeTools(r *Registry, client *graph.Client, variant Variant) {
	if variant == VariantHTTP {
		registerExplainedEdgeTools(r, client)
	} else {
		registerTypedEdgeTools(r, client)
	}

	r.register(&Tool{
		Name:        "rah_query_edges",
		Description: "List edges, optionally filtered by node or relationship type.",
		InputSchema: schema(nil, map[string]any{
			"node_id": num("Only edges touching this node"),
			"type":    str("Only edges of this relationship type"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"edges": map[string]any{"type": "array", "description": "Matching edges"},
			"count": num("Number of edges"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			nodeID, _ := optInt(input, "node_id")
			edgeType, _ := optString(input, "type")
			edges, err := client.QueryEdges(ctx, nodeID, edgeType)
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Found %d edges", len(edges)),
				Structured: map[string]any{
					"edges": edgeSummaries(edges, variant),
					"count": len(edges),
				},
			}, nil
		},
	})
}

func registerExplainedEdgeTools(r *Registry, client *graph.Client) {
	r.register(&Tool{
		Name:        "rah_create_edge",
		Description: "Connect two nodes. The relationship type is inferred from the explanation.",
		InputSchema: schema([]string{"source_id", "target_id", "explanation"}, map[string]any{
			"source_id":   num("Node the edge starts from"),
			"target_id":   num("Node the edge points to"),
			"explanation": str("Why these nodes are connected"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"id":        num("Created edge id"),
			"source_id": num("Source node"),
			"target_id": num("Target node"),
			"type":      str("Inferred relationship type"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			from, err := requireInt("rah_create_edge", input, "source_id")
			if err != nil {
				return nil, err
			}
			to, err := requireInt("rah_create_edge", input, "target_id")
			if err != nil {
				return nil, err
			}
			explanation, err := requireString("rah_create_edge", input, "explanation")
			if err != nil {
				return nil, err
			}
			edge, err := client.CreateEdge(ctx, map[string]any{
				"from_node_id": from,
				"to_node_id":   to,
				"explanation":  explanation,
			})
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Connected node %d to node %d", from, to),
				Structured: map[string]any{
					"id":        edge.ID,
					"source_id": edge.FromNodeID,
					"target_id": edge.ToNodeID,
					"type":      edge.Type,
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_update_edge",
		Description: "Re-explain an existing edge; the relationship type is re-inferred.",
		InputSchema: schema([]string{"edge_id", "explanation"}, map[string]any{
			"edge_id":     num("Edge to update"),
			"explanation": str("New explanation"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"id":   num("Edge id"),
			"type": str("Relationship type"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			id, err := requireInt("rah_update_edge", input, "edge_id")
			if err != nil {
				return nil, err
			}
			explanation, err := requireString("rah_update_edge", input, "explanation")
			if err != nil {
				return nil, err
			}
			edge, err := client.UpdateEdge(ctx, id, map[string]any{"explanation": explanation})
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Updated edge %d", id),
				Structured: map[string]any{
					"id":   edge.ID,
					"type": edge.Type,
				},
			}, nil
		},
	})
}

func registerTypedEdgeTools(r *Registry, client *graph.Client) {
	r.register(&Tool{
		Name:        "rah_create_edge",
		Description: "Connect two nodes with an explicit relationship type and weight.",
		InputSchema: schema([]string{"from_node_id", "to_node_id"}, map[string]any{
			"from_node_id": num("Node the edge starts from"),
			"to_node_id":   num("Node the edge points to"),
			"type":         str("Relationship type"),
			"weight":       num("Edge weight (0..1)"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"id":           num("Created edge id"),
			"from_node_id": num("Source node"),
			"to_node_id":   num("Target node"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			from, err := requireInt("rah_create_edge", input, "from_node_id")
			if err != nil {
				return nil, err
			}
			to, err := requireInt("rah_create_edge", input, "to_node_id")
			if err != nil {
				return nil, err
			}
			payload := map[string]any{"from_node_id": from, "to_node_id": to}
			if t, ok := optString(input, "type"); ok {
				payload["type"] = t
			}
			if w, ok := optFloat(input, "weight"); ok {
				payload["weight"] = w
			}
			edge, err := client.CreateEdge(ctx, payload)
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Connected node %d to node %d", from, to),
				Structured: map[string]any{
					"id":           edge.ID,
					"from_node_id": edge.FromNodeID,
					"to_node_id":   edge.ToNodeID,
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_update_edge",
		Description: "Change an edge's relationship type or weight.",
		InputSchema: schema([]string{"edge_id"}, map[string]any{
			"edge_id": num("Edge to update"),
			"type":    str("New relationship type"),
			"weight":  num("New weight"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"id": num("Edge id"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			id, err := requireInt("rah_update_edge", input, "edge_id")
			if err != nil {
				return nil, err
			}
			updates := map[string]any{}
			if t, ok := optString(input, "type"); ok {
				updates["type"] = t
			}
			if w, ok := optFloat(input, "weight"); ok {
				updates["weight"] = w
			}
			if len(updates) == 0 {
				return nil, &types.ValidationError{Tool: "rah_update_edge", Message: "at least one of type or weight required"}
			}
			edge, err := client.UpdateEdge(ctx, id, updates)
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary:    fmt.Sprintf("Updated edge %d", id),
				Structured: map[string]any{"id": edge.ID},
			}, nil
		},
	})
}

func edgeSummaries(edges []graph.Edge, variant Variant) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		entry := map[string]any{"id": e.ID}
		if variant == VariantHTTP {
			entry["source_id"] = e.FromNodeID
			entry["target_id"] = e.ToNodeID
		} else {
			entry["from_node_id"] = e.FromNodeID
			entry["to_node_id"] = e.ToNodeID
			if e.Weight != 0 {
				entry["weight"] = e.Weight
			}
		}
		if e.Type != "" {
			entry["type"] = e.Type
		}
		out = append(out, entry)
	}
	return out
}

package tools

import (
	"context"
	"fmt"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/types"
)

func registerNodeTools(r *Registry, client *graph.Client) {
	r.register(&Tool{
		Name:        "rah_add_node",
		Description: "Capture a new node (note, link, transcript or PDF reference) in the knowledge graph.",
		InputSchema: schema([]string{"title"}, map[string]any{
			"title":      str("Node title"),
			"content":    str("Node body text"),
			"link":       str("Source URL, if any"),
			"dimensions": strArray("Tags to apply (max 5, case-insensitive unique)"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"id":         num("Created node id"),
			"title":      str("Node title"),
			"dimensions": strArray("Dimensions on the node"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			title, err := requireString("rah_add_node", input, "title")
			if err != nil {
				return nil, err
			}
			dims := SanitizeDimensions(anySlice(input, "dimensions"))
			payload := map[string]any{"title": title}
			if content, ok := optString(input, "content"); ok {
				payload["content"] = content
			}
			if link, ok := optString(input, "link"); ok {
				payload["link"] = link
			}
			if len(dims) > 0 {
				payload["dimensions"] = dims
			}
			node, err := client.CreateNode(ctx, payload)
			if err != nil {
				return nil, err
			}
			echoed := node.Dimensions
			if echoed == nil {
				echoed = dims
			}
			return &Result{
				Summary: fmt.Sprintf("Added node %d: %s", node.ID, node.Title),
				Structured: map[string]any{
					"id":         node.ID,
					"title":      node.Title,
					"dimensions": echoed,
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_search_nodes",
		Description: "Search nodes by text query, optionally filtered by dimensions.",
		InputSchema: schema([]string{"query"}, map[string]any{
			"query":      str("Search query"),
			"dimensions": strArray("Restrict to these dimensions"),
			"limit":      num("Maximum results (default 10)"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"nodes": map[string]any{"type": "array", "description": "Matching nodes"},
			"count": num("Number of matches"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			query, err := requireString("rah_search_nodes", input, "query")
			if err != nil {
				return nil, err
			}
			limit := int64(10)
			if n, ok := optInt(input, "limit"); ok && n > 0 {
				limit = n
			}
			dims := SanitizeDimensions(anySlice(input, "dimensions"))
			nodes, err := client.SearchNodes(ctx, query, dims, int(limit))
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Found %d nodes for %q", len(nodes), query),
				Structured: map[string]any{
					"nodes": nodeSummaries(nodes),
					"count": len(nodes),
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_update_node",
		Description: "Update a node's title, content, link or dimensions.",
		InputSchema: schema([]string{"node_id", "updates"}, map[string]any{
			"node_id": num("Node to update"),
			"updates": schema(nil, map[string]any{
				"title":      str("New title"),
				"content":    str("New content"),
				"link":       str("New link"),
				"dimensions": strArray("Replacement dimensions"),
			}),
		}),
		OutputSchema: schema(nil, map[string]any{
			"id":    num("Node id"),
			"title": str("Node title"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			id, err := requireInt("rah_update_node", input, "node_id")
			if err != nil {
				return nil, err
			}
			rawUpdates, _ := input["updates"].(map[string]any)
			updates := map[string]any{}
			for _, k := range []string{"title", "content", "link"} {
				if v, ok := optString(rawUpdates, k); ok {
					updates[k] = v
				}
			}
			if dims := anySlice(rawUpdates, "dimensions"); dims != nil {
				updates["dimensions"] = SanitizeDimensions(dims)
			}
			if len(updates) == 0 {
				return nil, &types.ValidationError{Tool: "rah_update_node", Message: "at least one updates field required"}
			}
			node, err := client.UpdateNode(ctx, id, updates)
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Updated node %d", id),
				Structured: map[string]any{
					"id":    node.ID,
					"title": node.Title,
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_get_nodes",
		Description: "Fetch nodes by id. Ids that fail to resolve are skipped.",
		InputSchema: schema([]string{"node_ids"}, map[string]any{
			"node_ids": numArray("Node ids to fetch"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"nodes": map[string]any{"type": "array", "description": "Resolved nodes"},
			"count": num("How many of the requested ids resolved"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			rawIDs := anySlice(input, "node_ids")
			if len(rawIDs) == 0 {
				return nil, &types.ValidationError{Tool: "rah_get_nodes", Message: "node_ids is required"}
			}
			var ids []int64
			for _, v := range rawIDs {
				if id, ok := asInt(v); ok {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				return nil, &types.ValidationError{Tool: "rah_get_nodes", Message: "node_ids must contain numbers"}
			}

			// Partial failure is expected here: return whatever resolved.
			var nodes []graph.Node
			for _, id := range ids {
				node, err := client.GetNode(ctx, id)
				if err != nil {
					continue
				}
				nodes = append(nodes, node)
			}
			return &Result{
				Summary: fmt.Sprintf("Loaded %d of %d nodes.", len(nodes), len(ids)),
				Structured: map[string]any{
					"nodes": nodeSummaries(nodes),
					"count": len(nodes),
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_search_embeddings",
		Description: "Semantic search over node embeddings.",
		InputSchema: schema([]string{"query"}, map[string]any{
			"query": str("Semantic query"),
			"limit": num("Maximum results (default 10)"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"nodes": map[string]any{"type": "array", "description": "Nearest nodes"},
			"count": num("Number of results"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			query, err := requireString("rah_search_embeddings", input, "query")
			if err != nil {
				return nil, err
			}
			limit := int64(10)
			if n, ok := optInt(input, "limit"); ok && n > 0 {
				limit = n
			}
			nodes, err := client.SearchEmbeddings(ctx, query, int(limit))
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Found %d semantically similar nodes", len(nodes)),
				Structured: map[string]any{
					"nodes": nodeSummaries(nodes),
					"count": len(nodes),
				},
			}, nil
		},
	})
}

func nodeSummaries(nodes []graph.Node) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		entry := map[string]any{
			"id":    n.ID,
			"title": n.Title,
		}
		if len(n.Dimensions) > 0 {
			entry["dimensions"] = n.Dimensions
		}
		if n.Link != "" {
			entry["link"] = n.Link
		}
		if n.Chunk != "" {
			entry["chunk"] = n.Chunk
		} else if n.Content != "" {
			entry["content"] = n.Content
		}
		out = append(out, entry)
	}
	return out
}

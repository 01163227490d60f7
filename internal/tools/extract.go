package tools

import (
	"context"
	"fmt"

	"github.com/rah-labs/rah-core/internal/graph"
)

// Extraction tools are stdio-only: the HTTP bridge predates the extraction
// endpoints and never grew them.
func registerExtractTools(r *Registry, client *graph.Client) {
	register := func(name, kind, argKey, desc string) {
		r.register(&Tool{
			Name:        name,
			Description: desc,
			InputSchema: schema([]string{argKey}, map[string]any{
				argKey:       str("Source to extract from"),
				"dimensions": strArray("Tags for the captured node (max 5)"),
			}),
			OutputSchema: schema(nil, map[string]any{
				"node_id": num("Id of the node created from the extraction"),
				"title":   str("Extracted title"),
			}),
			Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
				source, err := requireString(name, input, argKey)
				if err != nil {
					return nil, err
				}
				payload := map[string]any{argKey: source}
				if dims := SanitizeDimensions(anySlice(input, "dimensions")); len(dims) > 0 {
					payload["dimensions"] = dims
				}
				out, err := client.Extract(ctx, kind, payload)
				if err != nil {
					return nil, err
				}
				nodeID, _ := out["node_id"]
				title, _ := out["title"].(string)
				return &Result{
					Summary: fmt.Sprintf("Extracted %q into a node", source),
					Structured: map[string]any{
						"node_id": nodeID,
						"title":   title,
					},
				}, nil
			},
		})
	}

	register("rah_extract_url", "url", "url", "Extract readable content from a web page into a node.")
	register("rah_extract_youtube", "youtube", "url", "Extract the transcript of a YouTube video into a node.")
	register("rah_extract_pdf", "pdf", "path", "Extract text from a PDF file into a node.")
}

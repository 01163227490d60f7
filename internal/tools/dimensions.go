package tools

import (
	"context"
	"fmt"

	"github.com/rah-labs/rah-core/internal/graph"
	"github.com/rah-labs/rah-core/internal/types"
)

func registerDimensionTools(r *Registry, client *graph.Client) {
	r.register(&Tool{
		Name:        "rah_create_dimension",
		Description: "Create a tag-like dimension for organizing nodes.",
		InputSchema: schema([]string{"name"}, map[string]any{
			"name":     str("Dimension name"),
			"priority": num("Sort priority (higher pins earlier)"),
			"locked":   boolean("Pin the dimension in UI ordering"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"id":   num("Created dimension id"),
			"name": str("Dimension name"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			name, err := requireString("rah_create_dimension", input, "name")
			if err != nil {
				return nil, err
			}
			payload := map[string]any{"name": name}
			if p, ok := optInt(input, "priority"); ok {
				payload["priority"] = p
			}
			if locked, ok := input["locked"].(bool); ok {
				payload["locked"] = locked
			}
			dim, err := client.CreateDimension(ctx, payload)
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Created dimension %q", dim.Name),
				Structured: map[string]any{
					"id":   dim.ID,
					"name": dim.Name,
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_update_dimension",
		Description: "Rename a dimension or change its priority/lock state.",
		InputSchema: schema([]string{"name", "updates"}, map[string]any{
			"name": str("Dimension to update"),
			"updates": schema(nil, map[string]any{
				"new_name": str("New name"),
				"priority": num("New priority"),
				"locked":   boolean("New lock state"),
			}),
		}),
		OutputSchema: schema(nil, map[string]any{
			"name": str("Dimension name after update"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			name, err := requireString("rah_update_dimension", input, "name")
			if err != nil {
				return nil, err
			}
			rawUpdates, _ := input["updates"].(map[string]any)
			updates := map[string]any{}
			if v, ok := optString(rawUpdates, "new_name"); ok {
				updates["new_name"] = v
			}
			if v, ok := optInt(rawUpdates, "priority"); ok {
				updates["priority"] = v
			}
			if v, ok := rawUpdates["locked"].(bool); ok {
				updates["locked"] = v
			}
			if len(updates) == 0 {
				return nil, &types.ValidationError{Tool: "rah_update_dimension", Message: "at least one updates field required"}
			}
			dim, err := client.UpdateDimension(ctx, name, updates)
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary:    fmt.Sprintf("Updated dimension %q", name),
				Structured: map[string]any{"name": dim.Name},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_delete_dimension",
		Description: "Delete a dimension. Nodes keep their other dimensions.",
		InputSchema: schema([]string{"name"}, map[string]any{
			"name": str("Dimension to delete"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"deleted": boolean("Whether the dimension was deleted"),
			"name":    str("Deleted dimension name"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			name, err := requireString("rah_delete_dimension", input, "name")
			if err != nil {
				return nil, err
			}
			if err := client.DeleteDimension(ctx, name); err != nil {
				return nil, err
			}
			return &Result{
				Summary:    fmt.Sprintf("Deleted dimension %q", name),
				Structured: map[string]any{"deleted": true, "name": name},
			}, nil
		},
	})
}

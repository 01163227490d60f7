package tools

import (
	"context"
	"fmt"

	"github.com/rah-labs/rah-core/internal/graph"
)

func registerWorkflowTools(r *Registry, client *graph.Client) {
	r.register(&Tool{
		Name:        "rah_list_workflows",
		Description: "List available workflows and their statuses.",
		InputSchema: schema(nil, map[string]any{}),
		OutputSchema: schema(nil, map[string]any{
			"workflows": map[string]any{"type": "array", "description": "Known workflows"},
			"count":     num("Number of workflows"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			workflows, err := client.ListWorkflows(ctx)
			if err != nil {
				return nil, err
			}
			entries := make([]map[string]any, 0, len(workflows))
			for _, w := range workflows {
				entries = append(entries, map[string]any{
					"key":    w.Key,
					"title":  w.Title,
					"status": w.Status,
				})
			}
			return &Result{
				Summary: fmt.Sprintf("Found %d workflows", len(workflows)),
				Structured: map[string]any{
					"workflows": entries,
					"count":     len(workflows),
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_get_workflow",
		Description: "Fetch one workflow definition by key.",
		InputSchema: schema([]string{"key"}, map[string]any{
			"key": str("Workflow key"),
		}),
		OutputSchema: schema(nil, map[string]any{
			"key":         str("Workflow key"),
			"title":       str("Workflow title"),
			"description": str("Workflow description"),
			"status":      str("Current status"),
			"steps":       strArray("Workflow steps"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			key, err := requireString("rah_get_workflow", input, "key")
			if err != nil {
				return nil, err
			}
			w, err := client.GetWorkflow(ctx, key)
			if err != nil {
				return nil, err
			}
			return &Result{
				Summary: fmt.Sprintf("Workflow %q is %s", w.Key, orUnknown(w.Status)),
				Structured: map[string]any{
					"key":         w.Key,
					"title":       w.Title,
					"description": w.Description,
					"status":      w.Status,
					"steps":       w.Steps,
				},
			}, nil
		},
	})

	r.register(&Tool{
		Name:        "rah_execute_workflow",
		Description: "Start a workflow run, optionally with input parameters.",
		InputSchema: schema([]string{"key"}, map[string]any{
			"key":   str("Workflow key"),
			"input": schema(nil, map[string]any{}),
		}),
		OutputSchema: schema(nil, map[string]any{
			"key":    str("Workflow key"),
			"status": str("Run status after submission"),
		}),
		Handler: func(ctx context.Context, input map[string]any) (*Result, error) {
			key, err := requireString("rah_execute_workflow", input, "key")
			if err != nil {
				return nil, err
			}
			params, _ := input["input"].(map[string]any)
			run, err := client.ExecuteWorkflow(ctx, key, params)
			if err != nil {
				return nil, err
			}
			status, _ := run["status"].(string)
			return &Result{
				Summary: fmt.Sprintf("Workflow %q submitted: %s", key, orUnknown(status)),
				Structured: map[string]any{
					"key":    key,
					"status": status,
				},
			}, nil
		},
	})
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

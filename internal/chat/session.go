package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rah-labs/rah-core/internal/provider"
	"github.com/rah-labs/rah-core/internal/telemetry"
	"github.com/rah-labs/rah-core/internal/toolpolicy"
	"github.com/rah-labs/rah-core/internal/tools"
	"github.com/rah-labs/rah-core/internal/usage"
)

// session drives one chat turn: repeated model steps with tool execution in
// between, until the model stops calling tools or the step cap is reached.
type session struct {
	client    provider.Client
	registry  *tools.Registry
	policy    *toolpolicy.Evaluator
	metrics   *telemetry.Metrics
	mode      string
	helperKey string
	traceID   string
	maxSteps  int
}

// outcome carries everything the finish hook needs: the per-step usage trail
// plus the tool activity summary.
type outcome struct {
	Steps      []usage.Step
	StepCount  int
	ToolsUsed  []string
	ToolCalls  int
	StopReason string
}

func (s *session) run(ctx context.Context, req *provider.Request, ew *eventWriter) (*outcome, error) {
	out := &outcome{}
	seen := map[string]bool{}

	for out.StepCount < s.maxSteps {
		out.StepCount++

		step, err := s.client.Stream(ctx, req, ew.textDelta)
		if err != nil {
			return out, fmt.Errorf("model step %d: %w", out.StepCount, err)
		}

		out.Steps = append(out.Steps, usage.Step{
			Usage:            step.Usage,
			ProviderMetadata: step.Metadata,
		})
		out.StopReason = step.StopReason

		req.Turns = append(req.Turns, provider.Turn{
			Role:      "assistant",
			Content:   step.Text,
			ToolCalls: step.ToolCalls,
		})

		if len(step.ToolCalls) == 0 {
			return out, nil
		}

		for _, call := range step.ToolCalls {
			out.ToolCalls++
			if !seen[call.Name] {
				seen[call.Name] = true
				out.ToolsUsed = append(out.ToolsUsed, call.Name)
			}

			ew.toolCall(call.ID, call.Name, call.Arguments)
			summary, isErr := s.execute(ctx, call)
			ew.toolResult(call.ID, call.Name, summary, isErr)

			req.Turns = append(req.Turns, provider.Turn{
				Role:    "tool",
				Content: summary,
				ToolID:  call.ID,
			})
		}
	}

	out.StopReason = "max_steps"
	return out, nil
}

// execute runs one tool call through the policy gate and the registry. Tool
// failures never abort the session; the error text goes back to the model as
// the tool result so it can recover.
func (s *session) execute(ctx context.Context, call provider.ToolCall) (string, bool) {
	if s.policy != nil {
		allowed, reason := s.policy.Allow(ctx, toolpolicy.Input{
			Mode:      s.mode,
			HelperKey: s.helperKey,
			Tool:      call.Name,
		})
		if !allowed {
			slog.Warn("tool call denied by policy",
				"trace_id", s.traceID, "tool", call.Name, "reason", reason)
			return "Tool call denied: " + reason, true
		}
	}

	input := map[string]any{}
	if len(call.Arguments) > 0 {
		if err := json.Unmarshal(call.Arguments, &input); err != nil {
			s.metrics.RecordToolCall(call.Name, err)
			return "Error: invalid tool arguments: " + err.Error(), true
		}
	}

	slog.Info("tool call", "trace_id", s.traceID, "tool", call.Name)

	result, err := s.registry.Call(ctx, call.Name, input)
	s.metrics.RecordToolCall(call.Name, err)
	if err != nil {
		slog.Warn("tool call failed", "trace_id", s.traceID, "tool", call.Name, "error", err)
		return "Error: " + err.Error(), true
	}

	slog.Info("tool result", "trace_id", s.traceID, "tool", call.Name, "summary", result.Summary)
	return result.Summary, false
}

package usagestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rah-labs/rah-core/internal/types"
)

// Store persists per-chat-turn usage telemetry to PostgreSQL. A nil pool
// turns every write into a logged no-op: telemetry must never fail a chat
// turn.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Insert writes one completed turn's usage record.
func (s *Store) Insert(ctx context.Context, data types.UsageData) error {
	if s.db == nil {
		slog.Debug("usage store disabled, dropping record", "trace_id", data.TraceID)
		return nil
	}

	toolsJSON, err := json.Marshal(data.ToolsUsed)
	if err != nil {
		return fmt.Errorf("marshal tools_used: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO usage_log (
			trace_id, session_id, mode, provider, model_used,
			input_tokens, output_tokens, cache_write_tokens, cache_read_tokens,
			cache_hit, cache_savings_pct, estimated_cost_usd, total_tokens,
			tools_used, tool_calls_count, workflow_id, workflow_status, completed_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17, $18
		)
	`,
		data.TraceID, data.SessionID, data.Mode, data.Provider, data.ModelUsed,
		data.Tokens.Input, data.Tokens.Output, data.Tokens.CacheWrite, data.Tokens.CacheRead,
		data.CacheHit, data.CacheSavingsPct, data.EstimatedCostUSD, data.TotalTokens,
		toolsJSON, data.ToolCallsCount, nullable(data.WorkflowID), nullable(data.WorkflowStatus), data.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage_log: %w", err)
	}
	return nil
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.UsageData, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT trace_id, session_id, mode, provider, model_used,
		       input_tokens, output_tokens, cache_write_tokens, cache_read_tokens,
		       cache_hit, cache_savings_pct, estimated_cost_usd, total_tokens,
		       tools_used, tool_calls_count, workflow_id, workflow_status, completed_at
		FROM usage_log
		ORDER BY completed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query usage_log: %w", err)
	}
	defer rows.Close()

	var out []types.UsageData
	for rows.Next() {
		var d types.UsageData
		var sessionID, workflowID, workflowStatus *string
		var toolsJSON []byte
		var completedAt time.Time

		err := rows.Scan(
			&d.TraceID, &sessionID, &d.Mode, &d.Provider, &d.ModelUsed,
			&d.Tokens.Input, &d.Tokens.Output, &d.Tokens.CacheWrite, &d.Tokens.CacheRead,
			&d.CacheHit, &d.CacheSavingsPct, &d.EstimatedCostUSD, &d.TotalTokens,
			&toolsJSON, &d.ToolCallsCount, &workflowID, &workflowStatus, &completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan usage_log row: %w", err)
		}

		if sessionID != nil {
			d.SessionID = *sessionID
		}
		if workflowID != nil {
			d.WorkflowID = *workflowID
		}
		if workflowStatus != nil {
			d.WorkflowStatus = *workflowStatus
		}
		if len(toolsJSON) > 0 {
			json.Unmarshal(toolsJSON, &d.ToolsUsed)
		}
		d.CompletedAt = completedAt
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

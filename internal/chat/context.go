package chat

import (
	"context"

	"github.com/rah-labs/rah-core/internal/types"
)

// Request-scoped values travel on the context, never in globals, so concurrent
// chat turns cannot observe each other's trace id or key overrides.

type ctxKey int

const (
	ctxTraceID ctxKey = iota
	ctxSessionID
	ctxMode
	ctxAPIKeys
)

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}

func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxTraceID).(string)
	return id
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxSessionID, id)
}

func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxSessionID).(string)
	return id
}

func WithMode(ctx context.Context, mode types.Mode) context.Context {
	return context.WithValue(ctx, ctxMode, mode)
}

func ModeFrom(ctx context.Context) types.Mode {
	if m, ok := ctx.Value(ctxMode).(types.Mode); ok {
		return m
	}
	return types.ModeEasy
}

func WithAPIKeys(ctx context.Context, keys types.APIKeyOverrides) context.Context {
	return context.WithValue(ctx, ctxAPIKeys, keys)
}

func APIKeysFrom(ctx context.Context) types.APIKeyOverrides {
	keys, _ := ctx.Value(ctxAPIKeys).(types.APIKeyOverrides)
	return keys
}

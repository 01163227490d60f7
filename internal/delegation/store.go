package delegation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status of a delegated long-running agent task.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record is one delegation's persisted state.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	keyPrefix     = "rah:delegation:"
	sessionPrefix = "rah:delegation:session:"
	recordTTL     = 7 * 24 * time.Hour
)

// Store tracks delegation status in Redis. A nil client makes every write a
// no-op and every read a miss: delegation tracking is a convenience, not a
// dependency, and the chat path must work without Redis.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Set upserts one record and indexes it by session.
func (s *Store) Set(ctx context.Context, rec Record) error {
	if s.rdb == nil {
		return nil
	}
	rec.UpdatedAt = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal delegation record: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, keyPrefix+rec.ID, data, recordTTL)
	if rec.SessionID != "" {
		pipe.SAdd(ctx, sessionPrefix+rec.SessionID, rec.ID)
		pipe.Expire(ctx, sessionPrefix+rec.SessionID, recordTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Get fetches one record; (nil, nil) when missing or Redis is absent.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if s.rdb == nil {
		return nil, nil
	}
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal delegation record: %w", err)
	}
	return &rec, nil
}

// Active returns the most recently updated non-terminal delegation for a
// session, or nil.
func (s *Store) Active(ctx context.Context, sessionID string) (*Record, error) {
	if s.rdb == nil || sessionID == "" {
		return nil, nil
	}
	ids, err := s.rdb.SMembers(ctx, sessionPrefix+sessionID).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	var best *Record
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil || rec == nil {
			continue
		}
		if rec.Status != StatusQueued && rec.Status != StatusInProgress {
			continue
		}
		if best == nil || rec.UpdatedAt.After(best.UpdatedAt) {
			best = rec
		}
	}
	return best, nil
}

package delegation

import (
	"context"
	"testing"
)

func TestStore_NilClientFailsOpen(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	if err := s.Set(ctx, Record{ID: "dg-1", Status: StatusQueued}); err != nil {
		t.Errorf("Set with nil client = %v, want nil", err)
	}

	rec, err := s.Get(ctx, "dg-1")
	if err != nil || rec != nil {
		t.Errorf("Get with nil client = %v, %v, want nil, nil", rec, err)
	}

	active, err := s.Active(ctx, "session-1")
	if err != nil || active != nil {
		t.Errorf("Active with nil client = %v, %v, want nil, nil", active, err)
	}
}

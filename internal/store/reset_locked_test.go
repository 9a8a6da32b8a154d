package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestResetLockedAtClearsStaleLeasesOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stale := uuid.New()
	if err := s.CreateJob(ctx, stale, "noop", []byte(`{}`), nil, 0, time.Now(), 3); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	fresh := uuid.New()
	if err := s.CreateJob(ctx, fresh, "noop", []byte(`{}`), nil, 0, time.Now(), 3); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if _, err := s.connectionPool.Exec(ctx,
		`UPDATE jobs SET locked_by = 'dead-worker', locked_at = now() - interval '5 hours' WHERE id = $1`,
		stale,
	); err != nil {
		t.Fatalf("backdating stale lease: %v", err)
	}
	if _, err := s.connectionPool.Exec(ctx,
		`UPDATE jobs SET locked_by = 'live-worker', locked_at = now() WHERE id = $1`,
		fresh,
	); err != nil {
		t.Fatalf("locking fresh job: %v", err)
	}

	if err := s.ResetLockedAt(ctx); err != nil {
		t.Fatalf("ResetLockedAt: %v", err)
	}

	staleJob, err := s.GetJobByID(ctx, stale)
	if err != nil {
		t.Fatalf("GetJobByID(stale): %v", err)
	}
	if staleJob.LockedBy != nil {
		t.Fatalf("expected stale lease cleared, still locked by %v", *staleJob.LockedBy)
	}

	freshJob, err := s.GetJobByID(ctx, fresh)
	if err != nil {
		t.Fatalf("GetJobByID(fresh): %v", err)
	}
	if freshJob.LockedBy == nil || *freshJob.LockedBy != "live-worker" {
		t.Fatalf("expected fresh lease untouched, got %v", freshJob.LockedBy)
	}
}

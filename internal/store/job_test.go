package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCreateAndGetJobByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	jobID := uuid.New()
	if err := s.CreateJob(ctx, jobID, "send_email", []byte(`{"to":"a@example.com"}`), []string{"email"}, 10, time.Now(), 3); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	job, err := s.GetJobByID(ctx, jobID)
	if err != nil {
		t.Fatalf("GetJobByID: %v", err)
	}
	if job == nil {
		t.Fatal("expected job, got nil")
	}
	if job.TaskIdentifier != "send_email" {
		t.Fatalf("task identifier = %q, want send_email", job.TaskIdentifier)
	}
	if job.Attempts != 0 {
		t.Fatalf("attempts = %d, want 0", job.Attempts)
	}
	if job.LockedBy != nil {
		t.Fatalf("expected no lock, got %v", *job.LockedBy)
	}
}

func TestGetJobByIDMissing(t *testing.T) {
	s := newTestStore(t)

	job, err := s.GetJobByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetJobByID: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil, got %+v", job)
	}
}

func TestCancelUnlockedJob(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	jobID := uuid.New()
	if err := s.CreateJob(ctx, jobID, "noop", []byte(`{}`), nil, 0, time.Now(), 1); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	if err := s.CancelJob(ctx, jobID); err != nil {
		t.Fatalf("CancelJob: %v", err)
	}

	if err := s.CancelJob(ctx, jobID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestCancelLockedJobFails(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	jobID := uuid.New()
	if err := s.CreateJob(ctx, jobID, "noop", []byte(`{}`), nil, 0, time.Now(), 1); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	job, err := s.GetJob(ctx, []string{"noop"}, "worker-1", false, nil)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job == nil {
		t.Fatal("expected a job to be acquired")
	}

	if err := s.CancelJob(ctx, jobID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for a locked job, got %v", err)
	}
}

package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/vin-jex/job-orchestrator/internal/store"
)

// fakeStore is an in-memory JobStore used to drive the worker loop
// deterministically in tests, without a database.
type fakeStore struct {
	mu sync.Mutex

	queue       []*store.Job
	getJobErr   error
	resetCalls  int
	resetErr    error
	completed   []uuid.UUID
	failed      []failCall
	getJobCalls int
}

type failCall struct {
	jobID   uuid.UUID
	message string
}

func (f *fakeStore) GetJob(ctx context.Context, tasks []string, workerID string, useNodeTime bool, flagsToSkip []string) (*store.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getJobCalls++

	if f.getJobErr != nil {
		return nil, f.getJobErr
	}
	if len(f.queue) == 0 {
		return nil, nil
	}

	job := f.queue[0]
	f.queue = f.queue[1:]
	return job, nil
}

func (f *fakeStore) CompleteJob(ctx context.Context, workerID string, jobID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, jobID)
	return nil
}

func (f *fakeStore) FailJob(ctx context.Context, workerID string, jobID uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, failCall{jobID: jobID, message: message})
	return nil
}

func (f *fakeStore) ResetLockedAt(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return f.resetErr
}

func (f *fakeStore) push(job *store.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, job)
}

func (f *fakeStore) snapshot() (completed []uuid.UUID, failed []failCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.completed...), append([]failCall(nil), f.failed...)
}

var errAcquisitionFailed = errors.New("acquisition backend unavailable")

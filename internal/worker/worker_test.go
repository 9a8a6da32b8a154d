package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vin-jex/job-orchestrator/internal/events"
	"github.com/vin-jex/job-orchestrator/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor subscribes to name on bus and returns a channel delivering
// every matching event until the test ends.
func waitFor(bus *events.Bus, name string) <-chan events.Event {
	ch := make(chan events.Event, 16)
	bus.On(name, func(ev events.Event) { ch <- ev })
	return ch
}

func requireEvent(t *testing.T, ch <-chan events.Event, timeout time.Duration) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

const testTimeout = 2 * time.Second

func TestWorkerHappyPath(t *testing.T) {
	fs := &fakeStore{}
	jobID := uuid.New()
	fs.push(&store.Job{ID: jobID, TaskIdentifier: "echo", Attempts: 0, MaxAttempts: 3})

	bus := events.New(testLogger())
	success := waitFor(bus, events.JobSuccess)
	complete := waitFor(bus, events.JobComplete)

	var sawPayload bool
	tasks := TaskRegistry{
		"echo": func(ctx context.Context, payload []byte, h *Helpers) error {
			sawPayload = h.Job().ID == jobID
			return nil
		},
	}

	w := New(context.Background(), fs, nil, tasks, bus, testLogger(), Options{Continuous: true, PollInterval: 50 * time.Millisecond})
	defer w.Release()

	requireEvent(t, success, testTimeout)
	requireEvent(t, complete, testTimeout)

	if !sawPayload {
		t.Fatal("handler did not observe the expected job")
	}

	completed, _ := fs.snapshot()
	if len(completed) != 1 || completed[0] != jobID {
		t.Fatalf("completed = %v, want [%s]", completed, jobID)
	}
}

func TestWorkerHandlerErrorWithRetriesRemaining(t *testing.T) {
	fs := &fakeStore{}
	jobID := uuid.New()
	fs.push(&store.Job{ID: jobID, TaskIdentifier: "flaky", Attempts: 0, MaxAttempts: 3})

	bus := events.New(testLogger())
	jobErr := waitFor(bus, events.JobError)

	tasks := TaskRegistry{
		"flaky": func(ctx context.Context, payload []byte, h *Helpers) error {
			return errors.New("transient failure")
		},
	}

	w := New(context.Background(), fs, nil, tasks, bus, testLogger(), Options{Continuous: true, PollInterval: 50 * time.Millisecond})
	defer w.Release()

	ev := requireEvent(t, jobErr, testTimeout)
	if ev.JobID != jobID.String() {
		t.Fatalf("job id = %s, want %s", ev.JobID, jobID)
	}

	_, failed := fs.snapshot()
	if len(failed) != 1 || failed[0].jobID != jobID || failed[0].message != "transient failure" {
		t.Fatalf("failed = %+v, want one call for %s with message 'transient failure'", failed, jobID)
	}
}

func TestWorkerHandlerErrorRetriesExhausted(t *testing.T) {
	fs := &fakeStore{}
	jobID := uuid.New()
	// Attempts=2, MaxAttempts=3: this is the final permitted attempt.
	fs.push(&store.Job{ID: jobID, TaskIdentifier: "flaky", Attempts: 2, MaxAttempts: 3})

	bus := events.New(testLogger())
	jobFailed := waitFor(bus, events.JobFailed)

	tasks := TaskRegistry{
		"flaky": func(ctx context.Context, payload []byte, h *Helpers) error {
			return errors.New("still failing")
		},
	}

	w := New(context.Background(), fs, nil, tasks, bus, testLogger(), Options{Continuous: true, PollInterval: 50 * time.Millisecond})
	defer w.Release()

	ev := requireEvent(t, jobFailed, testTimeout)
	if ev.JobID != jobID.String() {
		t.Fatalf("job id = %s, want %s", ev.JobID, jobID)
	}
}

func TestWorkerUnsupportedTask(t *testing.T) {
	fs := &fakeStore{}
	jobID := uuid.New()
	fs.push(&store.Job{ID: jobID, TaskIdentifier: "unknown_task", Attempts: 0, MaxAttempts: 3})

	bus := events.New(testLogger())
	jobErr := waitFor(bus, events.JobError)

	w := New(context.Background(), fs, nil, TaskRegistry{}, bus, testLogger(), Options{Continuous: true, PollInterval: 50 * time.Millisecond})
	defer w.Release()

	requireEvent(t, jobErr, testTimeout)

	_, failed := fs.snapshot()
	if len(failed) != 1 {
		t.Fatalf("failed = %+v, want exactly one FailJob call", failed)
	}
	if failed[0].message != "Unsupported task 'unknown_task'" {
		t.Fatalf("message = %q, want the unsupported-task message", failed[0].message)
	}
}

func TestWorkerAcquisitionFailureThreshold(t *testing.T) {
	fs := &fakeStore{getJobErr: errAcquisitionFailed}

	bus := events.New(testLogger())

	w := New(context.Background(), fs, nil, TaskRegistry{}, bus, testLogger(), Options{
		Continuous:          true,
		PollInterval:        time.Millisecond,
		MaxContiguousErrors: 3,
	})

	select {
	case <-w.Completion():
	case <-time.After(testTimeout):
		t.Fatal("worker did not settle after exceeding MaxContiguousErrors")
	}

	if !errors.Is(w.Err(), errAcquisitionFailed) {
		t.Fatalf("completion error = %v, want it to wrap %v", w.Err(), errAcquisitionFailed)
	}
}

func TestWorkerNudgeDuringIdle(t *testing.T) {
	fs := &fakeStore{}

	bus := events.New(testLogger())
	empty := waitFor(bus, events.WorkerGetJobEmpty)

	w := New(context.Background(), fs, nil, TaskRegistry{}, bus, testLogger(), Options{
		Continuous:   true,
		PollInterval: time.Hour, // long enough that only a Nudge drives the next attempt
	})
	defer w.Release()

	requireEvent(t, empty, testTimeout) // first, unforced attempt

	if !w.Nudge() {
		t.Fatal("expected Nudge to wake the idle worker")
	}

	requireEvent(t, empty, testTimeout) // the nudged attempt
}

func TestWorkerReleaseDuringInFlightJob(t *testing.T) {
	fs := &fakeStore{}
	jobID := uuid.New()
	started := make(chan struct{})
	release := make(chan struct{})
	fs.push(&store.Job{ID: jobID, TaskIdentifier: "slow", Attempts: 0, MaxAttempts: 3})

	bus := events.New(testLogger())

	tasks := TaskRegistry{
		"slow": func(ctx context.Context, payload []byte, h *Helpers) error {
			close(started)
			<-release
			return nil
		},
	}

	w := New(context.Background(), fs, nil, tasks, bus, testLogger(), Options{Continuous: true, PollInterval: 50 * time.Millisecond})

	select {
	case <-started:
	case <-time.After(testTimeout):
		t.Fatal("handler never started")
	}

	if w.ActiveJob() == nil {
		t.Fatal("expected ActiveJob to report the running job")
	}

	done := w.Release()
	close(release)

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("worker did not settle after Release once the in-flight job finished")
	}

	if w.ActiveJob() != nil {
		t.Fatal("expected ActiveJob to be nil once the worker settled")
	}

	completed, _ := fs.snapshot()
	if len(completed) != 1 || completed[0] != jobID {
		t.Fatalf("completed = %v, want the in-flight job to have been completed before settling", completed)
	}
}

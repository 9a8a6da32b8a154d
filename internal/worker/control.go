package worker

import (
	"math/rand"
	"time"

	"github.com/vin-jex/job-orchestrator/internal/events"
	"github.com/vin-jex/job-orchestrator/internal/store"
)

// Nudge wakes an idle worker immediately, short-circuiting its current
// poll-interval wait, per spec.md §4.3. It returns true if the worker was
// idle and waiting, in which case an acquisition attempt starts at once.
// Otherwise (an acquisition or a job is in flight, or the worker is no
// longer active) it returns false and latches the fast path: an in-flight
// acquisition that finds no job polls again immediately instead of
// waiting PollInterval.
//
// Nudge panics if called on a worker whose completion future has already
// settled — spec.md models this as an assertion failure, not a runtime
// error a caller is expected to handle.
func (w *Worker) Nudge() bool {
	select {
	case <-w.completion.Done():
		panic("worker: Nudge called on a released worker")
	default:
	}

	w.mu.Lock()

	if w.doNextTimer == nil {
		// No timer is armed: a doNext is already in flight (or a previous
		// Nudge consumed the timer). Latch the fast path so an empty
		// acquisition re-polls immediately instead of scheduling a timer.
		w.again = true
		w.mu.Unlock()
		return false
	}

	t := w.doNextTimer
	w.doNextTimer = nil
	w.mu.Unlock()

	// Stop may race with the timer's own callback; either outcome is
	// fine because the callback only proceeds if it still owns
	// doNextTimer, which we just cleared.
	t.Stop()

	go w.doNext()
	return true
}

// Release puts the worker into shutdown mode: no further acquisition
// attempts are scheduled once the current job (if any) finishes, and the
// lease-recovery timer is stopped. Release does not attempt to abort a
// job that is currently executing, per spec.md §5.
//
// Release returns the channel backing the worker's completion future;
// callers that want to block until the worker has fully stopped should
// read from it.
func (w *Worker) Release() <-chan struct{} {
	w.events.Emit(events.Event{Name: events.WorkerRelease, WorkerID: w.id})

	w.mu.Lock()
	w.active = false
	// Only an idle worker (waiting on its poll timer) settles here; an
	// in-flight acquisition or job settles completion when it exits.
	idle := w.doNextTimer != nil
	if w.doNextTimer != nil {
		w.doNextTimer.Stop()
		w.doNextTimer = nil
	}
	if w.resetLockedTimer != nil {
		w.resetLockedTimer.Stop()
		w.resetLockedTimer = nil
	}
	w.mu.Unlock()

	if idle {
		w.completion.resolveWith(w.currentResetLockedInFlight())
	}

	return w.completion.Done()
}

// ID returns the worker's lease-owner identifier, generated randomly at
// construction time if Options.WorkerID was left empty.
func (w *Worker) ID() string {
	return w.id
}

// ActiveJob returns a copy of the job currently being executed, or nil
// if the worker is idle.
func (w *Worker) ActiveJob() *store.Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.activeJob == nil {
		return nil
	}
	job := *w.activeJob
	return &job
}

// Completion returns the channel that closes once the worker has fully
// stopped, whether due to Release, an unrecoverable acquisition error, or
// a fatal report failure.
func (w *Worker) Completion() <-chan struct{} {
	return w.completion.Done()
}

// Err returns the error the worker's completion future settled with, if
// any. Only meaningful after Completion() is closed.
func (w *Worker) Err() error {
	return w.completion.Err()
}

func randDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

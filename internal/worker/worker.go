// Package worker implements the single-worker job execution loop:
// acquisition, execution, completion reporting, and the lease-recovery
// background task, exactly as specified by SPEC_FULL.md §4.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vin-jex/job-orchestrator/internal/events"
	"github.com/vin-jex/job-orchestrator/internal/store"
)

// JobStore is the store contract the worker loop consumes, named in
// spec.md §6: getJob, completeJob, failJob, resetLockedAt.
type JobStore interface {
	GetJob(ctx context.Context, tasks []string, workerID string, useNodeTime bool, flagsToSkip []string) (*store.Job, error)
	CompleteJob(ctx context.Context, workerID string, jobID uuid.UUID) error
	FailJob(ctx context.Context, workerID string, jobID uuid.UUID, message string) error
	ResetLockedAt(ctx context.Context) error
}

// Worker is the single-worker execution loop of SPEC_FULL.md. The zero
// value is not usable; construct with New.
type Worker struct {
	id string

	jobStore JobStore
	pool     *pgxpool.Pool
	tasks    TaskRegistry
	events   *events.Bus
	logger   *slog.Logger
	opts     Options
	ctx      context.Context

	mu                  sync.Mutex
	active              bool
	activeJob           *store.Job
	doNextTimer         *time.Timer
	resetLockedTimer    *time.Timer
	resetLockedInFlight *future
	contiguousErrors    int
	again               bool

	completion *future
}

// New constructs a Worker and immediately schedules one job-acquisition
// attempt and one randomly-delayed lease-recovery arming, per spec.md §2.
//
// ctx bounds the lifetime of SQL calls and handler invocations the worker
// issues; it is not a cancellation signal for the worker loop itself —
// Release is. Callers that want the worker to stop on, say, SIGINT should
// call Release from their signal handler and pass a long-lived ctx (e.g.
// context.Background()) here, matching spec.md §5's "release does not
// attempt to abort" rule.
func New(
	ctx context.Context,
	jobStore JobStore,
	pool *pgxpool.Pool,
	tasks TaskRegistry,
	bus *events.Bus,
	logger *slog.Logger,
	opts Options,
) *Worker {
	opts = opts.withDefaults()

	w := &Worker{
		id:         opts.WorkerID,
		jobStore:   jobStore,
		pool:       pool,
		tasks:      tasks,
		events:     bus,
		logger:     logger.With("worker_id", opts.WorkerID),
		opts:       opts,
		ctx:        ctx,
		active:     true,
		completion: newFuture(),
	}

	w.events.Emit(events.Event{Name: events.WorkerCreate, WorkerID: w.id})

	go func() {
		<-w.completion.Done()
		ev := events.Event{Name: events.WorkerStop, WorkerID: w.id}
		ev.Err = w.completion.Err()
		w.events.Emit(ev)
	}()

	go w.doNext()
	w.armResetLocked(randDuration(0, 60*time.Second))

	return w
}

// doNext runs the worker's iterations as a loop rather than a recursive
// call chain, resolving the Open Question in spec.md §9: the "again"
// fast-path is a loop continuation, not a direct recursive doNext call,
// so a chatty nudger cannot grow the call stack unbounded.
func (w *Worker) doNext() {
	for w.runOnce() {
	}
}

// runOnce executes one iteration of spec.md §4.1 and reports whether the
// caller should immediately run another iteration (true) or stop because
// the next iteration will be scheduled later, or the worker has settled
// its completion future (false).
func (w *Worker) runOnce() bool {
	w.mu.Lock()
	if w.activeJob != nil {
		w.mu.Unlock()
		panic("worker: doNext invoked while a job is active")
	}
	w.again = false
	if w.doNextTimer != nil {
		w.doNextTimer.Stop()
		w.doNextTimer = nil
	}
	w.mu.Unlock()

	flagsToSkip, err := w.resolveForbiddenFlags()
	if err != nil {
		return w.onAcquisitionError(fmt.Errorf("resolving forbidden flags: %w", err))
	}

	w.events.Emit(events.Event{Name: events.WorkerGetJobStart, WorkerID: w.id, Tasks: w.tasks.Identifiers()})

	job, err := w.jobStore.GetJob(w.ctx, w.tasks.Identifiers(), w.id, w.opts.UseNodeTime, flagsToSkip)
	if err != nil {
		return w.onAcquisitionError(err)
	}

	w.mu.Lock()
	w.contiguousErrors = 0
	w.mu.Unlock()

	if job == nil {
		return w.onEmptyAcquisition()
	}

	w.mu.Lock()
	w.activeJob = job
	w.mu.Unlock()

	w.events.Emit(events.Event{Name: events.JobStart, WorkerID: w.id, JobID: job.ID.String(), TaskID: job.TaskIdentifier})

	w.executeJob(job)

	w.mu.Lock()
	w.activeJob = nil
	active := w.active
	w.mu.Unlock()

	if active {
		return true
	}

	w.completion.resolveWith(w.currentResetLockedInFlight())
	return false
}

func (w *Worker) resolveForbiddenFlags() ([]string, error) {
	if w.opts.ForbiddenFlags == nil {
		return nil, nil
	}
	return w.opts.ForbiddenFlags(w.ctx)
}

// onAcquisitionError implements spec.md §4.1 step 4.
func (w *Worker) onAcquisitionError(err error) bool {
	w.events.Emit(events.Event{Name: events.WorkerGetJobError, WorkerID: w.id, Err: err})

	if !w.opts.Continuous {
		w.completion.resolve(err)
		w.Release()
		return false
	}

	w.mu.Lock()
	w.contiguousErrors++
	count := w.contiguousErrors
	active := w.active
	w.mu.Unlock()

	if count >= w.opts.MaxContiguousErrors {
		w.completion.resolve(fmt.Errorf("failed %d times acquiring a job; most recent error: %w", count, err))
		w.Release()
		return false
	}

	if active {
		w.scheduleDoNext(w.opts.PollInterval)
		return false
	}

	w.completion.resolve(err)
	return false
}

// onEmptyAcquisition implements spec.md §4.1 step 5's no-job branch.
func (w *Worker) onEmptyAcquisition() bool {
	w.events.Emit(events.Event{Name: events.WorkerGetJobEmpty, WorkerID: w.id})

	if !w.opts.Continuous {
		w.completion.resolveWith(w.currentResetLockedInFlight())
		w.Release()
		return false
	}

	w.mu.Lock()
	active := w.active
	again := w.again
	w.mu.Unlock()

	if !active {
		w.completion.resolveWith(w.currentResetLockedInFlight())
		return false
	}

	if again {
		return true
	}

	w.scheduleDoNext(w.opts.PollInterval)
	return false
}

// executeJob implements spec.md §4.1 steps 6-7: handler invocation,
// outcome reporting, and the fatal "seppuku" path on a failed report.
func (w *Worker) executeJob(job *store.Job) {
	start := time.Now()

	handler, ok := w.tasks[job.TaskIdentifier]
	var handlerErr error
	if !ok {
		handlerErr = fmt.Errorf("Unsupported task '%s'", job.TaskIdentifier)
	} else {
		helpers := newHelpers(w.pool, w.logger, *job)
		handlerErr = invokeHandler(w.ctx, handler, job.Payload, helpers)
	}

	durationMS := time.Since(start).Milliseconds()

	var reportErr error
	if handlerErr != nil {
		w.events.Emit(events.Event{Name: events.JobError, WorkerID: w.id, JobID: job.ID.String(), TaskID: job.TaskIdentifier, Err: handlerErr, DurationMS: durationMS})
		if job.Attempts+1 >= job.MaxAttempts {
			w.events.Emit(events.Event{Name: events.JobFailed, WorkerID: w.id, JobID: job.ID.String(), TaskID: job.TaskIdentifier, Err: handlerErr})
		}

		message := errorMessage(handlerErr)
		w.logger.Error("job failed",
			"job_id", job.ID.String(),
			"task_identifier", job.TaskIdentifier,
			"duration_ms", durationMS,
			"error", message,
		)

		reportErr = w.jobStore.FailJob(w.ctx, w.id, job.ID, message)
	} else {
		w.events.Emit(events.Event{Name: events.JobSuccess, WorkerID: w.id, JobID: job.ID.String(), TaskID: job.TaskIdentifier, DurationMS: durationMS})
		if os.Getenv("NO_LOG_SUCCESS") == "" {
			w.logger.Info("job succeeded",
				"job_id", job.ID.String(),
				"task_identifier", job.TaskIdentifier,
				"duration_ms", durationMS,
			)
		}

		reportErr = w.jobStore.CompleteJob(w.ctx, w.id, job.ID)
	}

	if reportErr != nil {
		w.seppuku(job, reportErr)
		return
	}

	w.events.Emit(events.Event{Name: events.JobComplete, WorkerID: w.id, JobID: job.ID.String(), TaskID: job.TaskIdentifier, Err: handlerErr})
}

// seppuku implements spec.md §4.1 step 7: a failure to report outcome
// back to the store leaves the job's state uncertain, so the worker stops
// itself rather than risk double-processing or data loss. A peer's
// resetLockedAt will eventually recover the lease.
func (w *Worker) seppuku(job *store.Job, reportErr error) {
	fatalErr := fmt.Errorf("fatal error reporting outcome for job %s: %w", job.ID, reportErr)

	w.events.Emit(events.Event{Name: events.WorkerFatalError, WorkerID: w.id, JobID: job.ID.String(), Err: fatalErr})
	w.logger.Error("fatal: job report failed, releasing worker",
		"job_id", job.ID.String(),
		"error", fatalErr,
	)

	w.completion.resolve(fatalErr)
	w.Release()
}

func (w *Worker) currentResetLockedInFlight() *future {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.resetLockedInFlight
}

// errorMessage derives a guaranteed-non-empty message from a handler
// error, per spec.md §4.1 step 6.
func errorMessage(err error) string {
	if err == nil {
		return "Non error or error without message thrown."
	}
	msg := err.Error()
	if msg == "" {
		msg = "Non error or error without message thrown."
	}
	return msg
}

// invokeHandler runs handler, converting a panic into an error so one
// misbehaving task handler cannot crash the worker process.
func invokeHandler(ctx context.Context, handler TaskHandler, payload []byte, helpers *Helpers) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if recoveredErr, ok := r.(error); ok {
				err = fmt.Errorf("task handler panicked: %w", recoveredErr)
			} else {
				err = fmt.Errorf("task handler panicked: %v", r)
			}
		}
	}()

	return handler(ctx, payload, helpers)
}

// scheduleDoNext arms a timer that invokes doNext after d, race-free
// against a concurrent Nudge consuming the same timer: the timer handle
// is assigned to doNextTimer while still holding the lock the callback
// itself must acquire before checking whether it was the winner.
func (w *Worker) scheduleDoNext(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		w.mu.Lock()
		if w.doNextTimer != t {
			w.mu.Unlock()
			return
		}
		w.doNextTimer = nil
		w.mu.Unlock()
		w.doNext()
	})
	w.doNextTimer = t
}

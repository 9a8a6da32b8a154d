package worker

import "context"

// TaskHandler executes one job's payload. Returning a non-nil error marks
// the job failed; the worker loop derives the reported message from the
// error (see errorMessage in worker.go).
type TaskHandler func(ctx context.Context, payload []byte, helpers *Helpers) error

// TaskRegistry maps a task_identifier to the handler responsible for it.
// A job whose task_identifier has no entry produces a handler error
// ("Unsupported task '<id>'") rather than a panic, per spec.md §4.1 step 6.
type TaskRegistry map[string]TaskHandler

// Identifiers returns the registry's keys, used to restrict GetJob to
// task identifiers this worker can actually run.
func (r TaskRegistry) Identifiers() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	return ids
}

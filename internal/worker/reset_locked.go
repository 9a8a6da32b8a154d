package worker

import "time"

// armResetLocked schedules the next lease-recovery pass after d, per
// spec.md §4.2. The interval is re-randomized on every firing so that
// many workers sharing a database don't all run resetLockedAt in lockstep.
func (w *Worker) armResetLocked(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		w.mu.Lock()
		if w.resetLockedTimer != t {
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()
		w.runResetLocked()
	})
	w.resetLockedTimer = t
}

// runResetLocked invokes the store's lease-recovery call, tracks it as
// the "currently in flight" future so a concurrent Release/completion can
// wait for it to settle before the worker is considered fully stopped,
// and re-arms itself with a fresh random delay if the worker is still
// active.
func (w *Worker) runResetLocked() {
	f := newFuture()

	w.mu.Lock()
	w.resetLockedInFlight = f
	w.mu.Unlock()

	err := w.jobStore.ResetLockedAt(w.ctx)
	f.resolve(err)

	if err != nil {
		w.logger.Error("reset_locked_at failed", "error", err)
	}

	w.mu.Lock()
	if f == w.resetLockedInFlight {
		w.resetLockedInFlight = nil
	}
	active := w.active
	w.mu.Unlock()

	if !active {
		return
	}

	next := randDuration(w.opts.MinResetLockedInterval, w.opts.MaxResetLockedInterval)
	w.armResetLocked(next)
}

package worker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Default values for the option table in spec.md §6.
const (
	DefaultPollInterval           = 2 * time.Second
	DefaultMaxContiguousErrors    = 10
	DefaultUseNodeTime            = false
	DefaultMinResetLockedInterval = 8 * time.Minute
	DefaultMaxResetLockedInterval = 10 * time.Minute
)

// ForbiddenFlagsFunc resolves the current set of flags to skip. It is the
// concrete Go shape of spec.md §9's "produce a list-of-strings
// asynchronously" collapse of forbiddenFlags' three possible shapes
// (absent, list, or callable).
type ForbiddenFlagsFunc func(ctx context.Context) ([]string, error)

// StaticForbiddenFlags adapts a fixed list into a ForbiddenFlagsFunc, for
// callers with the "list of strings" shape of spec.md §6.
func StaticForbiddenFlags(flags []string) ForbiddenFlagsFunc {
	return func(context.Context) ([]string, error) {
		return flags, nil
	}
}

// Options configures a Worker per the table in spec.md §6.
type Options struct {
	// WorkerID identifies this worker as the lease owner. A random
	// "worker-<18 hex chars>" id is generated if empty.
	WorkerID string

	// PollInterval is the idle/backoff delay between acquisition attempts.
	PollInterval time.Duration

	// MaxContiguousErrors is the number of consecutive acquisition
	// failures after which the worker rejects its completion future.
	MaxContiguousErrors int

	// UseNodeTime forwards to GetJob: true means locked_at is computed in
	// this process, false lets Postgres' own clock supply it.
	UseNodeTime bool

	// MinResetLockedInterval / MaxResetLockedInterval bound the uniform
	// random re-arm delay of the lease-recovery timer.
	MinResetLockedInterval time.Duration
	MaxResetLockedInterval time.Duration

	// ForbiddenFlags resolves the flags to exclude on each acquisition
	// attempt. Nil means no flags are excluded.
	ForbiddenFlags ForbiddenFlagsFunc

	// Continuous selects continuous mode (run until Release) versus
	// single-shot mode (stop after one empty acquisition or one error).
	Continuous bool
}

// withDefaults fills zero-valued fields with the defaults named above and
// generates a WorkerID if absent.
func (o Options) withDefaults() Options {
	if o.WorkerID == "" {
		o.WorkerID = randomWorkerID()
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxContiguousErrors <= 0 {
		o.MaxContiguousErrors = DefaultMaxContiguousErrors
	}
	if o.MinResetLockedInterval <= 0 {
		o.MinResetLockedInterval = DefaultMinResetLockedInterval
	}
	if o.MaxResetLockedInterval <= 0 {
		o.MaxResetLockedInterval = DefaultMaxResetLockedInterval
	}
	if o.MaxResetLockedInterval <= o.MinResetLockedInterval {
		o.MaxResetLockedInterval = o.MinResetLockedInterval + time.Second
	}
	return o
}

func randomWorkerID() string {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to a
		// fixed suffix rather than a nil-derefing hex.EncodeToString.
		return "worker-000000000000000000"
	}
	return "worker-" + hex.EncodeToString(buf)
}

package store

import "errors"

// ErrInvalidStateTransition is returned when a caller attempts an
// operation a job's current state does not allow (e.g. cancelling a job
// that is currently locked by a worker).
var ErrInvalidStateTransition = errors.New("invalid job state transition")

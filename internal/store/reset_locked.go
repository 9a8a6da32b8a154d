package store

import (
	"context"
	"time"
)

// staleLeaseAfter is how long after its locked_at (set once, when GetJob
// takes the job) a lock must be before ResetLockedAt considers its owning
// worker dead. Generous relative to
// any single job's expected runtime, since release() never aborts
// in-flight work — a slow-but-alive worker must not be reaped.
const staleLeaseAfter = 4 * time.Hour

// ResetLockedAt implements spec.md §6's resetLockedAt contract: clears
// stale leases across the table so jobs abandoned by crashed workers
// become eligible for GetJob again. Best-effort; callers log failures but
// never treat them as fatal.
func (s *Store) ResetLockedAt(ctx context.Context) error {
	_, err := s.connectionPool.Exec(
		ctx,
		`
		UPDATE jobs
		SET locked_by = NULL,
			locked_at = NULL,
			updated_at = now()
		WHERE locked_at IS NOT NULL
			AND locked_at < now() - ($1 * interval '1 second')
		`,
		staleLeaseAfter.Seconds(),
	)
	return err
}

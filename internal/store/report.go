package store

import (
	"context"

	"github.com/google/uuid"
)

// CompleteJob implements spec.md §6's completeJob contract: marks job
// done and releases its lease. Completion deletes the row outright; a job
// already gone (completed concurrently, or never existed) is not an
// error, matching the idempotency requirement.
func (s *Store) CompleteJob(ctx context.Context, workerID string, jobID uuid.UUID) error {
	_, err := s.connectionPool.Exec(
		ctx,
		`DELETE FROM jobs WHERE id = $1 AND locked_by = $2`,
		jobID,
		workerID,
	)
	return err
}

// FailJob implements spec.md §6's failJob contract: records the attempt
// and message verbatim, then either schedules a retry (releasing the
// lease) or leaves the job in place, permanently failed, once attempts
// reaches max_attempts.
func (s *Store) FailJob(ctx context.Context, workerID string, jobID uuid.UUID, message string) error {
	_, err := s.connectionPool.Exec(
		ctx,
		`
		UPDATE jobs
		SET attempts = attempts + 1,
			last_error = $3,
			run_at = CASE
				WHEN attempts + 1 < max_attempts
					THEN now() + (least(power(2, attempts + 1), 3600) * interval '1 second')
				ELSE run_at
			END,
			locked_by = CASE
				WHEN attempts + 1 < max_attempts THEN NULL
				ELSE locked_by
			END,
			locked_at = CASE
				WHEN attempts + 1 < max_attempts THEN NULL
				ELSE locked_at
			END,
			updated_at = now()
		WHERE id = $1 AND locked_by = $2
		`,
		jobID,
		workerID,
		message,
	)
	return err
}

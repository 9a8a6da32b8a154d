package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetJob implements spec.md §6's getJob contract: atomically selects and
// locks one eligible job to workerID, or returns (nil, nil) if none
// qualifies. tasks restricts selection to task identifiers this worker's
// registry can actually handle; flagsToSkip excludes any job whose flags
// intersect it.
func (s *Store) GetJob(
	ctx context.Context,
	tasks []string,
	workerID string,
	useNodeTime bool,
	flagsToSkip []string,
) (*Job, error) {
	var job *Job

	err := s.WithTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(
			ctx,
			`
			SELECT id
			FROM jobs
			WHERE locked_by IS NULL
				AND run_at <= now()
				AND attempts < max_attempts
				AND task_identifier = ANY($1)
				AND (coalesce(cardinality($2::text[]), 0) = 0 OR NOT (flags && $2::text[]))
			ORDER BY priority, run_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
			`,
			tasks,
			flagsToSkip,
		)

		var jobID uuid.UUID
		if err := row.Scan(&jobID); err != nil {
			if err == pgx.ErrNoRows {
				return nil
			}
			return err
		}

		lockedAtArg := "now()"
		var lockedAt time.Time
		args := []any{workerID, jobID}
		if useNodeTime {
			lockedAt = time.Now()
			lockedAtArg = "$3"
			args = append(args, lockedAt)
		}

		updateRow := tx.QueryRow(
			ctx,
			`
			UPDATE jobs
			SET locked_by = $1,
				locked_at = `+lockedAtArg+`,
				updated_at = now()
			WHERE id = $2
			RETURNING
				id, task_identifier, payload, flags, priority, run_at,
				attempts, max_attempts, last_error, locked_at, locked_by,
				created_at, updated_at
			`,
			args...,
		)

		scanned, err := scanJob(updateRow)
		if err != nil {
			return err
		}

		job = scanned
		return nil
	})

	if err != nil {
		return nil, err
	}

	return job, nil
}

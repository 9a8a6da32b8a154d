package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Job mirrors the row shape named in SPEC_FULL.md §3. It is opaque to the
// worker loop beyond the fields the loop and its helpers read.
type Job struct {
	ID             uuid.UUID
	TaskIdentifier string
	Payload        []byte
	Flags          []string
	Priority       int16
	RunAt          time.Time
	Attempts       int
	MaxAttempts    int
	LastError      *string
	LockedAt       *time.Time
	LockedBy       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateJob inserts a new, immediately-eligible (or scheduled) job.
func (s *Store) CreateJob(
	ctx context.Context,
	jobID uuid.UUID,
	taskIdentifier string,
	payload []byte,
	flags []string,
	priority int16,
	runAt time.Time,
	maxAttempts int,
) error {
	_, err := s.connectionPool.Exec(
		ctx,
		`
		INSERT INTO jobs (
			id, task_identifier, payload, flags, priority, run_at,
			attempts, max_attempts
		)
		VALUES ($1, $2, $3, coalesce($4::text[], '{}'::text[]), $5, $6, 0, $7)
		`,
		jobID,
		taskIdentifier,
		payload,
		flags,
		priority,
		runAt,
		maxAttempts,
	)

	return err
}

// CancelJob deletes a job that is not currently locked by a worker.
// It returns ErrInvalidStateTransition when no row was deleted: the job is
// locked, never existed, or was already cancelled or completed. A second
// cancellation of the same job therefore returns that error too.
func (s *Store) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	commandTag, err := s.connectionPool.Exec(
		ctx,
		`DELETE FROM jobs WHERE id = $1 AND locked_by IS NULL`,
		jobID,
	)
	if err != nil {
		return err
	}

	if commandTag.RowsAffected() == 0 {
		return ErrInvalidStateTransition
	}

	return nil
}

// GetJobByID fetches a job's current row, or (nil, nil) if it does not
// exist (either never created, completed, or cancelled).
func (s *Store) GetJobByID(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	row := s.connectionPool.QueryRow(
		ctx,
		`
		SELECT
			id, task_identifier, payload, flags, priority, run_at,
			attempts, max_attempts, last_error, locked_at, locked_by,
			created_at, updated_at
		FROM jobs
		WHERE id = $1
		`,
		jobID,
	)

	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return job, nil
}

// ListJobs returns up to limit jobs, optionally filtered to only locked or
// only unlocked rows. Locked rows are running jobs and jobs that FailJob
// left locked after they exhausted max_attempts; unlocked rows are jobs
// waiting to run, including scheduled retries.
func (s *Store) ListJobs(ctx context.Context, onlyLocked *bool, limit int) ([]*Job, error) {
	query := `
		SELECT
			id, task_identifier, payload, flags, priority, run_at,
			attempts, max_attempts, last_error, locked_at, locked_by,
			created_at, updated_at
		FROM jobs
	`
	args := []any{}

	if onlyLocked != nil {
		if *onlyLocked {
			query += ` WHERE locked_by IS NOT NULL`
		} else {
			query += ` WHERE locked_by IS NULL`
		}
	}

	query += ` ORDER BY created_at DESC LIMIT $1`
	args = append(args, limit)

	rows, err := s.connectionPool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	err := row.Scan(
		&job.ID,
		&job.TaskIdentifier,
		&job.Payload,
		&job.Flags,
		&job.Priority,
		&job.RunAt,
		&job.Attempts,
		&job.MaxAttempts,
		&job.LastError,
		&job.LockedAt,
		&job.LockedBy,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

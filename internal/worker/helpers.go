package worker

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vin-jex/job-orchestrator/internal/store"
)

// Helpers is the per-job context built once per handler invocation, per
// spec.md §4.4: db-client acquisition, a job-scoped logger, and a
// read-only metadata view of the job.
type Helpers struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	job    store.Job
}

func newHelpers(pool *pgxpool.Pool, logger *slog.Logger, job store.Job) *Helpers {
	return &Helpers{
		pool: pool,
		logger: logger.With(
			"job_id", job.ID.String(),
			"task_identifier", job.TaskIdentifier,
			"attempt", job.Attempts+1,
		),
		job: job,
	}
}

// WithPgClient borrows a pooled connection for the duration of fn. The
// connection is returned to the pool as soon as fn returns, regardless of
// error.
func (h *Helpers) WithPgClient(ctx context.Context, fn func(*pgxpool.Conn) error) error {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	return fn(conn)
}

// Logger returns the job-scoped logger.
func (h *Helpers) Logger() *slog.Logger {
	return h.logger
}

// Job returns a read-only view of the job metadata named in spec.md §3.
func (h *Helpers) Job() store.Job {
	return h.job
}

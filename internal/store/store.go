// Package store implements the Postgres-backed job queue: the concrete
// bodies for the getJob/completeJob/failJob/resetLockedAt contract that
// spec.md treats as an external collaborator.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IMPORTANT:
// All job state transitions (locking, completion, failure) MUST go
// through the methods in this package. Any direct UPDATE of jobs.locked_*
// or jobs.attempts outside them is a correctness bug.

// Store wraps a pooled Postgres connection and implements the job store
// contract consumed by internal/worker.
type Store struct {
	connectionPool *pgxpool.Pool
}

// NewStore connects to databaseURL with a small pool sized for a handful
// of workers plus the control-plane API.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	return &Store{connectionPool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.connectionPool.Close()
}

// Ping verifies connectivity, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.connectionPool.Ping(ctx)
}

// Pool exposes the underlying pool for the worker's per-job
// WithPgClient helper; callers must return borrowed connections promptly.
func (s *Store) Pool() *pgxpool.Pool {
	return s.connectionPool
}

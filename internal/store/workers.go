package store

import "context"

// UpsertWorkerHeartbeat records that workerID is alive, for operational
// visibility only — the worker loop's own correctness never depends on
// this table; lease staleness is judged from jobs.locked_at.
func (s *Store) UpsertWorkerHeartbeat(ctx context.Context, workerID string) error {
	_, err := s.connectionPool.Exec(ctx, `
		INSERT INTO workers (id, last_heartbeat)
		VALUES ($1, now())
		ON CONFLICT (id)
		DO UPDATE SET last_heartbeat = now()
	`,
		workerID,
	)

	return err
}

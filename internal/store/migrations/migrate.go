// Package migrations applies the embedded SQL migrations against a
// Postgres database. This is the "small migration helper" spec.md §1
// names as out of scope for the worker loop itself; its algorithm is
// deliberately minimal.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

// ErrIncompatibleSchema is returned when the database has already been
// migrated to a version newer than this binary knows about — running an
// old binary against a newer schema risks silent data corruption, so the
// caller must refuse to start rather than guess.
var ErrIncompatibleSchema = errors.New("database schema is newer than this binary supports")

type migration struct {
	version  int
	name     string
	contents string
}

func loadMigrations() ([]migration, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := versionFromFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migrations: %s: %w", entry.Name(), err)
		}

		contents, err := files.ReadFile(entry.Name())
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, migration{
			version:  version,
			name:     entry.Name(),
			contents: string(contents),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })

	return migrations, nil
}

func versionFromFilename(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("missing version prefix")
	}
	return strconv.Atoi(prefix)
}

// Apply runs every migration this binary knows about that the database
// hasn't seen yet, in version order. It returns ErrIncompatibleSchema if
// the database's recorded schema version is ahead of the newest
// migration this binary embeds.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    int PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	err = pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&currentVersion)
	if err != nil {
		return err
	}

	newestKnown := 0
	for _, m := range migrations {
		if m.version > newestKnown {
			newestKnown = m.version
		}
	}

	if currentVersion > newestKnown {
		return ErrIncompatibleSchema
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if err := applyOne(ctx, pool, m); err != nil {
			return fmt.Errorf("migrations: applying %s: %w", m.name, err)
		}
	}

	return nil
}

func applyOne(ctx context.Context, pool *pgxpool.Pool, m migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.contents); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

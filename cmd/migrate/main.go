// Command migrate applies the embedded SQL migrations in
// internal/store/migrations against DATABASE_URL.
//
// Exit code 57 means the database's schema version is ahead of this
// binary — redeploy a newer binary rather than re-running this one.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/vin-jex/job-orchestrator/internal/config"
	"github.com/vin-jex/job-orchestrator/internal/observability"
	"github.com/vin-jex/job-orchestrator/internal/store/migrations"
)

const exitCodeIncompatibleSchema = 57

func main() {
	_ = godotenv.Load()

	logger := observability.NewLogger("migrate")

	cfg, err := config.LoadMigrateConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		if errors.Is(err, migrations.ErrIncompatibleSchema) {
			logger.Error("database schema is newer than this binary supports")
			os.Exit(exitCodeIncompatibleSchema)
		}

		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migrations applied")
}

// Command ledgercheck applies database migrations and runs a ledger
// integrity sweep over one or all entities, exiting non-zero when any
// entity's hash chain is broken.
//
// Usage:
//
//	ledgercheck [-entity <entity-id>] [-skip-migrations]
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/corebooks/corebooks/internal/apperrors"
	"github.com/corebooks/corebooks/internal/core/services"
	"github.com/corebooks/corebooks/internal/platform/config"
	"github.com/corebooks/corebooks/internal/platform/database"
	"github.com/corebooks/corebooks/internal/platform/logging"
	"github.com/corebooks/corebooks/internal/repositories/database/pgsql"
)

func main() {
	entityID := flag.String("entity", "", "verify a single entity (default: all entities)")
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply database migrations before the sweep")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	ctx := logging.WithCtx(context.Background(), logger)

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connection pool established")

	if !*skipMigrations {
		if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	repos := pgsql.NewRepositories(pool)
	container := services.NewServiceContainer(repos, services.ContainerConfig{
		BlockUnassignInClosedPeriods: cfg.BlockUnassignInClosedPeriods,
		IntegrityBatchSize:           cfg.IntegrityBatchSize,
	})

	var entityIDs []string
	if *entityID != "" {
		entityIDs = []string{*entityID}
	} else {
		entities, err := repos.Entities.ListEntities(ctx)
		if err != nil {
			logger.Error("Failed to list entities", slog.String("error", err.Error()))
			os.Exit(1)
		}
		for _, entity := range entities {
			entityIDs = append(entityIDs, entity.EntityID)
		}
	}

	broken := false
	for _, id := range entityIDs {
		opCtx := logging.WithOperation(ctx, "ledgercheck")
		report, err := container.Ledger.VerifyIntegrity(opCtx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrIntegrity) {
				broken = true
				logger.Error("Ledger chain broken",
					slog.String("entity_id", id),
					slog.String("first_broken_ledger_id", report.FirstBrokenLedgerID),
					slog.Int64("rows_verified", report.RowsVerified))
				continue
			}
			logger.Error("Integrity sweep failed",
				slog.String("entity_id", id), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Ledger intact",
			slog.String("entity_id", id),
			slog.Int64("rows_verified", report.RowsVerified))
	}

	if broken {
		os.Exit(2)
	}
}

// runMigrations applies pending up migrations using a short-lived
// database/sql connection through the pgx stdlib driver.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer migrationDB.Close() //nolint:errcheck

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		if sourceErr != nil {
			return sourceErr
		}
		return dbErr
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Database migrations applied")
	}
	return nil
}

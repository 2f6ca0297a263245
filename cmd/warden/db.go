package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/database/migrations"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var ErrMemoryMigrations = errors.New("migrations are not available with --memory")

// migratorAction is an action that needs a migrator.
type migratorAction func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error

func dbCommand() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Database management",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize migration tables",
				Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, _ *zap.Logger) error {
					return migrator.Init(ctx)
				}),
			},
			{
				Name:  "migrate",
				Usage: "Run pending migrations",
				Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
					if err := migrator.Init(ctx); err != nil {
						return err
					}

					if err := migrator.Lock(ctx); err != nil {
						return err
					}
					defer migrator.Unlock(ctx) //nolint:errcheck

					group, err := migrator.Migrate(ctx)
					if err != nil {
						return err
					}

					if group.IsZero() {
						logger.Info("No new migrations to run (database is up to date)")
						return nil
					}

					logger.Info("Successfully migrated", zap.String("group", group.String()))
					return nil
				}),
			},
			{
				Name:  "rollback",
				Usage: "Rollback the last migration group",
				Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
					if err := migrator.Lock(ctx); err != nil {
						return err
					}
					defer migrator.Unlock(ctx) //nolint:errcheck

					group, err := migrator.Rollback(ctx)
					if err != nil {
						return err
					}

					if group.IsZero() {
						logger.Info("No groups to roll back")
						return nil
					}

					logger.Info("Successfully rolled back", zap.String("group", group.String()))
					return nil
				}),
			},
			{
				Name:  "status",
				Usage: "Show migration status",
				Action: withMigrator(func(ctx context.Context, migrator *migrate.Migrator, logger *zap.Logger) error {
					ms, err := migrator.MigrationsWithStatus(ctx)
					if err != nil {
						return err
					}

					logger.Info("Migration status",
						zap.String("migrations", ms.String()),
						zap.String("unapplied", ms.Unapplied().String()),
						zap.String("last_group", ms.LastGroup().String()))
					return nil
				}),
			},
		},
	}
}

// withMigrator connects to the database without checking migrations and
// hands a migrator to the action.
func withMigrator(fn migratorAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Bool("memory") {
			return ErrMemoryMigrations
		}

		cfg, _, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync() //nolint:errcheck

		db, err := database.NewConnection(ctx, &cfg.Common.PostgreSQL, logger, false)
		if err != nil {
			return err
		}
		defer db.Close()

		return fn(ctx, migrate.NewMigrator(db.DB(), migrations.Migrations), logger)
	}
}

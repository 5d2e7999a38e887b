package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wafflestudio/seminar-system/internal/infrastructure/config"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/db/mongo"
	"github.com/wafflestudio/seminar-system/internal/infrastructure/db/postgres"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(newMigrateUpCmd(opts))
	cmd.AddCommand(newMigrateDownCmd(opts))
	return cmd
}

func newMigrateUpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations (postgres) or create indexes (mongo)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx, opts.envFiles()...)
			if err != nil {
				return err
			}
			log := initLogger(cfg)

			if cfg.StoreDriver == config.DriverPostgres {
				return postgres.MigrateUp(cfg.Postgres.URL, log)
			}

			client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			store := mongo.NewStore(client, db)
			defer store.Close(ctx)
			if err := store.EnsureIndexes(ctx); err != nil {
				return err
			}
			log.Info().Str("database", cfg.Mongo.Database).Msg("mongo indexes ensured")
			return nil
		},
	}
}

func newMigrateDownCmd(opts *rootOptions) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back postgres migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), opts.envFiles()...)
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("migrate down: only supported for STORE_DRIVER=%s", config.DriverPostgres)
			}
			return postgres.MigrateDown(cfg.Postgres.URL, steps, initLogger(cfg))
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	return cmd
}

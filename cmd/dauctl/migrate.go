package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/infra/config"
	"github.com/stephaneglaugier91/daulingo/internal/infra/database"
	"github.com/stephaneglaugier91/daulingo/internal/infra/logger"
	postgresrepo "github.com/stephaneglaugier91/daulingo/internal/repository/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the daulingo schema, tables and indexes if missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logger.New(cfg.App.Env)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() {
				_ = log.Sync()
			}()

			pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
			if err != nil {
				return fmt.Errorf("init postgres: %w", err)
			}
			defer pool.Close()

			if err := postgresrepo.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}

			log.Info("schema up to date", zap.String("database", cfg.Postgres.Database))
			return nil
		},
	}
}

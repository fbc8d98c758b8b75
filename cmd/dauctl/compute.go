package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/infra/config"
	"github.com/stephaneglaugier91/daulingo/internal/infra/database"
	"github.com/stephaneglaugier91/daulingo/internal/infra/logger"
	postgresrepo "github.com/stephaneglaugier91/daulingo/internal/repository/postgres"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

func newComputeCmd() *cobra.Command {
	var startFlag, endFlag string

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Recompute the daily growth-state table for a date window.",
		Long:  "Recomputes growth states for [--start, --end]. Missing bounds default to the min/max activity dates.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			start, err := parseDateFlag(startFlag)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
			end, err := parseDateFlag(endFlag)
			if err != nil {
				return fmt.Errorf("parse --end: %w", err)
			}

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

			repos := postgresrepo.NewRepositories(pool)
			if cfg.Compute.InsertChunkSize > 0 {
				repos.States.WithInsertChunk(cfg.Compute.InsertChunkSize)
			}

			policy := usecase.ClassifierPolicy{NormalizeWeekends: cfg.Compute.NormalizeWeekends}
			states := usecase.NewStateService(repos.Users, repos.Activity, repos.States, policy, log)

			resolvedStart, resolvedEnd, err := states.ResolveWindow(ctx, start, end)
			if err != nil {
				return fmt.Errorf("resolve window: %w", err)
			}

			result, err := states.Compute(ctx, resolvedStart, resolvedEnd)
			if err != nil {
				return fmt.Errorf("compute states: %w", err)
			}

			log.Info("recompute finished",
				zap.Stringer("window_start", result.WindowStart),
				zap.Stringer("window_end", result.WindowEnd),
				zap.Int("users_seen", result.UsersSeen),
				zap.Int64("rows_deleted", result.RowsDeleted),
				zap.Int("rows_written", result.RowsWritten),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "window end (YYYY-MM-DD)")

	return cmd
}

func parseDateFlag(raw string) (*domain.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := domain.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

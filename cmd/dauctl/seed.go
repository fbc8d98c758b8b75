package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/infra/config"
	"github.com/stephaneglaugier91/daulingo/internal/infra/database"
	"github.com/stephaneglaugier91/daulingo/internal/infra/logger"
	postgresrepo "github.com/stephaneglaugier91/daulingo/internal/repository/postgres"
	"github.com/stephaneglaugier91/daulingo/internal/usecase"
)

const seedBatchSize = 5000

func newSeedCmd() *cobra.Command {
	var (
		userCount  int
		eventCount int
		startFlag  string
		endFlag    string
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate deterministic fake activity and ingest it.",
		Long:  "Generates --events random activity events across --users users inside [--start, --end] and funnels them through the ingestion pipeline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if userCount <= 0 || eventCount <= 0 {
				return fmt.Errorf("--users and --events must be positive")
			}

			start, err := domain.ParseDate(startFlag)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
			end, err := domain.ParseDate(endFlag)
			if err != nil {
				return fmt.Errorf("parse --end: %w", err)
			}
			if start.After(end) {
				return fmt.Errorf("--start must not be after --end")
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
			ingest := usecase.NewIngestService(repos.Users, repos.Activity, log)

			rng := rand.New(rand.NewSource(seed))
			days := end.DaysSince(start) + 1

			var total usecase.IngestResult
			batch := make([]domain.ActivityEvent, 0, seedBatchSize)
			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				result, err := ingest.Ingest(ctx, batch)
				if err != nil {
					return fmt.Errorf("ingest batch: %w", err)
				}
				total.InsertedEvents += result.InsertedEvents
				total.NewUsers += result.NewUsers
				total.UpdatedUsers += result.UpdatedUsers
				batch = batch[:0]
				return nil
			}

			for i := 0; i < eventCount; i++ {
				day := start.AddDays(rng.Intn(days))
				occurredAt := day.Time().Add(time.Duration(rng.Intn(24*60*60)) * time.Second)
				batch = append(batch, domain.ActivityEvent{
					UserID:     fmt.Sprintf("user-%05d", rng.Intn(userCount)+1),
					OccurredAt: occurredAt,
				})
				if len(batch) == seedBatchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			}
			if err := flush(); err != nil {
				return err
			}

			log.Info("seeding finished",
				zap.Int("inserted_events", total.InsertedEvents),
				zap.Int("new_users", total.NewUsers),
				zap.Int("updated_users", total.UpdatedUsers),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&userCount, "users", 1000, "number of distinct users to draw from")
	cmd.Flags().IntVar(&eventCount, "events", 100000, "number of activity events to generate")
	cmd.Flags().StringVar(&startFlag, "start", "", "earliest activity date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "latest activity date (YYYY-MM-DD)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for reproducible datasets")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

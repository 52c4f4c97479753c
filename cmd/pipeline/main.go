package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/kelvinchuks/customer-insights/internal/adapters/cache"
	"github.com/kelvinchuks/customer-insights/internal/adapters/database"
	"github.com/kelvinchuks/customer-insights/internal/application/services"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/redis"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/observability"
	"github.com/kelvinchuks/customer-insights/pkg/config"
)

func main() {
	var envFile string
	flag.StringVar(&envFile, "env-file", "", "Optional .env file to load before reading configuration")
	flag.Parse()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Fatalf("Failed to load env file %s: %v", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("customer-insights-pipeline", os.Getenv("ENVIRONMENT"))
	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	snapshotRepo := database.NewSnapshotAdapter(pgClient)
	featureRepo := database.NewFeatureAdapter(pgClient)
	segmentRepo := database.NewSegmentAdapter(pgClient)
	churnRepo := database.NewChurnLabelAdapter(pgClient)
	registry := database.NewModelRegistryAdapter(pgClient)

	scores := database.NewScoreAdapter(pgClient)

	// Redis is optional for a batch run; without it scores are served
	// straight from Postgres.
	if redisClient, err := redis.NewClient(&cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; score cache disabled")
	} else {
		defer redisClient.Close()
		scores = database.NewCachedScoreAdapter(scores, cache.NewRedisAdapter(redisClient))
	}

	clock := clockwork.NewRealClock()
	pipeline := services.NewPipelineService(
		snapshotRepo,
		services.NewFeatureService(snapshotRepo, featureRepo, clock, cfg.Pipeline.FeatureWorkers),
		services.NewSegmentationService(featureRepo, segmentRepo, services.SegmentationConfig{
			SegmentCount: cfg.Pipeline.SegmentCount,
			AutoK:        cfg.Pipeline.AutoSegmentCount,
			RandomSeed:   cfg.Pipeline.RandomSeed,
		}),
		services.NewChurnService(featureRepo, churnRepo, cfg.Pipeline.ChurnHorizonDays),
		services.NewTrainingService(featureRepo, churnRepo, registry, clock, services.TrainingConfig{
			TrainCutoff:     cfg.Pipeline.TrainCutoff,
			OversampleRatio: cfg.Pipeline.OversampleRatio,
			RandomSeed:      cfg.Pipeline.RandomSeed,
		}),
		services.NewScoringService(featureRepo, registry, scores, clock),
		cfg.Pipeline,
	)

	start := time.Now()
	summary, err := pipeline.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline run failed")
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("customers", summary.Features.Computed).
		Int("segments_k", summary.Segments.K).
		Int("at_risk", summary.Churn.AtRisk).
		Str("champion", summary.Training.ChampionName).
		Int("scored", summary.Scoring.Customers).
		Msg("pipeline run complete")
}

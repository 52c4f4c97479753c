package main

import (
	"context"
	"flag"
	"fmt"
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
	var customerID string
	flag.StringVar(&customerID, "customer", "", "Look up one customer's current risk score instead of rescoring")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("customer-insights-score", os.Getenv("ENVIRONMENT"))
	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scores := database.NewScoreAdapter(pgClient)
	if redisClient, err := redis.NewClient(&cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; score cache disabled")
	} else {
		defer redisClient.Close()
		scores = database.NewCachedScoreAdapter(scores, cache.NewRedisAdapter(redisClient))
	}

	if customerID != "" {
		score, err := scores.GetByCustomer(ctx, customerID)
		if err != nil {
			logger.Fatal().Err(err).Str("customer_id", customerID).Msg("failed to look up risk score")
		}
		fmt.Printf("%s\t%.4f\t(model %s, scored %s)\n",
			score.CustomerID, score.Score, score.ArtifactID, score.ScoredAt.Format(time.RFC3339))
		return
	}

	featureRepo := database.NewFeatureAdapter(pgClient)
	registry := database.NewModelRegistryAdapter(pgClient)
	svc := services.NewScoringService(featureRepo, registry, scores, clockwork.NewRealClock())

	start := time.Now()
	result, err := svc.ScoreAll(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("scoring run failed")
	}
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Str("artifact_id", result.ArtifactID).
		Int("customers", result.Customers).
		Msg("scoring run complete")
}

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
	"github.com/olekukonko/tablewriter"

	"github.com/kelvinchuks/customer-insights/internal/adapters/database"
	"github.com/kelvinchuks/customer-insights/internal/application/services"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/observability"
	"github.com/kelvinchuks/customer-insights/pkg/config"
)

func main() {
	var cutoffFlag string
	var history bool
	flag.StringVar(&cutoffFlag, "cutoff", "", "Train/test cutoff (RFC3339), overrides TRAIN_CUTOFF")
	flag.BoolVar(&history, "history", false, "Print the artifact registry instead of training")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cutoffFlag != "" {
		cutoff, err := time.Parse(time.RFC3339, cutoffFlag)
		if err != nil {
			log.Fatalf("Invalid -cutoff value %q: %v", cutoffFlag, err)
		}
		cfg.Pipeline.TrainCutoff = cutoff
	}

	observability.InitLogger("customer-insights-train", os.Getenv("ENVIRONMENT"))
	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	featureRepo := database.NewFeatureAdapter(pgClient)
	churnRepo := database.NewChurnLabelAdapter(pgClient)
	registry := database.NewModelRegistryAdapter(pgClient)

	if history {
		if err := printRegistry(ctx, registry); err != nil {
			logger.Fatal().Err(err).Msg("failed to list model artifacts")
		}
		return
	}

	svc := services.NewTrainingService(featureRepo, churnRepo, registry, clockwork.NewRealClock(), services.TrainingConfig{
		TrainCutoff:     cfg.Pipeline.TrainCutoff,
		OversampleRatio: cfg.Pipeline.OversampleRatio,
		RandomSeed:      cfg.Pipeline.RandomSeed,
	})

	start := time.Now()
	result, err := svc.Train(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("training run failed")
	}

	printComparisonTable(result)
	logger.Info().
		Dur("elapsed", time.Since(start)).
		Str("champion", result.ChampionName).
		Str("artifact_id", result.ChampionID).
		Msg("training run complete")
}

func printRegistry(ctx context.Context, registry repositories.ModelRegistry) error {
	artifacts, err := registry.List(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Candidate", "F1", "AUC", "Active", "Created"})
	for _, a := range artifacts {
		active := ""
		if a.Active {
			active = "*"
		}
		table.Append([]string{
			a.ID,
			a.Name(),
			fmt.Sprintf("%.4f", a.Metrics.F1),
			fmt.Sprintf("%.4f", a.Metrics.AUC),
			active,
			a.CreatedAt.Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}

func printComparisonTable(result *services.TrainingResult) {
	fmt.Printf("Cutoff %s: %d train / %d test (at-risk %.1f%% / %.1f%%)\n",
		result.Cutoff.Format(time.RFC3339),
		result.TrainSize, result.TestSize,
		result.TrainAtRisk*100, result.TestAtRisk*100)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Candidate", "Strategy", "Precision", "Recall", "F1", "AUC", "Champion"})
	for _, c := range result.Candidates {
		marker := ""
		if c.ArtifactID == result.ChampionID {
			marker = "*"
		}
		table.Append([]string{
			c.Name,
			c.Strategy,
			fmt.Sprintf("%.4f", c.Metrics.Precision),
			fmt.Sprintf("%.4f", c.Metrics.Recall),
			fmt.Sprintf("%.4f", c.Metrics.F1),
			fmt.Sprintf("%.4f", c.Metrics.AUC),
			marker,
		})
	}
	table.Render()
}

package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/ml"
)

// ScoringResult reports one scoring pass.
type ScoringResult struct {
	ArtifactID string
	Customers  int
}

// ScoringService applies the active champion to the current feature table
// and replaces the risk-score table wholesale. It never trains or mutates a
// model; the artifact bundle carries the frozen classifier and the scaler
// fitted at training time.
type ScoringService struct {
	features repositories.FeatureRepository
	registry repositories.ModelRegistry
	scores   repositories.ScoreRepository
	clock    clockwork.Clock
}

// NewScoringService creates a new scoring service
func NewScoringService(
	features repositories.FeatureRepository,
	registry repositories.ModelRegistry,
	scores repositories.ScoreRepository,
	clock clockwork.Clock,
) *ScoringService {
	return &ScoringService{
		features: features,
		registry: registry,
		scores:   scores,
		clock:    clock,
	}
}

// ScoreAll scores every customer in the feature table with the active model.
func (s *ScoringService) ScoreAll(ctx context.Context) (*ScoringResult, error) {
	artifact, err := s.registry.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active model: %w", err)
	}

	var bundle modelBundle
	if err := json.Unmarshal(artifact.ModelParams, &bundle); err != nil {
		return nil, fmt.Errorf("artifact %s has a corrupt model bundle: %w", artifact.ID, err)
	}
	model, err := ml.DecodeModel(bundle.Model)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", artifact.ID, err)
	}

	vectors, err := s.features.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, apperrors.NewValidationError("no feature vectors available; run feature computation first")
	}

	raw := make([][]float64, len(vectors))
	for i := range vectors {
		raw[i] = featureRow(&vectors[i], bundle.FeatureSet)
	}
	scaled := bundle.Scaler.Transform(raw)

	scoredAt := s.clock.Now().UTC()
	scores := make([]entities.RiskScore, len(vectors))
	for i, v := range vectors {
		scores[i] = entities.RiskScore{
			CustomerID: v.CustomerID,
			ArtifactID: artifact.ID,
			Score:      clampProbability(model.PredictProba(scaled[i])),
			ScoredAt:   scoredAt,
		}
	}

	if err := s.scores.ReplaceAll(ctx, scores); err != nil {
		return nil, fmt.Errorf("failed to persist risk scores: %w", err)
	}

	log.Info().
		Str("artifact_id", artifact.ID).
		Str("model", artifact.Name()).
		Int("customers", len(scores)).
		Msg("scoring complete")
	return &ScoringResult{ArtifactID: artifact.ID, Customers: len(scores)}, nil
}

func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

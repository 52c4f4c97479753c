package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
)

// ChurnLabelResult reports one labeling run.
type ChurnLabelResult struct {
	Customers int
	AtRisk    int
}

// ChurnService derives the binary at-risk label from purchase recency: a
// customer whose last order is further back than the horizon counts as
// at risk. Labels are a pure function of the feature table and the horizon.
type ChurnService struct {
	features repositories.FeatureRepository
	labels   repositories.ChurnLabelRepository
	horizon  int
}

// NewChurnService creates a new churn labeling service
func NewChurnService(
	features repositories.FeatureRepository,
	labels repositories.ChurnLabelRepository,
	horizonDays int,
) *ChurnService {
	return &ChurnService{features: features, labels: labels, horizon: horizonDays}
}

// BuildLabels labels every customer in the feature table and replaces the
// previous labels wholesale.
func (s *ChurnService) BuildLabels(ctx context.Context) (*ChurnLabelResult, error) {
	if s.horizon <= 0 {
		return nil, apperrors.NewValidationError("churn horizon must be a positive number of days")
	}

	vectors, err := s.features.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, apperrors.NewValidationError("no feature vectors available; run feature computation first")
	}

	labels := make([]entities.ChurnLabel, len(vectors))
	atRisk := 0
	for i, v := range vectors {
		label := entities.ChurnLabel{
			CustomerID:  v.CustomerID,
			AtRisk:      v.RecencyDays > float64(s.horizon),
			HorizonDays: s.horizon,
		}
		if label.AtRisk {
			atRisk++
		}
		labels[i] = label
	}

	if err := s.labels.ReplaceAll(ctx, labels); err != nil {
		return nil, fmt.Errorf("failed to persist churn labels: %w", err)
	}

	log.Info().
		Int("customers", len(labels)).
		Int("at_risk", atRisk).
		Int("horizon_days", s.horizon).
		Msg("churn labeling complete")
	return &ChurnLabelResult{Customers: len(labels), AtRisk: atRisk}, nil
}

package repositories

import (
	"context"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

// FeatureRepository persists per-customer feature vectors.
type FeatureRepository interface {
	// ReplaceAll atomically replaces the whole feature table with vectors
	// from the current run. Full overwrite, never an incremental merge.
	ReplaceAll(ctx context.Context, vectors []entities.CustomerFeatureVector) error

	// List returns all feature vectors ordered by customer ID.
	List(ctx context.Context) ([]entities.CustomerFeatureVector, error)
}

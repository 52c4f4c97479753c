package repositories

import (
	"context"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

// ModelRegistry is the versioned store of trained model artifacts. Exactly
// one artifact is active at a time; activation is an atomic transition.
type ModelRegistry interface {
	// Save inserts a new (inactive) artifact row.
	Save(ctx context.Context, artifact *entities.ModelArtifact) error

	// Activate deactivates the current champion and activates the given
	// artifact as a single transaction.
	Activate(ctx context.Context, artifactID string) error

	// GetActive returns the currently active artifact.
	GetActive(ctx context.Context) (*entities.ModelArtifact, error)

	// List returns all artifacts, newest first.
	List(ctx context.Context) ([]*entities.ModelArtifact, error)
}

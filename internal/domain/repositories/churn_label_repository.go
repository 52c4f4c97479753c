package repositories

import (
	"context"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

// ChurnLabelRepository persists derived at-risk labels.
type ChurnLabelRepository interface {
	// ReplaceAll atomically replaces all churn labels with the current
	// run's output.
	ReplaceAll(ctx context.Context, labels []entities.ChurnLabel) error

	// List returns all churn labels ordered by customer ID.
	List(ctx context.Context) ([]entities.ChurnLabel, error)
}

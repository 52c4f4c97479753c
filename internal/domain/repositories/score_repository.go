package repositories

import (
	"context"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

// ScoreRepository persists per-customer risk scores.
type ScoreRepository interface {
	// ReplaceAll atomically replaces all risk scores with the current
	// scoring pass's output.
	ReplaceAll(ctx context.Context, scores []entities.RiskScore) error

	// GetByCustomer returns one customer's current risk score.
	GetByCustomer(ctx context.Context, customerID string) (*entities.RiskScore, error)

	// List returns all risk scores ordered by customer ID.
	List(ctx context.Context) ([]entities.RiskScore, error)
}

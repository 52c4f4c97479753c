package repositories

import (
	"context"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

// SegmentRepository persists customer segment assignments.
type SegmentRepository interface {
	// ReplaceAll atomically replaces all segment assignments with the
	// current run's output.
	ReplaceAll(ctx context.Context, segments []entities.Segment) error

	// List returns all segment assignments ordered by customer ID.
	List(ctx context.Context) ([]entities.Segment, error)
}

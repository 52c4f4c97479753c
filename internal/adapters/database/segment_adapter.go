package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"
)

// SegmentAdapter implements the SegmentRepository interface
type SegmentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSegmentAdapter creates a new segment adapter
func NewSegmentAdapter(client *postgres.Client) repositories.SegmentRepository {
	return &SegmentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ReplaceAll swaps all segment assignments in one transaction.
func (a *SegmentAdapter) ReplaceAll(ctx context.Context, segments []entities.Segment) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin segment transaction", err)
	}
	defer tx.Rollback()

	deleteSQL, _, err := a.db.Delete("customer_segments").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build segment delete", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL); err != nil {
		return apperrors.NewInternalError("failed to clear segment table", err)
	}

	for start := 0; start < len(segments); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(segments) {
			end = len(segments)
		}

		records := make([]interface{}, 0, end-start)
		for _, s := range segments[start:end] {
			records = append(records, goqu.Record{
				"customer_id":       s.CustomerID,
				"label":             s.Label,
				"centroid_distance": s.CentroidDistance,
			})
		}

		insertSQL, args, err := a.db.Insert("customer_segments").Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build segment insert", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return apperrors.NewInternalError("failed to insert segments", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit segment replace", err)
	}
	return nil
}

// List returns all segment assignments ordered by customer ID.
func (a *SegmentAdapter) List(ctx context.Context) ([]entities.Segment, error) {
	query, args, err := a.db.Select("customer_id", "label", "centroid_distance").
		From("customer_segments").
		Order(goqu.I("customer_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build segment list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list segments", err)
	}
	defer rows.Close()

	segments := []entities.Segment{}
	for rows.Next() {
		var s entities.Segment
		if err := rows.Scan(&s.CustomerID, &s.Label, &s.CentroidDistance); err != nil {
			return nil, apperrors.NewInternalError("failed to scan segment", err)
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating segments", err)
	}

	return segments, nil
}

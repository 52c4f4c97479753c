package database

import (
	"context"
	"encoding/json"

	"github.com/doug-martin/goqu/v9"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"
)

const insertBatchSize = 500

// FeatureAdapter implements the FeatureRepository interface
type FeatureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFeatureAdapter creates a new feature adapter
func NewFeatureAdapter(client *postgres.Client) repositories.FeatureRepository {
	return &FeatureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ReplaceAll swaps the whole feature table for the current run's vectors in
// one transaction. A failure leaves the previous run's table untouched.
func (a *FeatureAdapter) ReplaceAll(ctx context.Context, vectors []entities.CustomerFeatureVector) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin feature transaction", err)
	}
	defer tx.Rollback()

	deleteSQL, _, err := a.db.Delete("customer_features").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feature delete", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL); err != nil {
		return apperrors.NewInternalError("failed to clear feature table", err)
	}

	for start := 0; start < len(vectors); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(vectors) {
			end = len(vectors)
		}

		records := make([]interface{}, 0, end-start)
		for _, v := range vectors[start:end] {
			lateness, err := json.Marshal(v.LatenessByCategory)
			if err != nil {
				return apperrors.NewInternalError("failed to marshal lateness map", err)
			}
			records = append(records, goqu.Record{
				"customer_id":          v.CustomerID,
				"recency_days":         v.RecencyDays,
				"frequency":            v.Frequency,
				"monetary":             v.Monetary,
				"lateness_by_category": lateness,
				"avg_review_score":     v.AvgReviewScore,
				"review_count":         v.ReviewCount,
				"avg_installments":     v.AvgInstallments,
				"category_count":       v.CategoryCount,
				"order_value_trend":    v.OrderValueTrend,
				"last_order_at":        v.LastOrderAt,
				"computed_at":          v.ComputedAt,
			})
		}

		insertSQL, args, err := a.db.Insert("customer_features").Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build feature insert", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return apperrors.NewInternalError("failed to insert feature vectors", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit feature replace", err)
	}
	return nil
}

// List returns all feature vectors ordered by customer ID.
func (a *FeatureAdapter) List(ctx context.Context) ([]entities.CustomerFeatureVector, error) {
	query, args, err := a.db.Select(
		"customer_id", "recency_days", "frequency", "monetary",
		"lateness_by_category", "avg_review_score", "review_count",
		"avg_installments", "category_count", "order_value_trend",
		"last_order_at", "computed_at",
	).From("customer_features").
		Order(goqu.I("customer_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build feature list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list feature vectors", err)
	}
	defer rows.Close()

	vectors := []entities.CustomerFeatureVector{}
	for rows.Next() {
		var v entities.CustomerFeatureVector
		var lateness []byte
		err := rows.Scan(
			&v.CustomerID, &v.RecencyDays, &v.Frequency, &v.Monetary,
			&lateness, &v.AvgReviewScore, &v.ReviewCount,
			&v.AvgInstallments, &v.CategoryCount, &v.OrderValueTrend,
			&v.LastOrderAt, &v.ComputedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan feature vector", err)
		}
		if len(lateness) > 0 {
			if err := json.Unmarshal(lateness, &v.LatenessByCategory); err != nil {
				return nil, apperrors.NewInternalError("failed to unmarshal lateness map", err)
			}
		}
		vectors = append(vectors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating feature vectors", err)
	}

	return vectors, nil
}

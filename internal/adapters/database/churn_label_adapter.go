package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"
)

// ChurnLabelAdapter implements the ChurnLabelRepository interface
type ChurnLabelAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewChurnLabelAdapter creates a new churn label adapter
func NewChurnLabelAdapter(client *postgres.Client) repositories.ChurnLabelRepository {
	return &ChurnLabelAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ReplaceAll swaps all churn labels in one transaction.
func (a *ChurnLabelAdapter) ReplaceAll(ctx context.Context, labels []entities.ChurnLabel) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin churn label transaction", err)
	}
	defer tx.Rollback()

	deleteSQL, _, err := a.db.Delete("churn_labels").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build churn label delete", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL); err != nil {
		return apperrors.NewInternalError("failed to clear churn label table", err)
	}

	for start := 0; start < len(labels); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(labels) {
			end = len(labels)
		}

		records := make([]interface{}, 0, end-start)
		for _, l := range labels[start:end] {
			records = append(records, goqu.Record{
				"customer_id":  l.CustomerID,
				"at_risk":      l.AtRisk,
				"horizon_days": l.HorizonDays,
			})
		}

		insertSQL, args, err := a.db.Insert("churn_labels").Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build churn label insert", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return apperrors.NewInternalError("failed to insert churn labels", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit churn label replace", err)
	}
	return nil
}

// List returns all churn labels ordered by customer ID.
func (a *ChurnLabelAdapter) List(ctx context.Context) ([]entities.ChurnLabel, error) {
	query, args, err := a.db.Select("customer_id", "at_risk", "horizon_days").
		From("churn_labels").
		Order(goqu.I("customer_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build churn label list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list churn labels", err)
	}
	defer rows.Close()

	labels := []entities.ChurnLabel{}
	for rows.Next() {
		var l entities.ChurnLabel
		if err := rows.Scan(&l.CustomerID, &l.AtRisk, &l.HorizonDays); err != nil {
			return nil, apperrors.NewInternalError("failed to scan churn label", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating churn labels", err)
	}

	return labels, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"
)

// ScoreAdapter implements the ScoreRepository interface
type ScoreAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewScoreAdapter creates a new score adapter
func NewScoreAdapter(client *postgres.Client) repositories.ScoreRepository {
	return &ScoreAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ReplaceAll swaps all risk scores in one transaction.
func (a *ScoreAdapter) ReplaceAll(ctx context.Context, scores []entities.RiskScore) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin score transaction", err)
	}
	defer tx.Rollback()

	deleteSQL, _, err := a.db.Delete("risk_scores").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build score delete", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL); err != nil {
		return apperrors.NewInternalError("failed to clear score table", err)
	}

	for start := 0; start < len(scores); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(scores) {
			end = len(scores)
		}

		records := make([]interface{}, 0, end-start)
		for _, s := range scores[start:end] {
			records = append(records, goqu.Record{
				"customer_id": s.CustomerID,
				"artifact_id": s.ArtifactID,
				"score":       s.Score,
				"scored_at":   s.ScoredAt,
			})
		}

		insertSQL, args, err := a.db.Insert("risk_scores").Rows(records...).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build score insert", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return apperrors.NewInternalError("failed to insert risk scores", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit score replace", err)
	}
	return nil
}

// GetByCustomer returns one customer's current risk score.
func (a *ScoreAdapter) GetByCustomer(ctx context.Context, customerID string) (*entities.RiskScore, error) {
	query, args, err := a.db.Select("customer_id", "artifact_id", "score", "scored_at").
		From("risk_scores").
		Where(goqu.Ex{"customer_id": customerID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build score query", err)
	}

	score := &entities.RiskScore{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&score.CustomerID, &score.ArtifactID, &score.Score, &score.ScoredAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no risk score for customer %s", customerID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get risk score", err)
	}

	return score, nil
}

// List returns all risk scores ordered by customer ID.
func (a *ScoreAdapter) List(ctx context.Context) ([]entities.RiskScore, error) {
	query, args, err := a.db.Select("customer_id", "artifact_id", "score", "scored_at").
		From("risk_scores").
		Order(goqu.I("customer_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build score list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list risk scores", err)
	}
	defer rows.Close()

	scores := []entities.RiskScore{}
	for rows.Next() {
		var s entities.RiskScore
		if err := rows.Scan(&s.CustomerID, &s.ArtifactID, &s.Score, &s.ScoredAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan risk score", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating risk scores", err)
	}

	return scores, nil
}

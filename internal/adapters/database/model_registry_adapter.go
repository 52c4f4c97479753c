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

// ModelRegistryAdapter implements the ModelRegistry interface. Artifact rows
// are append-only; only the active flag ever changes.
type ModelRegistryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewModelRegistryAdapter creates a new model registry adapter
func NewModelRegistryAdapter(client *postgres.Client) repositories.ModelRegistry {
	return &ModelRegistryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Save inserts a new artifact row, inactive until Activate selects it.
func (a *ModelRegistryAdapter) Save(ctx context.Context, artifact *entities.ModelArtifact) error {
	record := goqu.Record{
		"id":                 artifact.ID,
		"family":             artifact.Family,
		"feature_set":        artifact.FeatureSet,
		"imbalance_strategy": artifact.ImbalanceStrategy,
		"hyperparams":        []byte(artifact.Hyperparams),
		"model_params":       []byte(artifact.ModelParams),
		"precision":          artifact.Metrics.Precision,
		"recall":             artifact.Metrics.Recall,
		"f1":                 artifact.Metrics.F1,
		"auc":                artifact.Metrics.AUC,
		"active":             false,
		"created_at":         artifact.CreatedAt,
	}

	query, args, err := a.db.Insert("model_artifacts").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build artifact insert", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to save model artifact", err)
	}
	return nil
}

// Activate retires the current champion and promotes the given artifact as
// one transaction, so a reader can never observe zero or two active rows
// after commit.
func (a *ModelRegistryAdapter) Activate(ctx context.Context, artifactID string) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin activation transaction", err)
	}
	defer tx.Rollback()

	deactivateSQL, _, err := a.db.Update("model_artifacts").
		Set(goqu.Record{"active": false}).
		Where(goqu.Ex{"active": true}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build deactivation query", err)
	}
	if _, err := tx.ExecContext(ctx, deactivateSQL); err != nil {
		return apperrors.NewInternalError("failed to deactivate previous champion", err)
	}

	activateSQL, args, err := a.db.Update("model_artifacts").
		Set(goqu.Record{"active": true}).
		Where(goqu.Ex{"id": artifactID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build activation query", err)
	}
	result, err := tx.ExecContext(ctx, activateSQL, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to activate artifact", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("model artifact %s not found", artifactID))
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit activation", err)
	}
	return nil
}

// GetActive returns the currently active artifact.
func (a *ModelRegistryAdapter) GetActive(ctx context.Context) (*entities.ModelArtifact, error) {
	query, args, err := a.selectArtifacts().
		Where(goqu.Ex{"active": true}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build active artifact query", err)
	}

	artifact := &entities.ModelArtifact{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&artifact.ID, &artifact.Family, &artifact.FeatureSet, &artifact.ImbalanceStrategy,
		&artifact.Hyperparams, &artifact.ModelParams,
		&artifact.Metrics.Precision, &artifact.Metrics.Recall, &artifact.Metrics.F1, &artifact.Metrics.AUC,
		&artifact.Active, &artifact.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("no active model artifact")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get active artifact", err)
	}

	return artifact, nil
}

// List returns all artifacts, newest first.
func (a *ModelRegistryAdapter) List(ctx context.Context) ([]*entities.ModelArtifact, error) {
	query, args, err := a.selectArtifacts().
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build artifact list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list artifacts", err)
	}
	defer rows.Close()

	artifacts := []*entities.ModelArtifact{}
	for rows.Next() {
		artifact := &entities.ModelArtifact{}
		err := rows.Scan(
			&artifact.ID, &artifact.Family, &artifact.FeatureSet, &artifact.ImbalanceStrategy,
			&artifact.Hyperparams, &artifact.ModelParams,
			&artifact.Metrics.Precision, &artifact.Metrics.Recall, &artifact.Metrics.F1, &artifact.Metrics.AUC,
			&artifact.Active, &artifact.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan artifact", err)
		}
		artifacts = append(artifacts, artifact)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating artifacts", err)
	}

	return artifacts, nil
}

func (a *ModelRegistryAdapter) selectArtifacts() *goqu.SelectDataset {
	return a.db.Select(
		"id", "family", "feature_set", "imbalance_strategy",
		"hyperparams", "model_params",
		"precision", "recall", "f1", "auc",
		"active", "created_at",
	).From("model_artifacts")
}

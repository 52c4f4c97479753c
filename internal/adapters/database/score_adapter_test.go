package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"
)

func TestScoreAdapter_ReplaceAll(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewScoreAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "risk_scores"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "risk_scores"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	scoredAt := time.Date(2018, 9, 1, 12, 0, 0, 0, time.UTC)
	err := adapter.ReplaceAll(context.Background(), []entities.RiskScore{
		{CustomerID: "c1", ArtifactID: "a1", Score: 0.12, ScoredAt: scoredAt},
		{CustomerID: "c2", ArtifactID: "a1", Score: 0.93, ScoredAt: scoredAt},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreAdapter_GetByCustomer(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewScoreAdapter(client)

	scoredAt := time.Date(2018, 9, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM "risk_scores"`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "artifact_id", "score", "scored_at"}).
			AddRow("c1", "a1", 0.42, scoredAt))

	score, err := adapter.GetByCustomer(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", score.CustomerID)
	assert.Equal(t, "a1", score.ArtifactID)
	assert.InDelta(t, 0.42, score.Score, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreAdapter_GetByCustomerMissing(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewScoreAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "risk_scores"`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"customer_id", "artifact_id", "score", "scored_at"}))

	_, err := adapter.GetByCustomer(context.Background(), "ghost")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

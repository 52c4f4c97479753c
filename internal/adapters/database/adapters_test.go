package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
)

func setupMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return postgres.NewClientFromDB(mockDB), mock
}

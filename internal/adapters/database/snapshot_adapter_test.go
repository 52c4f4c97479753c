package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"
)

func expectTableChecks(mock sqlmock.Sqlmock, missing string) {
	for _, table := range requiredSnapshotTables {
		rows := sqlmock.NewRows([]string{"exists"}).AddRow(table != missing)
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(table).WillReturnRows(rows)
		if table == missing {
			return
		}
	}
}

func TestSnapshotAdapter_ValidatePasses(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewSnapshotAdapter(client)

	expectTableChecks(mock, "")
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := adapter.Validate(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotAdapter_ValidateMissingTable(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewSnapshotAdapter(client)

	expectTableChecks(mock, "order_reviews")

	err := adapter.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsSnapshotError(err))
	assert.Contains(t, err.Error(), "order_reviews")
}

func TestSnapshotAdapter_ValidateOrphanOrders(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewSnapshotAdapter(client)

	expectTableChecks(mock, "")
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	err := adapter.Validate(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsSnapshotError(err))
	assert.Contains(t, err.Error(), "7 orders")
}

func TestSnapshotAdapter_ListCustomerIDsWithOrders(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewSnapshotAdapter(client)

	mock.ExpectQuery(`SELECT DISTINCT.+ FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"customer_id"}).
			AddRow("c1").AddRow("c2").AddRow("c3"))

	ids, err := adapter.ListCustomerIDsWithOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)
}

func TestSnapshotAdapter_GetOrderHistoryAssemblesDetails(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewSnapshotAdapter(client)

	purchased := time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC)
	estimated := purchased.AddDate(0, 0, 7)
	delivered := estimated.AddDate(0, 0, 1)

	mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{
			"order_id", "customer_id", "order_status",
			"order_purchase_timestamp", "order_estimated_delivery_date", "order_delivered_customer_date",
		}).
			AddRow("o1", "c1", "delivered", purchased, estimated, delivered).
			AddRow("o2", "c1", "shipped", purchased.AddDate(0, 0, 10), nil, nil))

	mock.ExpectQuery(`SELECT .+ FROM "order_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "category", "price", "freight_value"}).
			AddRow("o1", "p1", "toys", 100.0, 10.0).
			AddRow("o1", "p2", "", 20.0, 2.0).
			AddRow("o2", "p3", "books", 35.0, 5.0))

	mock.ExpectQuery(`SELECT .+ FROM "order_payments"`).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "payment_value", "payment_installments", "payment_type"}).
			AddRow("o1", 132.0, 3, "credit_card"))

	mock.ExpectQuery(`SELECT .+ FROM "order_reviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "review_score"}).
			AddRow("o1", 5))

	details, err := adapter.GetOrderHistory(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, details, 2)

	first := details[0]
	assert.Equal(t, "o1", first.Order.ID)
	assert.True(t, first.IsDelivered())
	assert.True(t, first.IsLate())
	require.Len(t, first.Items, 2)
	assert.Equal(t, "toys", first.Items[0].ProductCategory)
	require.Len(t, first.Payments, 1)
	assert.Equal(t, 3, first.Payments[0].Installments)
	require.NotNil(t, first.Review)
	assert.Equal(t, 5, first.Review.Score)

	second := details[1]
	assert.Equal(t, "o2", second.Order.ID)
	assert.False(t, second.IsDelivered())
	assert.Nil(t, second.Review)
	assert.Empty(t, second.Payments)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotAdapter_GetOrderHistoryNoOrders(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewSnapshotAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "orders"`).
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{
			"order_id", "customer_id", "order_status",
			"order_purchase_timestamp", "order_estimated_delivery_date", "order_delivered_customer_date",
		}))

	details, err := adapter.GetOrderHistory(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, details)
}

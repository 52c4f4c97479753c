package repositories

import (
	"context"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

// SnapshotRepository reads the relational snapshot produced by the ingestion
// loader. All operations are read-only.
type SnapshotRepository interface {
	// Validate checks that the required snapshot tables exist and that
	// orders reference known customers. A failure is fatal for the run.
	Validate(ctx context.Context) error

	// ListCustomerIDsWithOrders returns the IDs of customers that placed at
	// least one order, in stable (sorted) order.
	ListCustomerIDsWithOrders(ctx context.Context) ([]string, error)

	// GetOrderHistory returns every order of one customer with items,
	// payments and review joined in.
	GetOrderHistory(ctx context.Context, customerID string) ([]entities.OrderDetail, error)
}

package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/infrastructure/clients/postgres"
	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"
)

// Snapshot tables written by the ingestion loader, one per raw extract.
var requiredSnapshotTables = []string{
	"customers",
	"orders",
	"order_items",
	"order_payments",
	"order_reviews",
	"products",
}

// SnapshotAdapter implements the SnapshotRepository interface over the
// ingested relational snapshot. Read-only.
type SnapshotAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSnapshotAdapter creates a new snapshot adapter
func NewSnapshotAdapter(client *postgres.Client) repositories.SnapshotRepository {
	return &SnapshotAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Validate checks that every required snapshot table exists and that orders
// do not reference unknown customers. Any failure is fatal for the run.
func (a *SnapshotAdapter) Validate(ctx context.Context) error {
	for _, table := range requiredSnapshotTables {
		var exists bool
		err := a.client.DB().QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`,
			table,
		).Scan(&exists)
		if err != nil {
			return apperrors.NewSnapshotError(fmt.Sprintf("failed to check table %s", table), err)
		}
		if !exists {
			return apperrors.NewSnapshotError(fmt.Sprintf("required snapshot table %s is missing", table), nil)
		}
	}

	var orphans int
	err := a.client.DB().QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM orders o
		LEFT JOIN customers c ON c.customer_id = o.customer_id
		WHERE c.customer_id IS NULL
	`).Scan(&orphans)
	if err != nil {
		return apperrors.NewSnapshotError("failed to check order/customer integrity", err)
	}
	if orphans > 0 {
		return apperrors.NewSnapshotError(fmt.Sprintf("%d orders reference unknown customers", orphans), nil)
	}

	return nil
}

// ListCustomerIDsWithOrders returns IDs of customers with at least one
// order, sorted for stable iteration across runs.
func (a *SnapshotAdapter) ListCustomerIDsWithOrders(ctx context.Context) ([]string, error) {
	query, args, err := a.db.Select(goqu.DISTINCT("customer_id")).
		From("orders").
		Order(goqu.I("customer_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build customer list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list customers with orders", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan customer id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating customer ids", err)
	}

	return ids, nil
}

// GetOrderHistory returns a customer's orders with items, payments and
// review attached, ordered by purchase timestamp.
func (a *SnapshotAdapter) GetOrderHistory(ctx context.Context, customerID string) ([]entities.OrderDetail, error) {
	orders, err := a.listOrders(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []entities.OrderDetail{}, nil
	}

	orderIDs := make([]string, len(orders))
	details := make([]entities.OrderDetail, len(orders))
	byOrder := make(map[string]*entities.OrderDetail, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
		details[i] = entities.OrderDetail{Order: o}
		byOrder[o.ID] = &details[i]
	}

	if err := a.attachItems(ctx, orderIDs, byOrder); err != nil {
		return nil, err
	}
	if err := a.attachPayments(ctx, orderIDs, byOrder); err != nil {
		return nil, err
	}
	if err := a.attachReviews(ctx, orderIDs, byOrder); err != nil {
		return nil, err
	}

	return details, nil
}

func (a *SnapshotAdapter) listOrders(ctx context.Context, customerID string) ([]entities.Order, error) {
	query, args, err := a.db.Select(
		"order_id", "customer_id", "order_status",
		"order_purchase_timestamp", "order_estimated_delivery_date", "order_delivered_customer_date",
	).From("orders").
		Where(goqu.Ex{"customer_id": customerID}).
		Order(goqu.I("order_purchase_timestamp").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build order query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query orders", err)
	}
	defer rows.Close()

	orders := []entities.Order{}
	for rows.Next() {
		var o entities.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.PurchasedAt, &o.EstimatedDelivery, &o.DeliveredAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating orders", err)
	}

	return orders, nil
}

func (a *SnapshotAdapter) attachItems(ctx context.Context, orderIDs []string, byOrder map[string]*entities.OrderDetail) error {
	query, args, err := a.db.Select(
		goqu.I("oi.order_id"), goqu.I("oi.product_id"),
		goqu.COALESCE(goqu.I("p.product_category_name"), "").As("category"),
		goqu.I("oi.price"), goqu.I("oi.freight_value"),
	).From(goqu.T("order_items").As("oi")).
		LeftJoin(goqu.T("products").As("p"), goqu.On(goqu.Ex{"p.product_id": goqu.I("oi.product_id")})).
		Where(goqu.Ex{"oi.order_id": orderIDs}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build item query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to query order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entities.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.ProductCategory, &item.Price, &item.FreightValue); err != nil {
			return apperrors.NewInternalError("failed to scan order item", err)
		}
		if d, ok := byOrder[item.OrderID]; ok {
			d.Items = append(d.Items, item)
		}
	}
	return rows.Err()
}

func (a *SnapshotAdapter) attachPayments(ctx context.Context, orderIDs []string, byOrder map[string]*entities.OrderDetail) error {
	query, args, err := a.db.Select("order_id", "payment_value", "payment_installments", "payment_type").
		From("order_payments").
		Where(goqu.Ex{"order_id": orderIDs}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build payment query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to query payments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p entities.Payment
		if err := rows.Scan(&p.OrderID, &p.Value, &p.Installments, &p.Method); err != nil {
			return apperrors.NewInternalError("failed to scan payment", err)
		}
		if d, ok := byOrder[p.OrderID]; ok {
			d.Payments = append(d.Payments, p)
		}
	}
	return rows.Err()
}

func (a *SnapshotAdapter) attachReviews(ctx context.Context, orderIDs []string, byOrder map[string]*entities.OrderDetail) error {
	query, args, err := a.db.Select("order_id", "review_score").
		From("order_reviews").
		Where(goqu.Ex{"order_id": orderIDs}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to query reviews", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r entities.Review
		if err := rows.Scan(&r.OrderID, &r.Score); err != nil {
			return apperrors.NewInternalError("failed to scan review", err)
		}
		if d, ok := byOrder[r.OrderID]; ok {
			review := r
			d.Review = &review
		}
	}
	return rows.Err()
}

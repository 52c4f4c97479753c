package entities

import (
	"time"
)

// Order statuses as written by the ingestion loader.
const (
	OrderStatusDelivered = "delivered"
	OrderStatusShipped   = "shipped"
	OrderStatusCanceled  = "canceled"
)

// Customer represents a customer row from the ingested snapshot.
// Customers are created once at ingestion and immutable afterwards;
// the ID is the identity key for every downstream join.
type Customer struct {
	ID    string `json:"id" db:"customer_id"`
	City  string `json:"city" db:"customer_city"`
	State string `json:"state" db:"customer_state"`
}

// Order represents an order row from the ingested snapshot
type Order struct {
	ID                string     `json:"id" db:"order_id"`
	CustomerID        string     `json:"customer_id" db:"customer_id"`
	Status            string     `json:"status" db:"order_status"`
	PurchasedAt       time.Time  `json:"purchased_at" db:"order_purchase_timestamp"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty" db:"order_estimated_delivery_date"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty" db:"order_delivered_customer_date"`
}

// OrderItem represents an order line with its product category joined in
type OrderItem struct {
	OrderID         string  `json:"order_id" db:"order_id"`
	ProductID       string  `json:"product_id" db:"product_id"`
	ProductCategory string  `json:"product_category" db:"product_category_name"`
	Price           float64 `json:"price" db:"price"`
	FreightValue    float64 `json:"freight_value" db:"freight_value"`
}

// Payment represents a payment row for an order
type Payment struct {
	OrderID      string  `json:"order_id" db:"order_id"`
	Value        float64 `json:"value" db:"payment_value"`
	Installments int     `json:"installments" db:"payment_installments"`
	Method       string  `json:"method" db:"payment_type"`
}

// Review represents a customer review of an order
type Review struct {
	OrderID string `json:"order_id" db:"order_id"`
	Score   int    `json:"score" db:"review_score"`
}

// OrderDetail bundles one order with its items, payments and review,
// the unit a feature worker aggregates over.
type OrderDetail struct {
	Order    Order
	Items    []OrderItem
	Payments []Payment
	Review   *Review
}

// IsCanceled reports whether the order was cancelled and must be excluded
// from monetary aggregation.
func (d *OrderDetail) IsCanceled() bool {
	return d.Order.Status == OrderStatusCanceled
}

// IsDelivered reports whether the order has both delivery timestamps and
// therefore counts toward lateness ratios.
func (d *OrderDetail) IsDelivered() bool {
	return d.Order.DeliveredAt != nil && d.Order.EstimatedDelivery != nil
}

// IsLate reports whether a delivered order arrived after its estimate.
func (d *OrderDetail) IsLate() bool {
	return d.IsDelivered() && d.Order.DeliveredAt.After(*d.Order.EstimatedDelivery)
}

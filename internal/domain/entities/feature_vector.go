package entities

import (
	"time"
)

// CustomerFeatureVector is the fixed-schema per-customer behavioral vector.
// Exactly one vector exists per customer per computation run, and
// recomputation over an unchanged snapshot reproduces it bit for bit:
// ComputedAt carries the reference timestamp T, never wall-clock time.
type CustomerFeatureVector struct {
	CustomerID string `json:"customer_id" db:"customer_id"`

	// RFM aggregates
	RecencyDays float64 `json:"recency_days" db:"recency_days"`
	Frequency   int     `json:"frequency" db:"frequency"`
	Monetary    float64 `json:"monetary" db:"monetary"`

	// LatenessByCategory maps product category to late/delivered ratio.
	// Categories with zero delivered orders are absent, not zero-filled.
	LatenessByCategory map[string]float64 `json:"lateness_by_category" db:"lateness_by_category"`

	// Engineered features for the detailed modeling set
	AvgReviewScore  float64 `json:"avg_review_score" db:"avg_review_score"`
	ReviewCount     int     `json:"review_count" db:"review_count"`
	AvgInstallments float64 `json:"avg_installments" db:"avg_installments"`
	CategoryCount   int     `json:"category_count" db:"category_count"`
	OrderValueTrend float64 `json:"order_value_trend" db:"order_value_trend"`

	LastOrderAt time.Time `json:"last_order_at" db:"last_order_at"`
	ComputedAt  time.Time `json:"computed_at" db:"computed_at"`
}

// MeanLateness returns the average lateness ratio across categories the
// customer bought from, 0 when no category had delivered orders.
func (v *CustomerFeatureVector) MeanLateness() float64 {
	if len(v.LatenessByCategory) == 0 {
		return 0
	}
	var sum float64
	for _, r := range v.LatenessByCategory {
		sum += r
	}
	return sum / float64(len(v.LatenessByCategory))
}

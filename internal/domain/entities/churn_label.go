package entities

// ChurnLabel marks a customer as at-risk when their recency exceeds the
// inactivity horizon. Only customers with at least one historical order are
// labeled; the zero-activity population never enters the labeled set.
type ChurnLabel struct {
	CustomerID  string `json:"customer_id" db:"customer_id"`
	AtRisk      bool   `json:"at_risk" db:"at_risk"`
	HorizonDays int    `json:"horizon_days" db:"horizon_days"`
}

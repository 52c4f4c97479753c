package entities

import (
	"time"
)

// RiskScore is the scorer's output: the active model's churn probability for
// one customer. Produced and owned by the scoring stage, read-only to every
// other component.
type RiskScore struct {
	CustomerID string    `json:"customer_id" db:"customer_id"`
	ArtifactID string    `json:"artifact_id" db:"artifact_id"`
	Score      float64   `json:"score" db:"score"`
	ScoredAt   time.Time `json:"scored_at" db:"scored_at"`
}

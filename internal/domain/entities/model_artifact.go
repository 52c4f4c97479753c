package entities

import (
	"encoding/json"
	"time"
)

// Model families compared by the training pipeline.
const (
	ModelFamilyLogistic = "logistic"
	ModelFamilyGBT      = "gbt"
)

// Feature sets a candidate can be trained on.
const (
	FeatureSetSimple   = "simple"
	FeatureSetDetailed = "detailed"
)

// Imbalance correction strategies recorded on an artifact.
const (
	ImbalanceNone        = "none"
	ImbalanceSMOTE       = "smote"
	ImbalanceClassWeight = "class-weight"
)

// ModelMetrics holds held-out evaluation metrics for the minority
// (at-risk) class.
type ModelMetrics struct {
	Precision float64 `json:"precision" db:"precision"`
	Recall    float64 `json:"recall" db:"recall"`
	F1        float64 `json:"f1" db:"f1"`
	AUC       float64 `json:"auc" db:"auc"`
}

// ModelArtifact is one trained candidate in the registry. Artifacts are
// append-only: selection deactivates the old champion and activates the new
// one, nothing is ever deleted.
type ModelArtifact struct {
	ID                string          `json:"id" db:"id"`
	Family            string          `json:"family" db:"family"`
	FeatureSet        string          `json:"feature_set" db:"feature_set"`
	ImbalanceStrategy string          `json:"imbalance_strategy" db:"imbalance_strategy"`
	Hyperparams       json.RawMessage `json:"hyperparams" db:"hyperparams"`
	ModelParams       json.RawMessage `json:"model_params" db:"model_params"`
	Metrics           ModelMetrics    `json:"metrics" db:"-"`
	Active            bool            `json:"active" db:"active"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// Name identifies the candidate within a training run's comparison table.
func (a *ModelArtifact) Name() string {
	return a.Family + "/" + a.FeatureSet + "/" + a.ImbalanceStrategy
}

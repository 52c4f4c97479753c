package ml

import (
	"math"
)

// LogisticConfig holds hyperparameters for the linear baseline.
type LogisticConfig struct {
	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
	L2           float64 `json:"l2"`
	// PosWeight scales the gradient contribution of positive samples; >1
	// implements class weighting for imbalanced labels.
	PosWeight float64 `json:"pos_weight"`
}

// DefaultLogisticConfig returns the baseline hyperparameters.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		LearningRate: 0.1,
		Epochs:       500,
		L2:           1e-4,
		PosWeight:    1,
	}
}

// LogisticModel is a trained logistic-regression classifier.
type LogisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// TrainLogistic fits a logistic regression with full-batch gradient descent.
// Inputs are expected to be standardized.
func TrainLogistic(X [][]float64, y []int, cfg LogisticConfig) *LogisticModel {
	if len(X) == 0 {
		return &LogisticModel{}
	}
	dims := len(X[0])
	posWeight := cfg.PosWeight
	if posWeight <= 0 {
		posWeight = 1
	}

	m := &LogisticModel{Weights: make([]float64, dims)}
	n := float64(len(X))

	gradW := make([]float64, dims)
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i, row := range X {
			p := m.PredictProba(row)
			diff := p - float64(y[i])
			if y[i] == 1 {
				diff *= posWeight
			}
			for j, x := range row {
				gradW[j] += diff * x
			}
			gradB += diff
		}

		for j := range m.Weights {
			m.Weights[j] -= cfg.LearningRate * (gradW[j]/n + cfg.L2*m.Weights[j])
		}
		m.Bias -= cfg.LearningRate * gradB / n
	}

	return m
}

// PredictProba returns the probability of the positive class.
func (m *LogisticModel) PredictProba(x []float64) float64 {
	z := m.Bias
	for j, w := range m.Weights {
		if j < len(x) {
			z += w * x[j]
		}
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

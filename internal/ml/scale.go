package ml

import (
	"gonum.org/v1/gonum/stat"
)

const zeroVarianceEps = 1e-12

// StandardScaler centers each kept column to zero mean and scales it to unit
// variance. Columns whose variance is (numerically) zero are dropped rather
// than scaled, so degenerate features can never poison a distance metric.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
	// Kept holds the original indices of the columns that survived fitting.
	Kept []int `json:"kept"`
}

// FitScaler computes column means and standard deviations over X.
func FitScaler(X [][]float64) *StandardScaler {
	if len(X) == 0 {
		return &StandardScaler{}
	}

	dims := len(X[0])
	scaler := &StandardScaler{}

	col := make([]float64, len(X))
	for j := 0; j < dims; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean := stat.Mean(col, nil)
		std := stat.StdDev(col, nil)
		if len(X) == 1 {
			std = 0
		}
		if std < zeroVarianceEps {
			continue
		}
		scaler.Mean = append(scaler.Mean, mean)
		scaler.Std = append(scaler.Std, std)
		scaler.Kept = append(scaler.Kept, j)
	}

	return scaler
}

// Transform standardizes X using the fitted statistics, returning rows with
// only the kept columns.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(s.Kept))
		for j, orig := range s.Kept {
			scaled[j] = (row[orig] - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out
}

// FitTransform fits the scaler on X and returns the standardized matrix.
func FitTransform(X [][]float64) (*StandardScaler, [][]float64) {
	s := FitScaler(X)
	return s, s.Transform(X)
}

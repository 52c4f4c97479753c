package ml

import (
	"fmt"
)

// Candidate couples a model candidate's name with its held-out metrics.
type Candidate struct {
	Name    string
	Metrics BinaryMetrics
}

// SelectChampion picks the winning candidate index from a metrics table.
// It is a pure function of its input: highest minority-class F1 wins, ties
// break on higher precision, remaining ties on candidate name, so the same
// table always yields the same champion.
func SelectChampion(candidates []Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("selection: no candidates")
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if beats(candidates[i], candidates[best]) {
			best = i
		}
	}
	return best, nil
}

func beats(a, b Candidate) bool {
	if a.Metrics.F1 != b.Metrics.F1 {
		return a.Metrics.F1 > b.Metrics.F1
	}
	if a.Metrics.Precision != b.Metrics.Precision {
		return a.Metrics.Precision > b.Metrics.Precision
	}
	return a.Name < b.Name
}

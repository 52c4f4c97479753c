package ml

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrTooFewMinority is returned when the minority class is too small to
// synthesize from; callers fall back to class weighting.
var ErrTooFewMinority = fmt.Errorf("smote: minority class too small to synthesize from")

// SMOTE oversamples the minority (label 1) class by interpolating between
// each minority sample and a randomly chosen one of its k nearest minority
// neighbors, until minority/majority reaches ratio. The input rows are
// returned first, followed by the synthetic rows; the originals are never
// modified. Only ever apply this to a training fold.
func SMOTE(X [][]float64, y []int, ratio float64, k int, seed int64) ([][]float64, []int, error) {
	if len(X) != len(y) {
		return nil, nil, fmt.Errorf("smote: %d rows but %d labels", len(X), len(y))
	}
	if ratio <= 0 {
		return nil, nil, fmt.Errorf("smote: ratio must be positive, got %g", ratio)
	}

	var minority []int
	majorityCount := 0
	for i, label := range y {
		if label == 1 {
			minority = append(minority, i)
		} else {
			majorityCount++
		}
	}

	if len(minority) <= k || len(minority) < 2 {
		return nil, nil, ErrTooFewMinority
	}

	target := int(ratio * float64(majorityCount))
	needed := target - len(minority)
	if needed <= 0 {
		return X, y, nil
	}

	rng := rand.New(rand.NewSource(seed))
	neighbors := minorityNeighbors(X, minority, k)

	outX := make([][]float64, len(X), len(X)+needed)
	copy(outX, X)
	outY := make([]int, len(y), len(y)+needed)
	copy(outY, y)

	for s := 0; s < needed; s++ {
		src := minority[rng.Intn(len(minority))]
		nbr := neighbors[src][rng.Intn(k)]
		gap := rng.Float64()

		synth := make([]float64, len(X[src]))
		for j := range synth {
			synth[j] = X[src][j] + gap*(X[nbr][j]-X[src][j])
		}
		outX = append(outX, synth)
		outY = append(outY, 1)
	}

	return outX, outY, nil
}

// minorityNeighbors returns, for each minority row index, its k nearest
// other minority row indices.
func minorityNeighbors(X [][]float64, minority []int, k int) map[int][]int {
	type neighbor struct {
		idx  int
		dist float64
	}

	out := make(map[int][]int, len(minority))
	for _, i := range minority {
		candidates := make([]neighbor, 0, len(minority)-1)
		for _, j := range minority {
			if j == i {
				continue
			}
			candidates = append(candidates, neighbor{idx: j, dist: floats.Distance(X[i], X[j], 2)})
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].dist != candidates[b].dist {
				return candidates[a].dist < candidates[b].dist
			}
			return candidates[a].idx < candidates[b].idx
		})

		nearest := make([]int, k)
		for n := 0; n < k; n++ {
			nearest[n] = candidates[n].idx
		}
		out[i] = nearest
	}
	return out
}

package ml

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

const (
	kmeansMaxIterations = 100
	kmeansTolerance     = 1e-6
)

// KMeansResult holds a fitted clustering. Cluster indices are an internal
// artifact of the algorithm and carry no meaning beyond this struct; callers
// must derive any business-facing ordering themselves.
type KMeansResult struct {
	Centroids   [][]float64
	Assignments []int
	Inertia     float64
}

// KMeans fits k centroids to X with Lloyd iterations and k-means++
// initialization. The same seed and input always produce the same result.
func KMeans(X [][]float64, k int, seed int64) (*KMeansResult, error) {
	n := len(X)
	if n == 0 {
		return nil, fmt.Errorf("kmeans: empty input")
	}
	if k <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	if k > n {
		return nil, fmt.Errorf("kmeans: k=%d exceeds population %d", k, n)
	}

	dims := len(X[0])
	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(X, k, rng)

	assignments := make([]int, n)
	var inertia float64

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		inertia = 0
		for i, row := range X {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := floats.Distance(row, centroid, 2); d < bestDist {
					best, bestDist = c, d
				}
			}
			assignments[i] = best
			inertia += bestDist * bestDist
		}

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, row := range X {
			c := assignments[i]
			floats.Add(next[c], row)
			counts[c]++
		}

		for c := range next {
			if counts[c] == 0 {
				// Empty cluster: reseed from the point farthest from its
				// centroid so every cluster stays populated.
				next[c] = append([]float64(nil), X[farthestPoint(X, centroids, assignments)]...)
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}

		shift := 0.0
		for c := range centroids {
			shift += floats.Distance(centroids[c], next[c], 2)
		}
		centroids = next
		if shift < kmeansTolerance {
			break
		}
	}

	return &KMeansResult{
		Centroids:   centroids,
		Assignments: assignments,
		Inertia:     inertia,
	}, nil
}

// ChooseK picks a cluster count in [lo, hi] by the elbow of the inertia
// curve (largest perpendicular distance to the chord between the endpoints).
func ChooseK(X [][]float64, lo, hi int, seed int64) (int, error) {
	if lo < 1 || hi < lo {
		return 0, fmt.Errorf("kmeans: invalid k range [%d, %d]", lo, hi)
	}
	if hi > len(X) {
		hi = len(X)
	}
	if lo > len(X) {
		lo = len(X)
	}
	if lo == hi {
		return lo, nil
	}

	inertias := make([]float64, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		res, err := KMeans(X, k, seed)
		if err != nil {
			return 0, err
		}
		inertias = append(inertias, res.Inertia)
	}

	first, last := inertias[0], inertias[len(inertias)-1]
	span := float64(hi - lo)
	bestK, bestDist := lo, -1.0
	for i, in := range inertias {
		// Perpendicular distance from (k, inertia) to the chord.
		t := float64(i) / span
		chord := first + t*(last-first)
		if d := math.Abs(in - chord); d > bestDist {
			bestK, bestDist = lo+i, d
		}
	}
	return bestK, nil
}

func seedCentroids(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(X)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), X[rng.Intn(n)]...))

	dists := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, row := range X {
			min := math.Inf(1)
			for _, c := range centroids {
				if d := floats.Distance(row, c, 2); d < min {
					min = d
				}
			}
			dists[i] = min * min
			total += dists[i]
		}

		if total == 0 {
			// All remaining points coincide with a centroid; any pick works.
			centroids = append(centroids, append([]float64(nil), X[rng.Intn(n)]...))
			continue
		}

		target := rng.Float64() * total
		cum := 0.0
		pick := n - 1
		for i, d := range dists {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), X[pick]...))
	}
	return centroids
}

func farthestPoint(X [][]float64, centroids [][]float64, assignments []int) int {
	best, bestDist := 0, -1.0
	for i, row := range X {
		d := floats.Distance(row, centroids[assignments[i]], 2)
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/ml"
)

// SegmentationConfig controls clustering behavior.
type SegmentationConfig struct {
	SegmentCount int
	AutoK        bool
	RandomSeed   int64
}

// SegmentationResult reports one segmentation run.
type SegmentationResult struct {
	Customers int
	K         int
	Inertia   float64
}

// SegmentationService clusters customers on their RFM profile and assigns
// human-readable value-tier labels. The persisted label is derived from each
// cluster's monetary rank, so two runs that find the same grouping produce
// the same labels regardless of centroid numbering.
type SegmentationService struct {
	features repositories.FeatureRepository
	segments repositories.SegmentRepository
	cfg      SegmentationConfig
}

// NewSegmentationService creates a new segmentation service
func NewSegmentationService(
	features repositories.FeatureRepository,
	segments repositories.SegmentRepository,
	cfg SegmentationConfig,
) *SegmentationService {
	return &SegmentationService{features: features, segments: segments, cfg: cfg}
}

// BuildSegments clusters the current feature set and replaces the segment
// assignments wholesale.
func (s *SegmentationService) BuildSegments(ctx context.Context) (*SegmentationResult, error) {
	vectors, err := s.features.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, apperrors.NewValidationError("no feature vectors available; run feature computation first")
	}

	raw := make([][]float64, len(vectors))
	for i, v := range vectors {
		raw[i] = []float64{v.RecencyDays, float64(v.Frequency), v.Monetary}
	}

	scaler, scaled := ml.FitTransform(raw)
	if len(scaler.Kept) == 0 {
		// Every customer has an identical RFM profile; clustering is moot.
		return s.assignUniform(ctx, vectors)
	}

	k := s.cfg.SegmentCount
	if s.cfg.AutoK {
		k, err = ml.ChooseK(scaled, 2, 8, s.cfg.RandomSeed)
		if err != nil {
			return nil, fmt.Errorf("failed to choose cluster count: %w", err)
		}
		log.Info().Int("k", k).Msg("elbow heuristic selected cluster count")
	}
	if k > len(vectors) {
		k = len(vectors)
	}
	if k < 1 {
		return nil, apperrors.NewValidationError("segment count must be at least 1")
	}

	result, err := ml.KMeans(scaled, k, s.cfg.RandomSeed)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}

	monetary := make([]float64, len(vectors))
	for i, v := range vectors {
		monetary[i] = v.Monetary
	}
	labels := LabelClustersByMonetary(clusterMeans(monetary, result.Assignments, k))

	assignments := make([]entities.Segment, len(vectors))
	for i, v := range vectors {
		cluster := result.Assignments[i]
		assignments[i] = entities.Segment{
			CustomerID:       v.CustomerID,
			Label:            labels[cluster],
			CentroidDistance: floats.Distance(scaled[i], result.Centroids[cluster], 2),
		}
	}

	if err := s.segments.ReplaceAll(ctx, assignments); err != nil {
		return nil, fmt.Errorf("failed to persist segments: %w", err)
	}

	log.Info().
		Int("customers", len(assignments)).
		Int("k", k).
		Float64("inertia", result.Inertia).
		Msg("segmentation complete")
	return &SegmentationResult{Customers: len(assignments), K: k, Inertia: result.Inertia}, nil
}

// assignUniform puts every customer into a single tier, used when the
// feature matrix has no varying column to cluster on.
func (s *SegmentationService) assignUniform(ctx context.Context, vectors []entities.CustomerFeatureVector) (*SegmentationResult, error) {
	label := entities.ValueTierLabels(1)[0]
	assignments := make([]entities.Segment, len(vectors))
	for i, v := range vectors {
		assignments[i] = entities.Segment{CustomerID: v.CustomerID, Label: label}
	}
	if err := s.segments.ReplaceAll(ctx, assignments); err != nil {
		return nil, fmt.Errorf("failed to persist segments: %w", err)
	}
	log.Warn().Int("customers", len(assignments)).Msg("feature matrix has zero variance; assigned a single segment")
	return &SegmentationResult{Customers: len(assignments), K: 1}, nil
}

// clusterMeans returns the mean of values grouped by cluster assignment.
// Empty clusters get a mean of 0.
func clusterMeans(values []float64, assignments []int, k int) []float64 {
	sums := make([]float64, k)
	counts := make([]float64, k)
	for i, cluster := range assignments {
		sums[cluster] += values[i]
		counts[cluster]++
	}
	means := make([]float64, k)
	for i := range means {
		if counts[i] > 0 {
			means[i] = sums[i] / counts[i]
		}
	}
	return means
}

// LabelClustersByMonetary maps each cluster index to its value-tier label by
// ranking clusters on mean monetary value, lowest spend first. The mapping
// depends only on the relative ordering of the means.
func LabelClustersByMonetary(means []float64) []string {
	k := len(means)
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return means[order[a]] < means[order[b]] })

	tiers := entities.ValueTierLabels(k)
	labels := make([]string, k)
	for rank, cluster := range order {
		labels[cluster] = tiers[rank]
	}
	return labels
}

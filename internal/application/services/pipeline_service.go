package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/pkg/config"
)

// Stage consumers, one per pipeline step. Narrow interfaces keep the
// orchestrator testable without standing up real stage services.
type (
	featureBuilder interface {
		BuildFeatures(ctx context.Context, referenceTime time.Time) (*FeatureRunSummary, error)
	}
	segmentBuilder interface {
		BuildSegments(ctx context.Context) (*SegmentationResult, error)
	}
	churnLabeler interface {
		BuildLabels(ctx context.Context) (*ChurnLabelResult, error)
	}
	modelTrainer interface {
		Train(ctx context.Context) (*TrainingResult, error)
	}
	scorer interface {
		ScoreAll(ctx context.Context) (*ScoringResult, error)
	}
)

// PipelineService runs the end-to-end batch: snapshot validation, feature
// computation, segmentation, churn labeling, training, scoring. Stages run
// strictly in order and the run fails fast on the first stage error.
type PipelineService struct {
	snapshot repositories.SnapshotRepository
	features featureBuilder
	segments segmentBuilder
	churn    churnLabeler
	trainer  modelTrainer
	scorer   scorer
	cfg      config.PipelineConfig
}

// NewPipelineService creates a new pipeline orchestrator
func NewPipelineService(
	snapshot repositories.SnapshotRepository,
	features featureBuilder,
	segments segmentBuilder,
	churn churnLabeler,
	trainer modelTrainer,
	scorer scorer,
	cfg config.PipelineConfig,
) *PipelineService {
	return &PipelineService{
		snapshot: snapshot,
		features: features,
		segments: segments,
		churn:    churn,
		trainer:  trainer,
		scorer:   scorer,
		cfg:      cfg,
	}
}

// PipelineSummary collects each stage's report for the final log line.
type PipelineSummary struct {
	Features *FeatureRunSummary
	Segments *SegmentationResult
	Churn    *ChurnLabelResult
	Training *TrainingResult
	Scoring  *ScoringResult
	Elapsed  time.Duration
}

// Run executes the full pipeline once.
func (s *PipelineService) Run(ctx context.Context) (*PipelineSummary, error) {
	started := time.Now()
	summary := &PipelineSummary{}

	err := s.runStage(ctx, "validate_snapshot", func(ctx context.Context) error {
		return s.snapshot.Validate(ctx)
	})
	if err != nil {
		return nil, err
	}

	err = s.runStage(ctx, "features", func(ctx context.Context) error {
		var err error
		summary.Features, err = s.features.BuildFeatures(ctx, s.cfg.ReferenceTime)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.runStage(ctx, "segments", func(ctx context.Context) error {
		var err error
		summary.Segments, err = s.segments.BuildSegments(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.runStage(ctx, "churn_labels", func(ctx context.Context) error {
		var err error
		summary.Churn, err = s.churn.BuildLabels(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.runStage(ctx, "training", func(ctx context.Context) error {
		var err error
		summary.Training, err = s.trainer.Train(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.runStage(ctx, "scoring", func(ctx context.Context) error {
		var err error
		summary.Scoring, err = s.scorer.ScoreAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	summary.Elapsed = time.Since(started)
	log.Info().Dur("elapsed", summary.Elapsed).Msg("pipeline run complete")
	return summary, nil
}

// runStage wraps one stage with its timeout and log lines.
func (s *PipelineService) runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	stageCtx := ctx
	if s.cfg.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, s.cfg.StageTimeout)
		defer cancel()
	}

	log.Info().Str("stage", name).Msg("stage started")
	started := time.Now()
	if err := fn(stageCtx); err != nil {
		log.Error().Str("stage", name).Dur("elapsed", time.Since(started)).Err(err).Msg("stage failed")
		return fmt.Errorf("stage %s: %w", name, err)
	}
	log.Info().Str("stage", name).Dur("elapsed", time.Since(started)).Msg("stage complete")
	return nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	apperrors "github.com/kelvinchuks/customer-insights/pkg/errors"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
	"github.com/kelvinchuks/customer-insights/internal/ml"
)

const smoteNeighbors = 5

// TrainingConfig controls one training run.
type TrainingConfig struct {
	// TrainCutoff splits train from test by last-order timestamp. Zero
	// means "use the median last-order timestamp".
	TrainCutoff     time.Time
	OversampleRatio float64
	RandomSeed      int64
}

// CandidateReport is one row of a training run's comparison table.
type CandidateReport struct {
	ArtifactID string
	Name       string
	Strategy   string
	Metrics    entities.ModelMetrics
}

// TrainingResult reports a completed training run.
type TrainingResult struct {
	Candidates    []CandidateReport
	ChampionID    string
	ChampionName  string
	Cutoff        time.Time
	TrainSize     int
	TestSize      int
	TrainAtRisk   float64
	TestAtRisk    float64
}

// modelBundle is what an artifact's model_params column actually stores: the
// frozen classifier plus everything the scorer needs to rebuild its input
// row, so scoring never re-derives training-time state.
type modelBundle struct {
	FeatureSet string             `json:"feature_set"`
	Scaler     *ml.StandardScaler `json:"scaler"`
	Model      json.RawMessage    `json:"model"`
}

// TrainingService trains the churn candidate matrix, evaluates every
// candidate on the same held-out time slice, and promotes a champion. The
// split is time-ordered, never random: older customers train, newer ones
// test. Oversampling touches the training fold only.
type TrainingService struct {
	features repositories.FeatureRepository
	labels   repositories.ChurnLabelRepository
	registry repositories.ModelRegistry
	clock    clockwork.Clock
	cfg      TrainingConfig
}

// NewTrainingService creates a new training service
func NewTrainingService(
	features repositories.FeatureRepository,
	labels repositories.ChurnLabelRepository,
	registry repositories.ModelRegistry,
	clock clockwork.Clock,
	cfg TrainingConfig,
) *TrainingService {
	return &TrainingService{
		features: features,
		labels:   labels,
		registry: registry,
		clock:    clock,
		cfg:      cfg,
	}
}

// Train runs the full candidate matrix and activates the champion. Every
// candidate, champion or not, is saved to the registry for audit.
func (s *TrainingService) Train(ctx context.Context) (*TrainingResult, error) {
	vectors, labels, err := s.loadTrainingData(ctx)
	if err != nil {
		return nil, err
	}

	timestamps := make([]time.Time, len(vectors))
	for i, v := range vectors {
		timestamps[i] = v.LastOrderAt
	}
	cutoff := s.cfg.TrainCutoff
	if cutoff.IsZero() {
		cutoff = ml.MedianCutoff(timestamps)
	}

	trainIdx, testIdx := ml.TimeOrderedSplit(timestamps, cutoff)
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("train cutoff %s leaves an empty fold (train=%d test=%d)",
				cutoff.Format(time.RFC3339), len(trainIdx), len(testIdx)))
	}

	yTrain := labelsAt(labels, trainIdx)
	yTest := labelsAt(labels, testIdx)

	result := &TrainingResult{
		Cutoff:      cutoff,
		TrainSize:   len(trainIdx),
		TestSize:    len(testIdx),
		TrainAtRisk: ml.ClassRatio(yTrain),
		TestAtRisk:  ml.ClassRatio(yTest),
	}
	log.Info().
		Time("cutoff", cutoff).
		Int("train", result.TrainSize).
		Int("test", result.TestSize).
		Float64("train_at_risk", result.TrainAtRisk).
		Float64("test_at_risk", result.TestAtRisk).
		Msg("time-ordered split ready")

	candidates := make([]ml.Candidate, 0, 8)
	for _, featureSet := range []string{entities.FeatureSetSimple, entities.FeatureSetDetailed} {
		// The scaler is fit on the training fold only; the test fold is
		// transformed with training-fold statistics.
		scaler := ml.FitScaler(featureMatrix(vectors, trainIdx, featureSet))
		xTrain := scaler.Transform(featureMatrix(vectors, trainIdx, featureSet))
		xTest := scaler.Transform(featureMatrix(vectors, testIdx, featureSet))

		for _, family := range []string{entities.ModelFamilyLogistic, entities.ModelFamilyGBT} {
			for _, strategy := range []string{entities.ImbalanceNone, entities.ImbalanceSMOTE} {
				report, err := s.trainCandidate(ctx, candidateSpec{
					family:     family,
					featureSet: featureSet,
					strategy:   strategy,
					scaler:     scaler,
					xTrain:     xTrain,
					yTrain:     yTrain,
					xTest:      xTest,
					yTest:      yTest,
				})
				if err != nil {
					return nil, fmt.Errorf("candidate %s/%s/%s: %w", family, featureSet, strategy, err)
				}
				result.Candidates = append(result.Candidates, *report)
				candidates = append(candidates, ml.Candidate{Name: report.Name, Metrics: ml.BinaryMetrics{
					Precision: report.Metrics.Precision,
					Recall:    report.Metrics.Recall,
					F1:        report.Metrics.F1,
					AUC:       report.Metrics.AUC,
				}})
			}
		}
	}

	champion, err := ml.SelectChampion(candidates)
	if err != nil {
		return nil, fmt.Errorf("champion selection failed: %w", err)
	}
	result.ChampionID = result.Candidates[champion].ArtifactID
	result.ChampionName = result.Candidates[champion].Name

	if err := s.registry.Activate(ctx, result.ChampionID); err != nil {
		return nil, fmt.Errorf("failed to activate champion: %w", err)
	}

	log.Info().
		Str("artifact_id", result.ChampionID).
		Str("candidate", result.ChampionName).
		Float64("f1", result.Candidates[champion].Metrics.F1).
		Msg("champion activated")
	return result, nil
}

type candidateSpec struct {
	family     string
	featureSet string
	strategy   string
	scaler     *ml.StandardScaler
	xTrain     [][]float64
	yTrain     []int
	xTest      [][]float64
	yTest      []int
}

func (s *TrainingService) trainCandidate(ctx context.Context, spec candidateSpec) (*CandidateReport, error) {
	xTrain, yTrain := spec.xTrain, spec.yTrain
	strategy := spec.strategy
	posWeight := 1.0

	if strategy == entities.ImbalanceSMOTE {
		var err error
		xTrain, yTrain, err = ml.SMOTE(spec.xTrain, spec.yTrain, s.cfg.OversampleRatio, smoteNeighbors, s.cfg.RandomSeed)
		if errors.Is(err, ml.ErrTooFewMinority) {
			// Not enough minority samples to interpolate between; fall
			// back to weighting the loss instead of resampling.
			strategy = entities.ImbalanceClassWeight
			posWeight = classWeight(spec.yTrain)
			xTrain, yTrain = spec.xTrain, spec.yTrain
			log.Warn().
				Str("family", spec.family).
				Str("feature_set", spec.featureSet).
				Float64("pos_weight", posWeight).
				Msg("minority class too small for SMOTE; using class weights")
		} else if err != nil {
			return nil, fmt.Errorf("oversampling failed: %w", err)
		}
	}

	var (
		model       ml.Model
		hyperparams interface{}
	)
	switch spec.family {
	case entities.ModelFamilyLogistic:
		cfg := ml.DefaultLogisticConfig()
		cfg.PosWeight = posWeight
		model = ml.TrainLogistic(xTrain, yTrain, cfg)
		hyperparams = cfg
	case entities.ModelFamilyGBT:
		cfg := ml.DefaultGBTConfig()
		cfg.PosWeight = posWeight
		model = ml.TrainGBT(xTrain, yTrain, cfg)
		hyperparams = cfg
	default:
		return nil, fmt.Errorf("unknown model family %q", spec.family)
	}

	probs := make([]float64, len(spec.xTest))
	for i, row := range spec.xTest {
		probs[i] = model.PredictProba(row)
	}
	metrics := ml.Evaluate(spec.yTest, probs)

	artifact, err := s.buildArtifact(spec, strategy, model, hyperparams, metrics)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Save(ctx, artifact); err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}

	log.Info().
		Str("candidate", artifact.Name()).
		Float64("precision", metrics.Precision).
		Float64("recall", metrics.Recall).
		Float64("f1", metrics.F1).
		Float64("auc", metrics.AUC).
		Msg("candidate evaluated")
	return &CandidateReport{
		ArtifactID: artifact.ID,
		Name:       artifact.Name(),
		Strategy:   strategy,
		Metrics:    artifact.Metrics,
	}, nil
}

func (s *TrainingService) buildArtifact(
	spec candidateSpec,
	strategy string,
	model ml.Model,
	hyperparams interface{},
	metrics ml.BinaryMetrics,
) (*entities.ModelArtifact, error) {
	encoded, err := ml.EncodeModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	params, err := json.Marshal(modelBundle{
		FeatureSet: spec.featureSet,
		Scaler:     spec.scaler,
		Model:      encoded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model bundle: %w", err)
	}
	hp, err := json.Marshal(hyperparams)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hyperparams: %w", err)
	}

	return &entities.ModelArtifact{
		ID:                uuid.New().String(),
		Family:            spec.family,
		FeatureSet:        spec.featureSet,
		ImbalanceStrategy: strategy,
		Hyperparams:       hp,
		ModelParams:       params,
		Metrics: entities.ModelMetrics{
			Precision: metrics.Precision,
			Recall:    metrics.Recall,
			F1:        metrics.F1,
			AUC:       metrics.AUC,
		},
		CreatedAt: s.clock.Now().UTC(),
	}, nil
}

// loadTrainingData joins feature vectors with churn labels by customer ID.
// Both repositories list in customer ID order, but the join is keyed rather
// than positional so a missing label surfaces as a skip, not a misalignment.
func (s *TrainingService) loadTrainingData(ctx context.Context) ([]entities.CustomerFeatureVector, []int, error) {
	vectors, err := s.features.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load feature vectors: %w", err)
	}
	churnLabels, err := s.labels.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load churn labels: %w", err)
	}
	if len(vectors) == 0 || len(churnLabels) == 0 {
		return nil, nil, apperrors.NewValidationError("features and churn labels must exist before training")
	}

	byCustomer := make(map[string]bool, len(churnLabels))
	for _, l := range churnLabels {
		byCustomer[l.CustomerID] = l.AtRisk
	}

	joined := make([]entities.CustomerFeatureVector, 0, len(vectors))
	y := make([]int, 0, len(vectors))
	for _, v := range vectors {
		atRisk, ok := byCustomer[v.CustomerID]
		if !ok {
			log.Warn().Str("customer_id", v.CustomerID).Msg("feature vector has no churn label; excluded from training")
			continue
		}
		joined = append(joined, v)
		if atRisk {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	if len(joined) == 0 {
		return nil, nil, apperrors.NewValidationError("no customer has both features and a churn label")
	}
	return joined, y, nil
}

// featureMatrix extracts the rows at idx for the named feature set.
func featureMatrix(vectors []entities.CustomerFeatureVector, idx []int, featureSet string) [][]float64 {
	rows := make([][]float64, len(idx))
	for i, j := range idx {
		rows[i] = featureRow(&vectors[j], featureSet)
	}
	return rows
}

// featureRow maps a feature vector onto the model input for a feature set.
// The simple set is the RFM triple; the detailed set extends it with the
// behavioral signals.
func featureRow(v *entities.CustomerFeatureVector, featureSet string) []float64 {
	row := []float64{v.RecencyDays, float64(v.Frequency), v.Monetary}
	if featureSet == entities.FeatureSetDetailed {
		row = append(row,
			v.MeanLateness(),
			v.AvgReviewScore,
			v.AvgInstallments,
			float64(v.CategoryCount),
			v.OrderValueTrend,
		)
	}
	return row
}

func labelsAt(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}

// classWeight is the negative/positive ratio used when weighting replaces
// resampling.
func classWeight(y []int) float64 {
	pos, neg := 0, 0
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 {
		return 1
	}
	return float64(neg) / float64(pos)
}

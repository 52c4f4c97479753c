package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

// Hand-rolled fakes with overridable func fields. Unset funcs fall back to
// the in-memory behavior so most tests only override what they exercise.

type fakeSnapshotRepo struct {
	validateFn func(ctx context.Context) error
	listFn     func(ctx context.Context) ([]string, error)
	historyFn  func(ctx context.Context, customerID string) ([]entities.OrderDetail, error)
}

func (f *fakeSnapshotRepo) Validate(ctx context.Context) error {
	if f.validateFn != nil {
		return f.validateFn(ctx)
	}
	return nil
}

func (f *fakeSnapshotRepo) ListCustomerIDsWithOrders(ctx context.Context) ([]string, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}

func (f *fakeSnapshotRepo) GetOrderHistory(ctx context.Context, customerID string) ([]entities.OrderDetail, error) {
	if f.historyFn != nil {
		return f.historyFn(ctx, customerID)
	}
	return nil, nil
}

type fakeFeatureRepo struct {
	mu       sync.Mutex
	stored   []entities.CustomerFeatureVector
	listFn   func(ctx context.Context) ([]entities.CustomerFeatureVector, error)
	replaced int
}

func (f *fakeFeatureRepo) ReplaceAll(ctx context.Context, vectors []entities.CustomerFeatureVector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append([]entities.CustomerFeatureVector(nil), vectors...)
	f.replaced++
	return nil
}

func (f *fakeFeatureRepo) List(ctx context.Context) ([]entities.CustomerFeatureVector, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.CustomerFeatureVector(nil), f.stored...), nil
}

type fakeSegmentRepo struct {
	stored []entities.Segment
}

func (f *fakeSegmentRepo) ReplaceAll(ctx context.Context, segments []entities.Segment) error {
	f.stored = append([]entities.Segment(nil), segments...)
	return nil
}

func (f *fakeSegmentRepo) List(ctx context.Context) ([]entities.Segment, error) {
	return append([]entities.Segment(nil), f.stored...), nil
}

type fakeChurnLabelRepo struct {
	stored []entities.ChurnLabel
	listFn func(ctx context.Context) ([]entities.ChurnLabel, error)
}

func (f *fakeChurnLabelRepo) ReplaceAll(ctx context.Context, labels []entities.ChurnLabel) error {
	f.stored = append([]entities.ChurnLabel(nil), labels...)
	return nil
}

func (f *fakeChurnLabelRepo) List(ctx context.Context) ([]entities.ChurnLabel, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return append([]entities.ChurnLabel(nil), f.stored...), nil
}

type fakeModelRegistry struct {
	saved    []*entities.ModelArtifact
	activeID string
}

func (f *fakeModelRegistry) Save(ctx context.Context, artifact *entities.ModelArtifact) error {
	copied := *artifact
	f.saved = append(f.saved, &copied)
	return nil
}

func (f *fakeModelRegistry) Activate(ctx context.Context, artifactID string) error {
	for _, a := range f.saved {
		if a.ID == artifactID {
			f.activeID = artifactID
			a.Active = true
			return nil
		}
	}
	return fmt.Errorf("artifact %s not found", artifactID)
}

func (f *fakeModelRegistry) GetActive(ctx context.Context) (*entities.ModelArtifact, error) {
	for _, a := range f.saved {
		if a.ID == f.activeID && f.activeID != "" {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no active artifact")
}

func (f *fakeModelRegistry) List(ctx context.Context) ([]*entities.ModelArtifact, error) {
	return append([]*entities.ModelArtifact(nil), f.saved...), nil
}

type fakeScoreRepo struct {
	stored []entities.RiskScore
}

func (f *fakeScoreRepo) ReplaceAll(ctx context.Context, scores []entities.RiskScore) error {
	f.stored = append([]entities.RiskScore(nil), scores...)
	return nil
}

func (f *fakeScoreRepo) GetByCustomer(ctx context.Context, customerID string) (*entities.RiskScore, error) {
	for i := range f.stored {
		if f.stored[i].CustomerID == customerID {
			return &f.stored[i], nil
		}
	}
	return nil, fmt.Errorf("score for %s not found", customerID)
}

func (f *fakeScoreRepo) List(ctx context.Context) ([]entities.RiskScore, error) {
	return append([]entities.RiskScore(nil), f.stored...), nil
}

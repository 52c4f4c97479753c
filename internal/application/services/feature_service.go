package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
)

const hoursPerDay = 24

// FeatureRunSummary reports one feature computation run.
type FeatureRunSummary struct {
	Customers int
	Computed  int
	Skipped   int
}

// FeatureService computes one behavioral feature vector per customer with at
// least one order. Per-customer aggregation is independent and runs on a
// bounded worker pool; a customer whose history cannot be aggregated is
// logged and skipped, never fatal.
type FeatureService struct {
	snapshot repositories.SnapshotRepository
	features repositories.FeatureRepository
	clock    clockwork.Clock
	workers  int
}

// NewFeatureService creates a new feature service
func NewFeatureService(
	snapshot repositories.SnapshotRepository,
	features repositories.FeatureRepository,
	clock clockwork.Clock,
	workers int,
) *FeatureService {
	if workers <= 0 {
		workers = 1
	}
	return &FeatureService{
		snapshot: snapshot,
		features: features,
		clock:    clock,
		workers:  workers,
	}
}

// BuildFeatures computes and persists the full feature set against the
// reference timestamp. A zero referenceTime means "now". The previous run's
// vectors are replaced wholesale, so recomputing over an unchanged snapshot
// reproduces the table exactly.
func (s *FeatureService) BuildFeatures(ctx context.Context, referenceTime time.Time) (*FeatureRunSummary, error) {
	if referenceTime.IsZero() {
		referenceTime = s.clock.Now().UTC()
	}

	customerIDs, err := s.snapshot.ListCustomerIDsWithOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	// Slots are index-addressed so the persisted order follows customer ID
	// order no matter how workers interleave.
	slots := make([]*entities.CustomerFeatureVector, len(customerIDs))
	var skipped int64

	pool := pond.NewPool(s.workers, pond.WithContext(ctx))
	for i, id := range customerIDs {
		pool.Submit(func() {
			history, err := s.snapshot.GetOrderHistory(ctx, id)
			if err != nil {
				atomic.AddInt64(&skipped, 1)
				log.Warn().Str("customer_id", id).Err(err).Msg("skipping customer: failed to load order history")
				return
			}
			vector, err := computeFeatureVector(id, history, referenceTime)
			if err != nil {
				atomic.AddInt64(&skipped, 1)
				log.Warn().Str("customer_id", id).Err(err).Msg("skipping customer: failed to aggregate features")
				return
			}
			slots[i] = vector
		})
	}
	pool.StopAndWait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([]entities.CustomerFeatureVector, 0, len(slots))
	for _, v := range slots {
		if v != nil {
			vectors = append(vectors, *v)
		}
	}

	if err := s.features.ReplaceAll(ctx, vectors); err != nil {
		return nil, fmt.Errorf("failed to persist feature vectors: %w", err)
	}

	summary := &FeatureRunSummary{
		Customers: len(customerIDs),
		Computed:  len(vectors),
		Skipped:   int(skipped),
	}
	log.Info().
		Int("customers", summary.Customers).
		Int("computed", summary.Computed).
		Int("skipped", summary.Skipped).
		Time("reference_time", referenceTime).
		Msg("feature computation complete")
	return summary, nil
}

// computeFeatureVector aggregates one customer's order history into the
// fixed feature schema. ComputedAt carries the reference timestamp so the
// output is a pure function of snapshot and T.
func computeFeatureVector(customerID string, history []entities.OrderDetail, referenceTime time.Time) (*entities.CustomerFeatureVector, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("customer %s has no orders", customerID)
	}

	v := &entities.CustomerFeatureVector{
		CustomerID: customerID,
		Frequency:  len(history),
		ComputedAt: referenceTime,
	}

	type latenessCounts struct{ late, delivered int }
	lateness := map[string]*latenessCounts{}
	categories := map[string]bool{}
	var reviewSum, installmentSum float64
	var installmentCount int
	var orderValues []float64

	for _, detail := range history {
		if detail.Order.PurchasedAt.After(v.LastOrderAt) {
			v.LastOrderAt = detail.Order.PurchasedAt
		}

		if !detail.IsCanceled() {
			orderValue := 0.0
			for _, item := range detail.Items {
				orderValue += item.Price + item.FreightValue
			}
			v.Monetary += orderValue
			orderValues = append(orderValues, orderValue)
		}

		for _, item := range detail.Items {
			if item.ProductCategory != "" {
				categories[item.ProductCategory] = true
			}
			// Lateness only counts orders with both delivery timestamps;
			// undelivered orders stay in frequency and monetary.
			if detail.IsDelivered() && item.ProductCategory != "" {
				counts := lateness[item.ProductCategory]
				if counts == nil {
					counts = &latenessCounts{}
					lateness[item.ProductCategory] = counts
				}
				counts.delivered++
				if detail.IsLate() {
					counts.late++
				}
			}
		}

		if detail.Review != nil {
			reviewSum += float64(detail.Review.Score)
			v.ReviewCount++
		}
		for _, payment := range detail.Payments {
			installmentSum += float64(payment.Installments)
			installmentCount++
		}
	}

	v.RecencyDays = referenceTime.Sub(v.LastOrderAt).Hours() / hoursPerDay
	v.CategoryCount = len(categories)
	if v.ReviewCount > 0 {
		v.AvgReviewScore = reviewSum / float64(v.ReviewCount)
	}
	if installmentCount > 0 {
		v.AvgInstallments = installmentSum / float64(installmentCount)
	}
	v.OrderValueTrend = valueTrend(orderValues)

	if len(lateness) > 0 {
		v.LatenessByCategory = make(map[string]float64, len(lateness))
		for category, counts := range lateness {
			v.LatenessByCategory[category] = float64(counts.late) / float64(counts.delivered)
		}
	}

	return v, nil
}

// valueTrend is the least-squares slope of chronological order values,
// positive when a customer's spend is growing.
func valueTrend(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}

package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
)

var refTime = time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC)

func ts(daysAgo int) time.Time {
	return refTime.AddDate(0, 0, -daysAgo)
}

func deliveredOrder(id, customerID string, purchased time.Time, late bool) entities.Order {
	estimated := purchased.AddDate(0, 0, 7)
	delivered := estimated.AddDate(0, 0, -1)
	if late {
		delivered = estimated.AddDate(0, 0, 2)
	}
	return entities.Order{
		ID:                id,
		CustomerID:        customerID,
		Status:            entities.OrderStatusDelivered,
		PurchasedAt:       purchased,
		EstimatedDelivery: &estimated,
		DeliveredAt:       &delivered,
	}
}

func TestBuildFeatures_AggregatesRFM(t *testing.T) {
	history := []entities.OrderDetail{
		{
			Order: deliveredOrder("o1", "c1", ts(60), false),
			Items: []entities.OrderItem{
				{OrderID: "o1", ProductCategory: "toys", Price: 100, FreightValue: 10},
			},
			Payments: []entities.Payment{{OrderID: "o1", Value: 110, Installments: 2}},
			Review:   &entities.Review{OrderID: "o1", Score: 5},
		},
		{
			Order: deliveredOrder("o2", "c1", ts(30), true),
			Items: []entities.OrderItem{
				{OrderID: "o2", ProductCategory: "toys", Price: 50, FreightValue: 5},
				{OrderID: "o2", ProductCategory: "books", Price: 20, FreightValue: 2},
			},
			Payments: []entities.Payment{{OrderID: "o2", Value: 77, Installments: 4}},
			Review:   &entities.Review{OrderID: "o2", Score: 3},
		},
	}
	snapshot := &fakeSnapshotRepo{
		listFn: func(ctx context.Context) ([]string, error) { return []string{"c1"}, nil },
		historyFn: func(ctx context.Context, id string) ([]entities.OrderDetail, error) {
			return history, nil
		},
	}
	features := &fakeFeatureRepo{}
	svc := NewFeatureService(snapshot, features, clockwork.NewFakeClock(), 2)

	summary, err := svc.BuildFeatures(context.Background(), refTime)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Computed)
	assert.Equal(t, 0, summary.Skipped)

	require.Len(t, features.stored, 1)
	v := features.stored[0]
	assert.Equal(t, "c1", v.CustomerID)
	assert.InDelta(t, 30, v.RecencyDays, 1e-9)
	assert.Equal(t, 2, v.Frequency)
	assert.InDelta(t, 187, v.Monetary, 1e-9)
	assert.Equal(t, 2, v.CategoryCount)
	assert.InDelta(t, 4, v.AvgReviewScore, 1e-9)
	assert.Equal(t, 2, v.ReviewCount)
	assert.InDelta(t, 3, v.AvgInstallments, 1e-9)
	// o1 on time, o2 late: toys 1/2 late, books 1/1 late.
	assert.InDelta(t, 0.5, v.LatenessByCategory["toys"], 1e-9)
	assert.InDelta(t, 1.0, v.LatenessByCategory["books"], 1e-9)
	assert.True(t, v.ComputedAt.Equal(refTime))
	assert.True(t, v.LastOrderAt.Equal(ts(30)))
}

func TestBuildFeatures_CanceledOrdersExcludedFromMonetary(t *testing.T) {
	history := []entities.OrderDetail{
		{
			Order: deliveredOrder("o1", "c1", ts(10), false),
			Items: []entities.OrderItem{{OrderID: "o1", ProductCategory: "toys", Price: 40, FreightValue: 4}},
		},
		{
			Order: entities.Order{ID: "o2", CustomerID: "c1", Status: entities.OrderStatusCanceled, PurchasedAt: ts(5)},
			Items: []entities.OrderItem{{OrderID: "o2", ProductCategory: "toys", Price: 999, FreightValue: 99}},
		},
	}
	snapshot := &fakeSnapshotRepo{
		listFn: func(ctx context.Context) ([]string, error) { return []string{"c1"}, nil },
		historyFn: func(ctx context.Context, id string) ([]entities.OrderDetail, error) {
			return history, nil
		},
	}
	features := &fakeFeatureRepo{}
	svc := NewFeatureService(snapshot, features, clockwork.NewFakeClock(), 1)

	_, err := svc.BuildFeatures(context.Background(), refTime)
	require.NoError(t, err)

	require.Len(t, features.stored, 1)
	v := features.stored[0]
	assert.InDelta(t, 44, v.Monetary, 1e-9)
	// The canceled order still counts toward frequency and recency.
	assert.Equal(t, 2, v.Frequency)
	assert.InDelta(t, 5, v.RecencyDays, 1e-9)
}

func TestBuildFeatures_SkipsCustomerOnHistoryError(t *testing.T) {
	snapshot := &fakeSnapshotRepo{
		listFn: func(ctx context.Context) ([]string, error) { return []string{"bad", "good"}, nil },
		historyFn: func(ctx context.Context, id string) ([]entities.OrderDetail, error) {
			if id == "bad" {
				return nil, fmt.Errorf("corrupt rows")
			}
			return []entities.OrderDetail{{
				Order: deliveredOrder("o1", id, ts(1), false),
				Items: []entities.OrderItem{{OrderID: "o1", Price: 10}},
			}}, nil
		},
	}
	features := &fakeFeatureRepo{}
	svc := NewFeatureService(snapshot, features, clockwork.NewFakeClock(), 4)

	summary, err := svc.BuildFeatures(context.Background(), refTime)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Customers)
	assert.Equal(t, 1, summary.Computed)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, features.stored, 1)
	assert.Equal(t, "good", features.stored[0].CustomerID)
}

func TestBuildFeatures_PersistsInCustomerIDOrder(t *testing.T) {
	ids := []string{"c01", "c02", "c03", "c04", "c05", "c06", "c07", "c08"}
	snapshot := &fakeSnapshotRepo{
		listFn: func(ctx context.Context) ([]string, error) { return ids, nil },
		historyFn: func(ctx context.Context, id string) ([]entities.OrderDetail, error) {
			return []entities.OrderDetail{{
				Order: deliveredOrder("o-"+id, id, ts(3), false),
				Items: []entities.OrderItem{{Price: 1}},
			}}, nil
		},
	}
	features := &fakeFeatureRepo{}
	svc := NewFeatureService(snapshot, features, clockwork.NewFakeClock(), 4)

	_, err := svc.BuildFeatures(context.Background(), refTime)
	require.NoError(t, err)

	require.Len(t, features.stored, len(ids))
	for i, v := range features.stored {
		assert.Equal(t, ids[i], v.CustomerID)
	}
}

func TestBuildFeatures_ZeroReferenceTimeUsesClock(t *testing.T) {
	now := time.Date(2018, 10, 15, 12, 0, 0, 0, time.UTC)
	snapshot := &fakeSnapshotRepo{
		listFn: func(ctx context.Context) ([]string, error) { return []string{"c1"}, nil },
		historyFn: func(ctx context.Context, id string) ([]entities.OrderDetail, error) {
			return []entities.OrderDetail{{
				Order: deliveredOrder("o1", id, now.AddDate(0, 0, -7), false),
				Items: []entities.OrderItem{{Price: 1}},
			}}, nil
		},
	}
	features := &fakeFeatureRepo{}
	svc := NewFeatureService(snapshot, features, clockwork.NewFakeClockAt(now), 1)

	_, err := svc.BuildFeatures(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, features.stored, 1)
	assert.True(t, features.stored[0].ComputedAt.Equal(now))
	assert.InDelta(t, 7, features.stored[0].RecencyDays, 1e-9)
}

func TestBuildFeatures_RecomputationIsIdentical(t *testing.T) {
	history := []entities.OrderDetail{
		{
			Order: deliveredOrder("o1", "c1", ts(45), true),
			Items: []entities.OrderItem{{OrderID: "o1", ProductCategory: "toys", Price: 80, FreightValue: 8}},
			Payments: []entities.Payment{{OrderID: "o1", Value: 88, Installments: 2}},
			Review:   &entities.Review{OrderID: "o1", Score: 4},
		},
	}
	snapshot := &fakeSnapshotRepo{
		listFn: func(ctx context.Context) ([]string, error) { return []string{"c1"}, nil },
		historyFn: func(ctx context.Context, id string) ([]entities.OrderDetail, error) {
			return history, nil
		},
	}
	features := &fakeFeatureRepo{}
	svc := NewFeatureService(snapshot, features, clockwork.NewFakeClock(), 2)

	_, err := svc.BuildFeatures(context.Background(), refTime)
	require.NoError(t, err)
	first := append([]entities.CustomerFeatureVector(nil), features.stored...)

	// Rerunning against the same snapshot and reference time reproduces
	// the table exactly, wall clock notwithstanding.
	_, err = svc.BuildFeatures(context.Background(), refTime)
	require.NoError(t, err)
	assert.Equal(t, first, features.stored)
}

func TestValueTrend(t *testing.T) {
	assert.InDelta(t, 10, valueTrend([]float64{10, 20, 30}), 1e-9)
	assert.InDelta(t, -5, valueTrend([]float64{20, 15, 10}), 1e-9)
	assert.Zero(t, valueTrend([]float64{42}))
	assert.Zero(t, valueTrend(nil))
}

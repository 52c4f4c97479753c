package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kelvinchuks/customer-insights/internal/domain/entities"
	"github.com/kelvinchuks/customer-insights/internal/domain/providers"
	"github.com/kelvinchuks/customer-insights/internal/domain/repositories"
)

const (
	scoreCacheKeyPrefix = "risk_score:"
	scoreCacheTTL       = 3600 // seconds; scores only change when a scoring run replaces them
)

// CachedScoreAdapter decorates a ScoreRepository with a read-through cache
// for the per-customer lookups the BI collaborator makes. Writes pass
// through and invalidate the whole score keyspace, since ReplaceAll swaps
// every row.
type CachedScoreAdapter struct {
	inner repositories.ScoreRepository
	cache providers.CacheProvider
}

// NewCachedScoreAdapter wraps a score repository with a cache provider
func NewCachedScoreAdapter(inner repositories.ScoreRepository, cache providers.CacheProvider) repositories.ScoreRepository {
	return &CachedScoreAdapter{
		inner: inner,
		cache: cache,
	}
}

// ReplaceAll delegates to the inner repository and drops all cached scores.
func (a *CachedScoreAdapter) ReplaceAll(ctx context.Context, scores []entities.RiskScore) error {
	if err := a.inner.ReplaceAll(ctx, scores); err != nil {
		return err
	}
	if err := a.cache.DeletePattern(ctx, scoreCacheKeyPrefix+"*"); err != nil {
		// Stale cache entries expire on their own; the write succeeded.
		log.Warn().Err(err).Msg("failed to invalidate score cache")
	}
	return nil
}

// GetByCustomer serves from cache when possible.
func (a *CachedScoreAdapter) GetByCustomer(ctx context.Context, customerID string) (*entities.RiskScore, error) {
	key := scoreCacheKeyPrefix + customerID

	if data, err := a.cache.Get(ctx, key); err == nil {
		var score entities.RiskScore
		if err := json.Unmarshal(data, &score); err == nil {
			return &score, nil
		}
		log.Warn().Str("customer_id", customerID).Msg("corrupt score cache entry, falling through")
	}

	score, err := a.inner.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(score); err == nil {
		if err := a.cache.Set(ctx, key, data, scoreCacheTTL); err != nil {
			log.Warn().Err(err).Msg(fmt.Sprintf("failed to cache score for customer %s", customerID))
		}
	}

	return score, nil
}

// List always reads through to the repository.
func (a *CachedScoreAdapter) List(ctx context.Context) ([]entities.RiskScore, error) {
	return a.inner.List(ctx)
}

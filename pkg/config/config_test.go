package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvinchuks/customer-insights/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "customer_insights", cfg.Database.Database)

	assert.Equal(t, 3, cfg.Pipeline.SegmentCount)
	assert.False(t, cfg.Pipeline.AutoSegmentCount)
	assert.Equal(t, 180, cfg.Pipeline.ChurnHorizonDays)
	assert.Equal(t, 1.0, cfg.Pipeline.OversampleRatio)
	assert.Equal(t, 4, cfg.Pipeline.FeatureWorkers)
	assert.Equal(t, int64(42), cfg.Pipeline.RandomSeed)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.StageTimeout)
	assert.True(t, cfg.Pipeline.ReferenceTime.IsZero())
	assert.True(t, cfg.Pipeline.TrainCutoff.IsZero())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SEGMENT_COUNT", "5")
	t.Setenv("SEGMENT_AUTO_K", "true")
	t.Setenv("CHURN_HORIZON_DAYS", "90")
	t.Setenv("OVERSAMPLE_RATIO", "0.5")
	t.Setenv("TRAIN_CUTOFF", "2018-06-01T00:00:00Z")
	t.Setenv("REFERENCE_TIME", "2018-09-01T00:00:00Z")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Pipeline.SegmentCount)
	assert.True(t, cfg.Pipeline.AutoSegmentCount)
	assert.Equal(t, 90, cfg.Pipeline.ChurnHorizonDays)
	assert.Equal(t, 0.5, cfg.Pipeline.OversampleRatio)
	assert.Equal(t, time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC), cfg.Pipeline.TrainCutoff)
	assert.Equal(t, time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC), cfg.Pipeline.ReferenceTime)
}

func TestLoad_BadTimestamp(t *testing.T) {
	t.Setenv("TRAIN_CUTOFF", "06/01/2018")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "insights",
		Password: "secret",
		Database: "olist",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db port=5433 user=insights password=secret dbname=olist sslmode=require",
		cfg.DatabaseDSN(),
	)
}

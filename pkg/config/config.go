package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PipelineConfig holds the tunable knobs of the analytics pipeline.
// Defaults are documented here and nowhere else.
type PipelineConfig struct {
	// ReferenceTime is the timestamp T recency is measured against.
	// Zero value means "now" at run start.
	ReferenceTime time.Time

	// SegmentCount is the number of customer segments K. Ignored when
	// AutoSegmentCount is set.
	SegmentCount int

	// AutoSegmentCount selects K by an elbow heuristic over a bounded range
	// instead of using SegmentCount.
	AutoSegmentCount bool

	// ChurnHorizonDays is the inactivity horizon H: a customer whose recency
	// exceeds it is labeled at-risk.
	ChurnHorizonDays int

	// OversampleRatio is the target minority/majority ratio for synthetic
	// oversampling of the training fold.
	OversampleRatio float64

	// TrainCutoff partitions customers into the training cohort (last order
	// at or before the cutoff) and the evaluation cohort (after).
	TrainCutoff time.Time

	// FeatureWorkers bounds per-customer aggregation concurrency.
	FeatureWorkers int

	// RandomSeed fixes clustering initialization and oversampling draws.
	RandomSeed int64

	// StageTimeout bounds every pipeline stage.
	StageTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	refTime, err := getEnvAsTime("REFERENCE_TIME")
	if err != nil {
		return nil, fmt.Errorf("REFERENCE_TIME: %w", err)
	}
	cutoff, err := getEnvAsTime("TRAIN_CUTOFF")
	if err != nil {
		return nil, fmt.Errorf("TRAIN_CUTOFF: %w", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "customer_insights"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Pipeline: PipelineConfig{
			ReferenceTime:    refTime,
			SegmentCount:     getEnvAsInt("SEGMENT_COUNT", 3),
			AutoSegmentCount: getEnvAsBool("SEGMENT_AUTO_K", false),
			ChurnHorizonDays: getEnvAsInt("CHURN_HORIZON_DAYS", 180),
			OversampleRatio:  getEnvAsFloat("OVERSAMPLE_RATIO", 1.0),
			TrainCutoff:      cutoff,
			FeatureWorkers:   getEnvAsInt("FEATURE_WORKERS", 4),
			RandomSeed:       int64(getEnvAsInt("RANDOM_SEED", 42)),
			StageTimeout:     time.Duration(getEnvAsInt("STAGE_TIMEOUT_SECONDS", 300)) * time.Second,
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsTime(key string) (time.Time, error) {
	value := os.Getenv(key)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 timestamp, got %q", value)
	}
	return t.UTC(), nil
}

package store

import (
	"log/slog"

	"github.com/VictoriaMetrics/metrics"
)

// DefaultMaxBatchSize bounds the number of requests sent in one batch.
const DefaultMaxBatchSize = 1000

// Config holds configuration for the Store.
type Config struct {
	// MaxBatchSize is the largest number of requests accepted per call.
	// Larger batches are rejected before anything is sent.
	// Default: 1000
	MaxBatchSize int

	// Logger receives per-batch debug traces and batch failures.
	// Default: slog.Default()
	Logger *slog.Logger

	// Metrics is the set store counters and histograms are registered on.
	// Register it with metrics.RegisterSet to expose it.
	// Default: a new private set
	Metrics *metrics.Set
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize: DefaultMaxBatchSize,
	}
}

// validate fills unset values and clamps the batch size.
func (c *Config) validate() {
	if c.MaxBatchSize < 1 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewSet()
	}
}

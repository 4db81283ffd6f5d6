// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Model names the generative model used by all pipeline stages.
	Model string `koanf:"model"`

	// Organizer is the default organizer attributed to reports that
	// never state one.
	Organizer string `koanf:"organizer"`

	// APIKey is the fallback credential used when a submission carries
	// none of its own. It is read from config or environment at startup
	// and is never written back to process-wide environment state.
	APIKey string `koanf:"api_key"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreCapacity bounds the in-memory report store.
	StoreCapacity int `koanf:"store_capacity"`

	// MaxListLimit caps GET /reports?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// RetryMaxAttempts bounds remote generation calls per stage request,
	// first try included.
	RetryMaxAttempts int `koanf:"retry_max_attempts"`

	// RetryMinBackoffMS and RetryMaxBackoffMS bound the exponential
	// backoff between transient-failure attempts.
	RetryMinBackoffMS int `koanf:"retry_min_backoff_ms"`
	RetryMaxBackoffMS int `koanf:"retry_max_backoff_ms"`

	// ParseRetries sets how many self-correction rounds each stage gets
	// after an unparseable response.
	ParseRetries int `koanf:"parse_retries"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		Model:             "gemini-2.5-flash",
		Organizer:         "IEEE RIT Student Branch",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		StoreCapacity:     10_000,
		MaxListLimit:      100,
		RetryMaxAttempts:  3,
		RetryMinBackoffMS: 2_000,
		RetryMaxBackoffMS: 10_000,
		ParseRetries:      2,
	}
	return c
}

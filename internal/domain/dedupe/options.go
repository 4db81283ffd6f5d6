// Package dedupe defines the interface for idempotency tracking.
package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of IDs to keep in memory.
// If maxSize > 0: bounded mode, oldest IDs forgotten first.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithEvictionHook registers a callback invoked with each ID the deduper
// forgets, so callers holding state keyed by the same IDs can drop it in
// step. The hook runs under the deduper lock; keep it fast and never call
// back into the deduper from it.
func WithEvictionHook(hook func(id string)) Option {
	return func(d *inMemoryDeduper) {
		d.onEvict = hook
	}
}

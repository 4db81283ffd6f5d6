// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen submission request IDs to ensure at-most-once
// pipeline runs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// This should only be used when a submission was marked as seen but
	// failed to be enqueued (e.g., queue backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO ring of IDs.
// Bounded mode (maxSize > 0) forgets the oldest IDs first; unbounded mode
// (maxSize <= 0) never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // FIFO; only maintained in bounded mode
	maxSize int
	onEvict func(id string)
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000, // default max size
	}

	// Apply all options
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]struct{})
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true // Already seen
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			d.evictOldest()
		}
		d.order = append(d.order, id)
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false // Newly recorded
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	// The stale order entry is skipped when eviction reaches it.
}

// evictOldest forgets the oldest recorded ID. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	for len(d.order) > 0 {
		oldest := d.order[0]
		d.order = d.order[1:]
		if _, exists := d.seen[oldest]; !exists {
			continue // unrecorded earlier; skip the stale entry
		}
		delete(d.seen, oldest)
		d.size.Add(-1)
		if d.onEvict != nil {
			d.onEvict(oldest)
		}
		return
	}
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

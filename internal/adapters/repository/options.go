// Package repository defines the report store interface and errors.
package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithCapacity bounds the number of reports the store retains. When the
// bound is hit, the oldest terminal report is evicted to make room.
func WithCapacity(capacity int) Option {
	return func(s *MemStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// Package repository defines the report store interface and errors.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/internal/domain/types"
	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// defaultCapacity bounds retained reports unless configured otherwise.
const defaultCapacity = 10_000

// MemStore is an in-memory, mutex-guarded Store implementation keyed by
// report ID. Creation order doubles as recency order for listings.
//
// Get returns a struct copy; nested slices are shared with the stored report
// and must be treated as read-only by callers. All mutation goes through
// Update, which holds the write lock for the whole closure.
type MemStore struct {
	mu       sync.RWMutex
	reports  map[string]*model.Report
	order    []string // creation order, oldest first
	capacity int
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an in-memory report store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		reports:  make(map[string]*model.Report),
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new report, evicting the oldest terminal report when the
// capacity bound is hit. A store full of in-flight reports rejects the
// insert rather than dropping live work.
func (s *MemStore) Create(_ context.Context, report *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[report.ID]; ok {
		return ErrDuplicateID
	}
	if len(s.reports) >= s.capacity {
		if !s.evictOldestTerminal() {
			return ErrStoreFull
		}
	}

	now := time.Now()
	stored := *report
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.reports[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	metrics.UpdateStoredReports(len(s.reports))
	return nil
}

// Get returns a copy of the report.
func (s *MemStore) Get(_ context.Context, id string) (model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return model.Report{}, ErrNotFound
	}
	return *r, nil
}

// Update applies mutate under the write lock and bumps UpdatedAt.
func (s *MemStore) Update(_ context.Context, id string, mutate func(*model.Report) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}
	if err := mutate(r); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	return nil
}

// Delete removes a report. Used to back out a report whose pipeline job was
// never accepted; stale order entries are skipped by later evictions.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return ErrNotFound
	}
	delete(s.reports, id)
	metrics.UpdateStoredReports(len(s.reports))
	return nil
}

// Recent returns summaries of the most recently created reports, newest
// first.
func (s *MemStore) Recent(_ context.Context, limit int) ([]types.Summary, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Summary, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		r, ok := s.reports[s.order[i]]
		if !ok {
			continue // evicted
		}
		out = append(out, summarize(r))
	}
	return out, nil
}

// Count returns the number of reports tracked in the store.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// evictOldestTerminal removes the oldest report whose pipeline work is done.
// Caller holds the write lock. Returns false when every report is in flight.
func (s *MemStore) evictOldestTerminal() bool {
	for i, id := range s.order {
		r, ok := s.reports[id]
		if !ok {
			// Stale order entry from a prior eviction; drop it.
			s.order = append(s.order[:i], s.order[i+1:]...)
			return s.evictOldestTerminal()
		}
		if r.Status.Terminal() {
			delete(s.reports, id)
			s.order = append(s.order[:i], s.order[i+1:]...)
			metrics.RecordRepositoryEviction()
			metrics.UpdateStoredReports(len(s.reports))
			return true
		}
	}
	return false
}

func summarize(r *model.Report) types.Summary {
	sum := types.Summary{
		ID:         r.ID,
		Status:     string(r.Status),
		Confidence: r.ConfidenceScore,
		CreatedAt:  r.CreatedAt,
	}
	if r.Facts.EventTitle != nil {
		sum.Title = *r.Facts.EventTitle
	}
	return sum
}

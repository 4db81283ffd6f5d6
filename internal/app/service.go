// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	jobqueue "github.com/ahadullabaig/Bean/internal/adapters/mq/queue"
	workerpool "github.com/ahadullabaig/Bean/internal/adapters/mq/worker"
	repository "github.com/ahadullabaig/Bean/internal/adapters/repository"
	"github.com/ahadullabaig/Bean/internal/domain/dedupe"
	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/internal/domain/types"
	"github.com/ahadullabaig/Bean/internal/pipeline"
	"github.com/ahadullabaig/Bean/pkg/logger"
	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// Service implements the API dependencies for the report system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	clientPool *gemini.Pool
	pipe       *pipeline.Pipeline
	workerPool *workerpool.Pool

	// Submission request IDs already accepted, mapped to their report.
	submissions map[string]string

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	storeCapacity int
	maxListLimit  int
	model         string
	organizer     string
	parseRetries  int
	retryPolicy   gemini.Policy

	// fallbackCredential backs submissions that carry no credential of
	// their own. It is held here only; per-session credentials ride the
	// job and are never merged into shared state.
	fallbackCredential string

	clientFactory func(ctx context.Context, credential string) (gemini.Generator, error)

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// SubmitRequest carries one report submission.
type SubmitRequest struct {
	// RequestID is an optional client-chosen idempotency key.
	RequestID string

	// Notes is the raw source text the report is built from.
	Notes string

	// Media holds optional supporting attachments (posters, photos).
	Media []gemini.Blob

	// Style is an optional prior report excerpt to imitate.
	Style string

	// HoldForReview pauses the pipeline after extraction so the
	// submitter can confirm the facts before narration.
	HoldForReview bool

	// Credential is the submitter's API key for this session.
	Credential string
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreCapacity bounds the in-memory report store.
func WithStoreCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.storeCapacity = capacity
		}
	}
}

// WithMaxListLimit caps how many reports a single listing may return.
func WithMaxListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxListLimit = limit
		}
	}
}

// WithModel sets the generative model used by all pipeline stages.
func WithModel(m string) Option {
	return func(s *Service) {
		if m != "" {
			s.model = m
		}
	}
}

// WithOrganizer sets the default organizer for extracted facts.
func WithOrganizer(organizer string) Option {
	return func(s *Service) {
		if organizer != "" {
			s.organizer = organizer
		}
	}
}

// WithFallbackCredential sets the credential used when a submission
// carries none of its own.
func WithFallbackCredential(credential string) Option {
	return func(s *Service) {
		s.fallbackCredential = credential
	}
}

// WithClientFactory overrides how generation clients are built.
// Tests use this to substitute scripted generators.
func WithClientFactory(factory func(ctx context.Context, credential string) (gemini.Generator, error)) Option {
	return func(s *Service) {
		if factory != nil {
			s.clientFactory = factory
		}
	}
}

// WithRetryPolicy sets the retry policy for remote generation calls.
func WithRetryPolicy(policy gemini.Policy) Option {
	return func(s *Service) {
		if policy.MaxAttempts > 0 {
			s.retryPolicy = policy
		}
	}
}

// WithParseRetries sets the number of self-correction rounds per stage.
func WithParseRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.parseRetries = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2, // Pipeline runs are remote-call bound
		queueSize:     10_000,
		dedupeSize:    50_000,
		storeCapacity: 10_000,
		maxListLimit:  100,
		model:         gemini.DefaultModel,
		organizer:     model.DefaultOrganizer,
		parseRetries:  2,
		retryPolicy:   gemini.DefaultPolicy(),
		submissions:   make(map[string]string),
		stopCh:        make(chan struct{}),
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting report service...")

	// Initialize components
	s.store = repository.NewMemStore(
		repository.WithCapacity(s.storeCapacity),
	)
	// The submissions map mirrors the deduper's key set, so it drops the
	// same IDs the deduper forgets and stays bounded with it.
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
		dedupe.WithEvictionHook(s.dropSubmission),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	poolOpts := []gemini.PoolOption{
		gemini.WithFallbackCredential(s.fallbackCredential),
	}
	if s.clientFactory != nil {
		poolOpts = append(poolOpts, gemini.WithClientFactory(s.clientFactory))
	}
	s.clientPool = gemini.NewPool(poolOpts...)

	pipe, err := pipeline.New(s.clientPool, s.logger.Named("pipeline"),
		pipeline.WithModel(s.model),
		pipeline.WithOrganizer(s.organizer),
		pipeline.WithRetryPolicy(s.retryPolicy),
		pipeline.WithParseRetries(s.parseRetries),
	)
	if err != nil {
		return err
	}
	s.pipe = pipe

	// Create and start worker pool driving the pipeline
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.pipe, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "report service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("model", s.model),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping report service...")

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close queue
	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "report service stopped")
}

// Submit accepts a report submission, stores a queued report, and enqueues
// the pipeline run. It returns the report ID and whether the submission was
// a duplicate of an earlier request.
//
// The submission's credential is placed on the job and nowhere else.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, bool, error) {
	if !s.isStarted() {
		return "", false, ErrNotStarted
	}
	if req.Notes == "" && len(req.Media) == 0 {
		return "", false, ErrEmptySubmission
	}

	credential := req.Credential
	if credential == "" {
		credential = s.fallbackCredential
	}
	if credential == "" {
		return "", false, ErrMissingCredential
	}

	// Idempotency: a request ID that was already accepted resolves to the
	// original report instead of starting a second pipeline run.
	if req.RequestID != "" {
		if s.deduper.SeenAndRecord(ctx, req.RequestID) {
			metrics.RecordSubmissionDuplicate()
			if id, ok := s.lookupSubmission(req.RequestID); ok {
				s.logger.Debug(ctx, "duplicate submission",
					logger.String("requestID", req.RequestID),
					logger.String("reportID", id),
				)
				return id, true, nil
			}
			return "", true, ErrDuplicateSubmission
		}
	}

	id := uuid.NewString()
	report := &model.Report{
		ID:            id,
		Notes:         req.Notes,
		Status:        model.StatusQueued,
		HoldForReview: req.HoldForReview,
	}
	if err := s.store.Create(ctx, report); err != nil {
		s.unrecordSubmission(ctx, req.RequestID)
		return "", false, err
	}

	job := jobqueue.Job{
		ReportID:   id,
		Credential: credential,
		Kind:       jobqueue.KindRun,
		Media:      req.Media,
		Style:      req.Style,
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		// Back out so the client can retry the same request ID later.
		s.unrecordSubmission(ctx, req.RequestID)
		_ = s.store.Delete(ctx, id)
		return "", false, ErrQueueFull
	}

	s.recordSubmission(req.RequestID, id)
	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
	s.logger.Debug(ctx, "submission accepted",
		logger.String("reportID", id),
		logger.Bool("holdForReview", req.HoldForReview),
	)
	return id, false, nil
}

// ConfirmFacts freezes reviewed facts on a held report and enqueues the
// narrate-and-verify half of the pipeline.
func (s *Service) ConfirmFacts(ctx context.Context, id string, facts model.Facts, credential, style string) error {
	if !s.isStarted() {
		return ErrNotStarted
	}

	if credential == "" {
		credential = s.fallbackCredential
	}
	if credential == "" {
		return ErrMissingCredential
	}

	err := s.store.Update(ctx, id, func(r *model.Report) error {
		if r.Status != model.StatusAwaitingReview {
			return ErrNotAwaitingReview
		}
		facts.EnsureOrganizer(s.organizer)
		r.Facts = facts
		r.FactsReviewed = true
		return nil
	})
	if err != nil {
		return err
	}

	job := jobqueue.Job{
		ReportID:   id,
		Credential: credential,
		Kind:       jobqueue.KindCompose,
		Style:      style,
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		return ErrQueueFull
	}

	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
	s.logger.Debug(ctx, "facts confirmed", logger.String("reportID", id))
	return nil
}

// Get returns the current state of a report.
func (s *Service) Get(ctx context.Context, id string) (model.Report, error) {
	if !s.isStarted() {
		return model.Report{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Recent returns summaries of the most recently created reports, newest
// first. A non-positive limit falls back to the listing cap.
func (s *Service) Recent(ctx context.Context, limit int) ([]types.Summary, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if limit <= 0 || limit > s.maxListLimit {
		limit = s.maxListLimit
	}
	return s.store.Recent(ctx, limit)
}

// MaxListLimit returns the cap applied to report listings.
func (s *Service) MaxListLimit() int {
	return s.maxListLimit
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		totalReports := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalReports"] = totalReports
		stats["activeClients"] = s.clientPool.Size()

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoredReports(totalReports)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) recordSubmission(requestID, reportID string) {
	if requestID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions[requestID] = reportID
}

func (s *Service) lookupSubmission(requestID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.submissions[requestID]
	return id, ok
}

// dropSubmission clears the request-id mapping for an ID the deduper has
// evicted. Without it the map would outgrow the deduper it mirrors.
func (s *Service) dropSubmission(requestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, requestID)
}

func (s *Service) unrecordSubmission(ctx context.Context, requestID string) {
	if requestID == "" {
		return
	}
	s.deduper.Unrecord(ctx, requestID)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, requestID)
}

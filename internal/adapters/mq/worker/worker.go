// Package worker defines worker contracts for asynchronous report pipeline
// runs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	"github.com/ahadullabaig/Bean/internal/adapters/mq/queue"
	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/internal/pipeline"
	"github.com/ahadullabaig/Bean/pkg/logger"
	"github.com/ahadullabaig/Bean/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU(); runs are remote-call bound
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Runner executes pipeline stages for a job. Each stage takes the job's
// credential; the worker never stores it anywhere else.
type Runner interface {
	Extract(ctx context.Context, credential, notes string, media []gemini.Blob) (model.Facts, error)
	Narrate(ctx context.Context, credential string, facts model.Facts, style string) (model.Narrative, error)
	Verify(ctx context.Context, credential, sourceText string, narrative model.Narrative) (model.Verdict, bool, error)
}

// Store is the slice of the repository workers need.
type Store interface {
	Get(ctx context.Context, id string) (model.Report, error)
	Update(ctx context.Context, id string, mutate func(*model.Report) error) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs and writes report state using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining jobs before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing pipeline jobs.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	store  Store
	name   string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, runner Runner, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		runner:   runner,
		store:    store,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			// Process the job
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob drives one report through the pipeline stages, writing each
// status transition to the store as it happens.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	report, err := w.store.Get(ctx, job.ReportID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "report_lookup")
		return fmt.Errorf("load report %s: %w", job.ReportID, err)
	}

	facts := report.Facts
	if job.Kind == queue.KindRun {
		if err := w.setStatus(ctx, job.ReportID, model.StatusExtracting); err != nil {
			return err
		}

		facts, err = w.runner.Extract(ctx, job.Credential, report.Notes, job.Media)
		if err != nil {
			return w.failReport(ctx, job.ReportID, pipeline.StageExtract, err)
		}

		hold := false
		err = w.store.Update(ctx, job.ReportID, func(r *model.Report) error {
			r.Facts = facts
			if r.HoldForReview {
				r.Status = model.StatusAwaitingReview
				hold = true
			}
			return nil
		})
		if err != nil {
			metrics.RecordWorkerError()
			return fmt.Errorf("store facts for report %s: %w", job.ReportID, err)
		}
		if hold {
			w.logger.Info(ctx, "report awaiting facts review", logger.String("reportID", job.ReportID))
			return nil
		}
	}

	if err := w.setStatus(ctx, job.ReportID, model.StatusNarrating); err != nil {
		return err
	}

	narrative, err := w.runner.Narrate(ctx, job.Credential, facts, job.Style)
	if err != nil {
		return w.failReport(ctx, job.ReportID, pipeline.StageNarrate, err)
	}

	err = w.store.Update(ctx, job.ReportID, func(r *model.Report) error {
		r.Narrative = &narrative
		r.Status = model.StatusVerifying
		return nil
	})
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("store narrative for report %s: %w", job.ReportID, err)
	}

	verdict, degraded, err := w.runner.Verify(ctx, job.Credential, pipeline.SourceText(report.Notes, facts), narrative)
	if err != nil {
		return w.failReport(ctx, job.ReportID, pipeline.StageVerify, err)
	}

	err = w.store.Update(ctx, job.ReportID, func(r *model.Report) error {
		r.AttachVerdict(verdict)
		return nil
	})
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("store verdict for report %s: %w", job.ReportID, err)
	}

	metrics.RecordReportCompleted()
	w.logger.Info(ctx, "report verified",
		logger.String("reportID", job.ReportID),
		logger.Float64("confidence", verdict.Confidence),
		logger.Bool("degraded", degraded),
	)
	return nil
}

// setStatus writes a status transition to the store.
func (w *InMemoryWorker) setStatus(ctx context.Context, id string, status model.Status) error {
	err := w.store.Update(ctx, id, func(r *model.Report) error {
		r.Status = status
		return nil
	})
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("set status %s for report %s: %w", status, id, err)
	}
	return nil
}

// failReport terminates the report with a failure kind derived from the
// classified error, so clients know whether to wait, re-enter a credential,
// or fix their input.
func (w *InMemoryWorker) failReport(ctx context.Context, id, stage string, cause error) error {
	kind, retryAfter := classifyFailure(stage, cause)

	metrics.RecordWorkerError()
	metrics.RecordReportFailed(string(kind))
	metrics.RecordErrorByComponent("worker", string(kind))
	metrics.RecordErrorByType(string(kind), "high")

	err := w.store.Update(ctx, id, func(r *model.Report) error {
		r.Fail(kind, cause.Error())
		r.RetryAfterSeconds = retryAfter
		return nil
	})
	if err != nil {
		w.logger.Error(ctx, "failed to record report failure",
			logger.String("reportID", id),
			logger.Error(err),
		)
	}

	w.logger.Error(ctx, "pipeline stage failed",
		logger.String("reportID", id),
		logger.String("stage", stage),
		logger.String("kind", string(kind)),
		logger.Error(cause),
	)
	return fmt.Errorf("%s failed for report %s: %w", stage, id, cause)
}

// classifyFailure maps a stage error to a terminal failure kind plus a
// retry window in seconds for rate limits.
func classifyFailure(stage string, err error) (model.FailureKind, int) {
	var rateErr *gemini.RateLimitError
	if errors.As(err, &rateErr) {
		return model.FailureRateLimited, int(rateErr.RetryAfter.Seconds())
	}
	var authErr *gemini.AuthenticationError
	if errors.As(err, &authErr) {
		return model.FailureUnauthenticated, 0
	}
	if stage == pipeline.StageExtract {
		return model.FailureExtraction, 0
	}
	return model.FailureNarration, 0
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	runner  Runner
	store   Store

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Metrics tracking
	processedCount    atomic.Int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, runner Runner, store Store) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		runner:            runner,
		store:             store,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			runner,
			store,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	// Calculate jobs per second
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		jobsPerSecond := float64(p.processedCount.Swap(0)) / timeDiff
		metrics.UpdateWorkerMessagesPerSecond(jobsPerSecond)
	}
	p.lastProcessedTime = now
}

// RecordProcessedMessage increments the processed job count.
func (p *Pool) RecordProcessedMessage() {
	p.processedCount.Add(1)
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new jobs
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}

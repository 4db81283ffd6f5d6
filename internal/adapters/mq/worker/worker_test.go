package worker_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	gemini "github.com/ahadullabaig/Bean/internal/adapters/gemini"
	queue "github.com/ahadullabaig/Bean/internal/adapters/mq/queue"
	worker "github.com/ahadullabaig/Bean/internal/adapters/mq/worker"
	repository "github.com/ahadullabaig/Bean/internal/adapters/repository"
	model "github.com/ahadullabaig/Bean/internal/domain/model"
	logging "github.com/ahadullabaig/Bean/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	jobChan    chan queue.Job
	closeError error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		jobChan: make(chan queue.Job, 10),
	}
}

func (mq *mockQueue) Dequeue(_ context.Context) <-chan queue.Job {
	return mq.jobChan
}

func (mq *mockQueue) Close() error {
	close(mq.jobChan)
	return mq.closeError
}

func (mq *mockQueue) addJob(job queue.Job) {
	mq.jobChan <- job
}

// stubRunner replays canned stage results, with per-stage error injection.
type stubRunner struct {
	mu sync.RWMutex

	facts     model.Facts
	narrative model.Narrative
	verdict   model.Verdict
	degraded  bool

	extractErr error
	narrateErr error
	verifyErr  error
}

func newStubRunner() *stubRunner {
	title := "Annual Hackathon"
	return &stubRunner{
		facts:     model.Facts{EventTitle: &title, Organizer: model.DefaultOrganizer},
		narrative: model.Narrative{ExecutiveSummary: "The branch hosted its annual hackathon."},
		verdict:   model.Verdict{IsSafe: true, Confidence: 0.88, Reasoning: "Consistent with the source."},
	}
}

func (s *stubRunner) Extract(_ context.Context, _, _ string, _ []gemini.Blob) (model.Facts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.extractErr != nil {
		return model.Facts{}, s.extractErr
	}
	return s.facts, nil
}

func (s *stubRunner) Narrate(_ context.Context, _ string, _ model.Facts, _ string) (model.Narrative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.narrateErr != nil {
		return model.Narrative{}, s.narrateErr
	}
	return s.narrative, nil
}

func (s *stubRunner) Verify(_ context.Context, _, _ string, _ model.Narrative) (model.Verdict, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.verifyErr != nil {
		return model.Verdict{}, false, s.verifyErr
	}
	return s.verdict, s.degraded, nil
}

func (s *stubRunner) setExtractErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractErr = err
}

func (s *stubRunner) setNarrateErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.narrateErr = err
}

func (s *stubRunner) setVerdict(v model.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdict = v
}

func seedReport(t *testing.T, store *repository.MemStore, id string, hold bool) {
	t.Helper()
	report := &model.Report{
		ID:            id,
		Notes:         "Hackathon notes for " + id,
		Status:        model.StatusQueued,
		HoldForReview: hold,
	}
	if err := store.Create(context.Background(), report); err != nil {
		t.Fatalf("seed report: %v", err)
	}
}

func waitForStatus(store *repository.MemStore, id string, want model.Status) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r, err := store.Get(context.Background(), id)
		if err == nil && r.Status == want {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		mq := newMockQueue()
		runner := newStubRunner()
		store := repository.NewMemStore()

		convey.Convey("When creating a worker with default options", func() {
			w := worker.NewInMemoryWorker(mq, runner, store)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(mq, runner, store, worker.WithName("test-worker"))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go w.Run(ctx)
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And a run job arrives for a stored report", func() {
				seedReport(t, store, "report-1", false)
				mq.addJob(queue.Job{ReportID: "report-1", Credential: "key-1", Kind: queue.KindRun})

				convey.Convey("Then the report reaches the verified state with all artifacts", func() {
					convey.So(waitForStatus(store, "report-1", model.StatusVerified), convey.ShouldBeTrue)

					r, err := store.Get(ctx, "report-1")
					convey.So(err, convey.ShouldBeNil)
					convey.So(*r.Facts.EventTitle, convey.ShouldEqual, "Annual Hackathon")
					convey.So(r.Narrative, convey.ShouldNotBeNil)
					convey.So(r.Verdict, convey.ShouldNotBeNil)
					convey.So(r.ConfidenceScore, convey.ShouldEqual, 0.88)
				})
			})

			convey.Convey("And the report is held for facts review", func() {
				seedReport(t, store, "report-2", true)
				mq.addJob(queue.Job{ReportID: "report-2", Credential: "key-1", Kind: queue.KindRun})

				convey.Convey("Then processing pauses after extraction", func() {
					convey.So(waitForStatus(store, "report-2", model.StatusAwaitingReview), convey.ShouldBeTrue)

					r, _ := store.Get(ctx, "report-2")
					convey.So(*r.Facts.EventTitle, convey.ShouldEqual, "Annual Hackathon")
					convey.So(r.Narrative, convey.ShouldBeNil)
				})

				convey.Convey("And a later compose job finishes the report", func() {
					convey.So(waitForStatus(store, "report-2", model.StatusAwaitingReview), convey.ShouldBeTrue)
					mq.addJob(queue.Job{ReportID: "report-2", Credential: "key-1", Kind: queue.KindCompose})

					convey.So(waitForStatus(store, "report-2", model.StatusVerified), convey.ShouldBeTrue)
					r, _ := store.Get(ctx, "report-2")
					convey.So(r.Narrative, convey.ShouldNotBeNil)
					convey.So(r.Verdict, convey.ShouldNotBeNil)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := w.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})
	})
}

func TestWorkerFailureKinds(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		mq := newMockQueue()
		runner := newStubRunner()
		store := repository.NewMemStore()

		w := worker.NewInMemoryWorker(mq, runner, store)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When extraction fails outright", func() {
			runner.setExtractErr(fmt.Errorf("extract stage: model produced garbage"))
			seedReport(t, store, "report-x", false)
			mq.addJob(queue.Job{ReportID: "report-x", Credential: "key-1", Kind: queue.KindRun})

			convey.Convey("Then the report fails with the extraction kind", func() {
				convey.So(waitForStatus(store, "report-x", model.StatusFailed), convey.ShouldBeTrue)

				r, _ := store.Get(ctx, "report-x")
				convey.So(r.FailureKind, convey.ShouldEqual, model.FailureExtraction)
				convey.So(r.FailureMessage, convey.ShouldContainSubstring, "garbage")
			})
		})

		convey.Convey("When narration is rate-limited", func() {
			runner.setNarrateErr(&gemini.RateLimitError{
				RetryAfter: 60 * time.Second,
				Err:        fmt.Errorf("quota exceeded"),
			})
			seedReport(t, store, "report-r", false)
			mq.addJob(queue.Job{ReportID: "report-r", Credential: "key-1", Kind: queue.KindRun})

			convey.Convey("Then the report fails with a retry window", func() {
				convey.So(waitForStatus(store, "report-r", model.StatusFailed), convey.ShouldBeTrue)

				r, _ := store.Get(ctx, "report-r")
				convey.So(r.FailureKind, convey.ShouldEqual, model.FailureRateLimited)
				convey.So(r.RetryAfterSeconds, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When the credential is rejected", func() {
			runner.setExtractErr(&gemini.AuthenticationError{Err: fmt.Errorf("API key not valid")})
			seedReport(t, store, "report-a", false)
			mq.addJob(queue.Job{ReportID: "report-a", Credential: "bad-key", Kind: queue.KindRun})

			convey.Convey("Then the report fails with the unauthenticated kind", func() {
				convey.So(waitForStatus(store, "report-a", model.StatusFailed), convey.ShouldBeTrue)

				r, _ := store.Get(ctx, "report-a")
				convey.So(r.FailureKind, convey.ShouldEqual, model.FailureUnauthenticated)
			})
		})
	})
}

func TestWorkerUnsafeVerdict(t *testing.T) {
	convey.Convey("Given a running worker whose verification flags an inconsistency", t, func() {
		_ = logging.Init()

		mq := newMockQueue()
		runner := newStubRunner()
		store := repository.NewMemStore()

		runner.setVerdict(model.Verdict{
			IsSafe:     false,
			Confidence: 0.35,
			Issues:     []string{"Report claims 200 attendees but the source says 120"},
			Reasoning:  "The attendance figure does not match the source.",
		})

		w := worker.NewInMemoryWorker(mq, runner, store)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When a run job completes", func() {
			seedReport(t, store, "report-u", false)
			mq.addJob(queue.Job{ReportID: "report-u", Credential: "key-1", Kind: queue.KindRun})

			convey.Convey("Then the terminal report carries the unsafe verdict and its issues", func() {
				convey.So(waitForStatus(store, "report-u", model.StatusVerified), convey.ShouldBeTrue)

				r, err := store.Get(ctx, "report-u")
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.Verdict, convey.ShouldNotBeNil)
				convey.So(r.Verdict.IsSafe, convey.ShouldBeFalse)
				convey.So(r.Verdict.Issues, convey.ShouldHaveLength, 1)
				convey.So(r.Verdict.Issues[0], convey.ShouldContainSubstring, "attendees")
				convey.So(r.ConfidenceScore, convey.ShouldEqual, 0.35)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new WorkerPool", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		mq := newMockQueue()
		runner := newStubRunner()
		store := repository.NewMemStore()

		convey.Convey("When creating a worker pool with default count", func() {
			pool := worker.NewPool(0, mq, runner, store)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When starting a worker pool", func() {
			pool := worker.NewPool(2, mq, runner, store)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)
			time.Sleep(20 * time.Millisecond)

			convey.Convey("And when processing multiple reports", func() {
				for i := 1; i <= 3; i++ {
					id := fmt.Sprintf("pool-report-%d", i)
					seedReport(t, store, id, false)
					mq.addJob(queue.Job{ReportID: id, Credential: "key-1", Kind: queue.KindRun})
				}

				convey.Convey("Then all reports should reach the verified state", func() {
					for i := 1; i <= 3; i++ {
						id := fmt.Sprintf("pool-report-%d", i)
						convey.So(waitForStatus(store, id, model.StatusVerified), convey.ShouldBeTrue)
					}
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer shutdownCancel()

				err := pool.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})

		convey.Convey("When stopping a worker pool", func() {
			pool := worker.NewPool(2, mq, runner, store)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)
			time.Sleep(20 * time.Millisecond)

			pool.Stop()
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then all workers should be stopped", func() {
				convey.So(mq.jobChan, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given a worker pool with multiple workers", t, func() {
		// Initialize logging for tests
		_ = logging.Init()

		mq := newMockQueue()
		runner := newStubRunner()
		store := repository.NewMemStore()

		pool := worker.NewPool(4, mq, runner, store)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool.Start(ctx)
		time.Sleep(20 * time.Millisecond)

		convey.Convey("When processing many reports concurrently", func() {
			const reportCount = 40
			for i := 0; i < reportCount; i++ {
				id := fmt.Sprintf("load-report-%d", i)
				seedReport(t, store, id, false)
			}
			for i := 0; i < reportCount; i++ {
				mq.addJob(queue.Job{
					ReportID:   fmt.Sprintf("load-report-%d", i),
					Credential: "key-1",
					Kind:       queue.KindRun,
				})
			}

			convey.Convey("Then every report should be verified", func() {
				for i := 0; i < reportCount; i++ {
					id := fmt.Sprintf("load-report-%d", i)
					convey.So(waitForStatus(store, id, model.StatusVerified), convey.ShouldBeTrue)
				}
			})
		})
	})
}

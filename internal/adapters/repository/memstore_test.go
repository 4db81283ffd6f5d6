package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ahadullabaig/Bean/internal/domain/model"

	"github.com/smartystreets/goconvey/convey"
)

func newReport(id string, status model.Status) *model.Report {
	return &model.Report{ID: id, Status: status}
}

func TestMemStoreCRUD(t *testing.T) {
	convey.Convey("Given an empty store", t, func() {
		store := NewMemStore()
		ctx := context.Background()

		convey.Convey("When creating a report", func() {
			err := store.Create(ctx, newReport("r-1", model.StatusQueued))

			convey.Convey("Then it can be read back with timestamps set", func() {
				convey.So(err, convey.ShouldBeNil)

				got, gerr := store.Get(ctx, "r-1")
				convey.So(gerr, convey.ShouldBeNil)
				convey.So(got.ID, convey.ShouldEqual, "r-1")
				convey.So(got.Status, convey.ShouldEqual, model.StatusQueued)
				convey.So(got.CreatedAt.IsZero(), convey.ShouldBeFalse)
				convey.So(store.Count(ctx), convey.ShouldEqual, 1)
			})

			convey.Convey("Then creating the same ID again fails", func() {
				convey.So(store.Create(ctx, newReport("r-1", model.StatusQueued)), convey.ShouldEqual, ErrDuplicateID)
			})
		})

		convey.Convey("When reading an unknown report", func() {
			_, err := store.Get(ctx, "missing")

			convey.Convey("Then it reports not found", func() {
				convey.So(err, convey.ShouldEqual, ErrNotFound)
			})
		})

		convey.Convey("When updating a report", func() {
			convey.So(store.Create(ctx, newReport("r-2", model.StatusQueued)), convey.ShouldBeNil)

			before, _ := store.Get(ctx, "r-2")
			err := store.Update(ctx, "r-2", func(r *model.Report) error {
				r.Status = model.StatusExtracting
				return nil
			})

			convey.Convey("Then the mutation lands and UpdatedAt moves", func() {
				convey.So(err, convey.ShouldBeNil)

				got, _ := store.Get(ctx, "r-2")
				convey.So(got.Status, convey.ShouldEqual, model.StatusExtracting)
				convey.So(got.UpdatedAt.Before(before.UpdatedAt), convey.ShouldBeFalse)
			})

			convey.Convey("Then a failing mutation aborts the update", func() {
				boom := errors.New("boom")
				uerr := store.Update(ctx, "r-2", func(r *model.Report) error {
					r.Status = model.StatusFailed
					return boom
				})
				convey.So(uerr, convey.ShouldEqual, boom)
			})

			convey.Convey("Then updating an unknown report reports not found", func() {
				uerr := store.Update(ctx, "missing", func(*model.Report) error { return nil })
				convey.So(uerr, convey.ShouldEqual, ErrNotFound)
			})
		})

		convey.Convey("When deleting a report", func() {
			convey.So(store.Create(ctx, newReport("r-3", model.StatusQueued)), convey.ShouldBeNil)

			convey.Convey("Then it is gone afterwards", func() {
				convey.So(store.Delete(ctx, "r-3"), convey.ShouldBeNil)

				_, err := store.Get(ctx, "r-3")
				convey.So(err, convey.ShouldEqual, ErrNotFound)
				convey.So(store.Count(ctx), convey.ShouldEqual, 0)
			})

			convey.Convey("Then deleting an unknown report reports not found", func() {
				convey.So(store.Delete(ctx, "missing"), convey.ShouldEqual, ErrNotFound)
			})
		})
	})
}

func TestMemStoreRecent(t *testing.T) {
	convey.Convey("Given a store with several reports", t, func() {
		store := NewMemStore()
		ctx := context.Background()
		for i := 1; i <= 5; i++ {
			title := fmt.Sprintf("Event %d", i)
			r := newReport(fmt.Sprintf("r-%d", i), model.StatusVerified)
			r.Facts.EventTitle = &title
			r.ConfidenceScore = float64(i) / 10
			convey.So(store.Create(ctx, r), convey.ShouldBeNil)
		}

		convey.Convey("When listing recent reports", func() {
			got, err := store.Recent(ctx, 3)

			convey.Convey("Then the newest come first with titles and confidence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 3)
				convey.So(got[0].ID, convey.ShouldEqual, "r-5")
				convey.So(got[0].Title, convey.ShouldEqual, "Event 5")
				convey.So(got[0].Confidence, convey.ShouldEqual, 0.5)
				convey.So(got[2].ID, convey.ShouldEqual, "r-3")
			})
		})

		convey.Convey("When asking for more than exist", func() {
			got, err := store.Recent(ctx, 100)

			convey.Convey("Then everything is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 5)
			})
		})

		convey.Convey("When asking with a non-positive limit", func() {
			_, err := store.Recent(ctx, 0)

			convey.Convey("Then the limit is rejected", func() {
				convey.So(err, convey.ShouldEqual, ErrInvalidLimit)
			})
		})
	})
}

func TestMemStoreCapacity(t *testing.T) {
	convey.Convey("Given a store at capacity", t, func() {
		store := NewMemStore(WithCapacity(2))
		ctx := context.Background()

		convey.Convey("When the oldest report is terminal", func() {
			convey.So(store.Create(ctx, newReport("old", model.StatusVerified)), convey.ShouldBeNil)
			convey.So(store.Create(ctx, newReport("live", model.StatusNarrating)), convey.ShouldBeNil)

			err := store.Create(ctx, newReport("new", model.StatusQueued))

			convey.Convey("Then it is evicted to make room", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.Count(ctx), convey.ShouldEqual, 2)

				_, gerr := store.Get(ctx, "old")
				convey.So(gerr, convey.ShouldEqual, ErrNotFound)

				_, gerr = store.Get(ctx, "live")
				convey.So(gerr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When every report is still in flight", func() {
			convey.So(store.Create(ctx, newReport("a", model.StatusExtracting)), convey.ShouldBeNil)
			convey.So(store.Create(ctx, newReport("b", model.StatusNarrating)), convey.ShouldBeNil)

			err := store.Create(ctx, newReport("c", model.StatusQueued))

			convey.Convey("Then the insert is rejected instead of dropping live work", func() {
				convey.So(err, convey.ShouldEqual, ErrStoreFull)
				convey.So(store.Count(ctx), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestMemStoreConcurrency(t *testing.T) {
	convey.Convey("Given concurrent writers and readers", t, func() {
		store := NewMemStore()
		ctx := context.Background()

		const n = 64
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("r-%d", i)
				if err := store.Create(ctx, newReport(id, model.StatusQueued)); err != nil {
					errs[i] = err
					return
				}
				errs[i] = store.Update(ctx, id, func(r *model.Report) error {
					r.Status = model.StatusVerified
					return nil
				})
			}(i)
		}
		wg.Wait()

		convey.Convey("Then every operation succeeds and the store is consistent", func() {
			for _, err := range errs {
				convey.So(err, convey.ShouldBeNil)
			}
			convey.So(store.Count(ctx), convey.ShouldEqual, n)

			got, err := store.Recent(ctx, n)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldHaveLength, n)
		})
	})
}

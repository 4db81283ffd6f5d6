package gemini_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	gemini "github.com/ahadullabaig/Bean/internal/adapters/gemini"
	. "github.com/smartystreets/goconvey/convey"
)

// stubGenerator is a distinct handle per dialed credential.
type stubGenerator struct {
	credential string
}

func (s *stubGenerator) GenerateContent(context.Context, gemini.Request) (gemini.Response, error) {
	return gemini.Response{Text: "{}"}, nil
}

func stubFactory(dials *int) func(context.Context, string) (gemini.Generator, error) {
	return func(_ context.Context, credential string) (gemini.Generator, error) {
		if dials != nil {
			*dials++
		}
		return &stubGenerator{credential: credential}, nil
	}
}

func TestPool(t *testing.T) {
	Convey("Given a credentialed client pool", t, func() {
		ctx := context.Background()

		Convey("When acquiring twice with the same credential", func() {
			var dials int
			pool := gemini.NewPool(gemini.WithClientFactory(stubFactory(&dials)))

			h1, err1 := pool.Acquire(ctx, "key-a")
			h2, err2 := pool.Acquire(ctx, "key-a")

			Convey("Then the same handle instance is returned and dialed once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(h1, ShouldPointTo, h2)
				So(dials, ShouldEqual, 1)
				So(pool.Size(), ShouldEqual, 1)
			})
		})

		Convey("When acquiring with two different credentials", func() {
			pool := gemini.NewPool(gemini.WithClientFactory(stubFactory(nil)))

			h1, _ := pool.Acquire(ctx, "key-a")
			h2, _ := pool.Acquire(ctx, "key-b")

			Convey("Then the handles are never shared", func() {
				So(h1, ShouldNotPointTo, h2)
				So(pool.Size(), ShouldEqual, 2)
			})
		})

		Convey("When acquiring with an empty credential and no fallback", func() {
			pool := gemini.NewPool(gemini.WithClientFactory(stubFactory(nil)))

			h, err := pool.Acquire(ctx, "   ")

			Convey("Then it fails with the missing-credential error", func() {
				So(h, ShouldBeNil)
				So(errors.Is(err, gemini.ErrMissingCredential), ShouldBeTrue)
				So(pool.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a fallback credential is configured", func() {
			pool := gemini.NewPool(
				gemini.WithClientFactory(stubFactory(nil)),
				gemini.WithFallbackCredential("server-key"),
			)

			h, err := pool.Acquire(ctx, "")

			Convey("Then the fallback handle is returned", func() {
				So(err, ShouldBeNil)
				So(h, ShouldNotBeNil)

				again, _ := pool.Acquire(ctx, "server-key")
				So(again, ShouldPointTo, h)
			})
		})

		Convey("When releasing a credential", func() {
			var dials int
			pool := gemini.NewPool(gemini.WithClientFactory(stubFactory(&dials)))

			h1, _ := pool.Acquire(ctx, "rotating-key")
			evicted := pool.Release(ctx, "rotating-key")
			h2, _ := pool.Acquire(ctx, "rotating-key")

			Convey("Then the handle is evicted and re-dialed on next acquire", func() {
				So(evicted, ShouldBeTrue)
				So(h1, ShouldNotPointTo, h2)
				So(dials, ShouldEqual, 2)
			})

			Convey("Then releasing an unknown credential reports false", func() {
				So(pool.Release(ctx, "never-seen"), ShouldBeFalse)
			})
		})

		Convey("When many goroutines acquire concurrently", func() {
			var dials int
			pool := gemini.NewPool(gemini.WithClientFactory(stubFactory(&dials)))

			const goroutines = 32
			handles := make([]gemini.Generator, goroutines)
			errs := make([]error, goroutines)
			var wg sync.WaitGroup
			wg.Add(goroutines)
			for i := 0; i < goroutines; i++ {
				go func(i int) {
					defer wg.Done()
					handles[i], errs[i] = pool.Acquire(ctx, "shared-key")
				}(i)
			}
			wg.Wait()

			Convey("Then every caller observes the same handle", func() {
				So(dials, ShouldEqual, 1)
				for i := 0; i < goroutines; i++ {
					So(errs[i], ShouldBeNil)
					So(handles[i], ShouldPointTo, handles[0])
				}
			})
		})
	})
}

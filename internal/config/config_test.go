package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/ahadullabaig/Bean/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Model, convey.ShouldEqual, "gemini-2.5-flash")
			convey.So(cfg.Organizer, convey.ShouldEqual, "IEEE RIT Student Branch")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.StoreCapacity, convey.ShouldEqual, 10_000)
			convey.So(cfg.MaxListLimit, convey.ShouldEqual, 100)
			convey.So(cfg.RetryMaxAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.RetryMinBackoffMS, convey.ShouldEqual, 2_000)
			convey.So(cfg.RetryMaxBackoffMS, convey.ShouldEqual, 10_000)
			convey.So(cfg.ParseRetries, convey.ShouldEqual, 2)
			convey.So(cfg.APIKey, convey.ShouldBeEmpty)
		})
	})
}

package config_test

import (
	"context"
	"testing"

	"github.com/okian/shatranj/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Then sensible defaults should be set", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.KFactor, ShouldEqual, 32)
			So(cfg.DefaultRating, ShouldEqual, 1000)
			So(cfg.CacheTTLSeconds, ShouldEqual, 300)
			So(cfg.QuotaCooldownSeconds, ShouldEqual, 60)
			So(cfg.LedgerTimeoutMS, ShouldBeGreaterThan, 0)
			So(cfg.TaskWorkerCount, ShouldBeGreaterThan, 0)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("SHATRANJ_ADDR", ":7070")
		t.Setenv("SHATRANJ_QUOTA_COOLDOWN_SECONDS", "120")
		t.Setenv("SHATRANJ_LOG_LEVEL", "debug")

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then env values should win over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.QuotaCooldownSeconds, ShouldEqual, 120)
				So(cfg.LogLevel, ShouldEqual, "debug")
				// Untouched fields keep defaults.
				So(cfg.KFactor, ShouldEqual, 32)
			})
		})
	})

	Convey("Given an invalid override", t, func() {
		t.Setenv("SHATRANJ_CACHE_TTL_SECONDS", "0")

		Convey("When loading", func() {
			_, err := config.Load(context.Background())

			Convey("Then validation should fail with the sentinel kind", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "cache_ttl_seconds")
			})
		})
	})
}

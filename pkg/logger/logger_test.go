package logger_test

import (
	"context"
	"testing"

	"github.com/okian/shatranj/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		err := logger.Init()
		So(err, ShouldBeNil)

		Convey("When fetching the global logger", func() {
			l := logger.Get()

			Convey("Then it should not be nil", func() {
				So(l, ShouldNotBeNil)
			})

			Convey("And logging should not panic", func() {
				So(func() {
					l.Info(context.Background(), "test message",
						logger.String("key", "value"),
						logger.Int("count", 3),
					)
				}, ShouldNotPanic)
			})
		})

		Convey("When creating a named logger", func() {
			named := logger.Named("cache")

			Convey("Then it should be distinct and usable", func() {
				So(named, ShouldNotBeNil)
				So(func() {
					named.Warn(context.Background(), "warned", logger.Bool("stale", true))
				}, ShouldNotPanic)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given the level parser", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Known levels should parse", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
				So(logger.SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("Unknown levels should error", func() {
			So(logger.SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

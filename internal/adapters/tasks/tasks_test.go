package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/shatranj/internal/adapters/tasks"
	"github.com/okian/shatranj/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRunner(t *testing.T) {
	Convey("Given a started runner", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()

		r := tasks.NewRunner(
			tasks.WithQueueSize(8),
			tasks.WithWorkers(2),
			tasks.WithLogger(logger.Get()),
		)
		r.Start(ctx)

		Convey("When tasks are submitted", func() {
			var ran atomic.Int32
			done := make(chan struct{})
			for i := 0; i < 4; i++ {
				ok := r.Submit(ctx, tasks.Task{
					Name: "invalidate",
					Run: func(context.Context) error {
						if ran.Add(1) == 4 {
							close(done)
						}
						return nil
					},
				})
				So(ok, ShouldBeTrue)
			}

			Convey("Then every task executes", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
				}
				So(ran.Load(), ShouldEqual, 4)
			})
		})

		Convey("When a task fails", func() {
			failed := make(chan struct{})
			ok := r.Submit(ctx, tasks.Task{
				Name: "flaky",
				Run: func(context.Context) error {
					defer close(failed)
					return errors.New("boom")
				},
			})
			So(ok, ShouldBeTrue)

			Convey("Then the failure never reaches the submitter", func() {
				select {
				case <-failed:
				case <-time.After(2 * time.Second):
				}
				// Submitting again still works.
				So(r.Submit(ctx, tasks.Task{Name: "next", Run: func(context.Context) error { return nil }}), ShouldBeTrue)
			})
		})

		Convey("When a task panics", func() {
			recovered := make(chan struct{})
			So(r.Submit(ctx, tasks.Task{
				Name: "panicky",
				Run: func(context.Context) error {
					defer close(recovered)
					panic("unexpected")
				},
			}), ShouldBeTrue)

			Convey("Then the worker survives", func() {
				select {
				case <-recovered:
				case <-time.After(2 * time.Second):
				}
				So(r.Submit(ctx, tasks.Task{Name: "after", Run: func(context.Context) error { return nil }}), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			So(r.Close(ctx), ShouldBeNil)

			Convey("Then submissions are refused", func() {
				So(r.Submit(ctx, tasks.Task{Name: "late", Run: func(context.Context) error { return nil }}), ShouldBeFalse)
			})

			Convey("And closing again is a no-op", func() {
				So(r.Close(ctx), ShouldBeNil)
			})
		})

		Reset(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = r.Close(shutdownCtx)
		})
	})
}

func TestRunnerBackpressure(t *testing.T) {
	Convey("Given a runner that is not draining", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()

		r := tasks.NewRunner(tasks.WithQueueSize(2), tasks.WithWorkers(1), tasks.WithLogger(logger.Get()))
		// Never started: nothing consumes the queue.

		noop := tasks.Task{Name: "noop", Run: func(context.Context) error { return nil }}
		So(r.Submit(ctx, noop), ShouldBeTrue)
		So(r.Submit(ctx, noop), ShouldBeTrue)

		Convey("Then a full queue refuses instead of blocking", func() {
			So(r.Submit(ctx, noop), ShouldBeFalse)
			So(r.Len(), ShouldEqual, 2)
		})
	})
}

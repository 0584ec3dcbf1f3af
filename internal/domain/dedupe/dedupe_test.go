package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/shatranj/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given an in-memory tracker", t, func() {
		ctx := context.Background()

		Convey("When a submission id is recorded twice", func() {
			tr := dedupe.NewTracker()
			first := tr.SeenAndRecord(ctx, "sub-1")
			second := tr.SeenAndRecord(ctx, "sub-1")

			Convey("Then only the first call reports it as new", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(tr.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded after a failed write", func() {
			tr := dedupe.NewTracker()
			tr.SeenAndRecord(ctx, "sub-1")
			tr.Unrecord(ctx, "sub-1")

			Convey("Then the retry is treated as new again", func() {
				So(tr.SeenAndRecord(ctx, "sub-1"), ShouldBeFalse)
				So(tr.Size(), ShouldEqual, 1)
			})
		})

		Convey("Unrecording an unknown id is a no-op", func() {
			tr := dedupe.NewTracker()
			tr.Unrecord(ctx, "never-seen")
			So(tr.Size(), ShouldEqual, 0)
		})

		Convey("When the bounded tracker overflows", func() {
			tr := dedupe.NewTracker(dedupe.WithMaxSize(3))
			for i := 0; i < 5; i++ {
				tr.SeenAndRecord(ctx, fmt.Sprintf("sub-%d", i))
			}

			Convey("Then the oldest ids were evicted first", func() {
				So(tr.Size(), ShouldEqual, 3)
				So(tr.SeenAndRecord(ctx, "sub-0"), ShouldBeFalse)
				So(tr.SeenAndRecord(ctx, "sub-4"), ShouldBeTrue)
			})
		})

		Convey("When recorded concurrently", func() {
			tr := dedupe.NewTracker()
			var wg sync.WaitGroup
			newCount := make(chan bool, 32)
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					newCount <- tr.SeenAndRecord(ctx, "same-id")
				}()
			}
			wg.Wait()
			close(newCount)

			Convey("Then exactly one caller wins", func() {
				wins := 0
				for seen := range newCount {
					if !seen {
						wins++
					}
				}
				So(wins, ShouldEqual, 1)
				So(tr.Size(), ShouldEqual, 1)
			})
		})
	})
}

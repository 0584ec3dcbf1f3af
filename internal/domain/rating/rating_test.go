package rating_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/internal/domain/rating"
	"github.com/okian/shatranj/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC)
}

func verifiedGame(id, p1, p2 string, result model.Result, d int, seq int64) model.GameRecord {
	return model.GameRecord{
		ID: id, Player1ID: p1, Player2ID: p2, Result: result,
		GameDate: day(d), GameType: model.TypeLadder, IsVerified: true,
		RecordedAt: day(d).Add(20 * time.Hour), Seq: seq,
	}
}

func roster(ids ...string) []model.Player {
	out := make([]model.Player, len(ids))
	for i, id := range ids {
		out[i] = model.Player{ID: id, Name: id}
	}
	return out
}

func newEngine() *rating.Engine {
	return rating.New(rating.WithLogger(logger.Get()))
}

func TestComputeForGame(t *testing.T) {
	Convey("Given an engine with K=32", t, func() {
		So(logger.Init(), ShouldBeNil)
		e := newEngine()
		ratings := map[string]float64{"p1": 1000, "p2": 1000}

		Convey("When an evenly matched player wins", func() {
			g := verifiedGame("g", "p1", "p2", model.ResultPlayer1, 1, 1)
			d, err := e.ComputeForGame(&g, ratings)

			Convey("Then the exchange is K/2 and zero-sum", func() {
				So(err, ShouldBeNil)
				So(d.Player1, ShouldAlmostEqual, 16, 1e-9)
				So(d.Player2, ShouldAlmostEqual, -16, 1e-9)
			})
		})

		Convey("When evenly matched players draw", func() {
			g := verifiedGame("g", "p1", "p2", model.ResultDraw, 1, 1)
			d, err := e.ComputeForGame(&g, ratings)
			So(err, ShouldBeNil)
			So(d.Player1, ShouldAlmostEqual, 0, 1e-9)
			So(d.Player2, ShouldAlmostEqual, 0, 1e-9)
		})

		Convey("When the favorite wins", func() {
			stronger := map[string]float64{"p1": 1400, "p2": 1000}
			g := verifiedGame("g", "p1", "p2", model.ResultPlayer1, 1, 1)
			d, err := e.ComputeForGame(&g, stronger)

			Convey("Then the favorite gains little", func() {
				So(err, ShouldBeNil)
				So(d.Player1, ShouldBeLessThan, 4)
				So(d.Player1, ShouldBeGreaterThan, 0)
				So(d.Player2, ShouldAlmostEqual, -d.Player1, 1e-9)
			})
		})

		Convey("When the game is unverified", func() {
			g := verifiedGame("g", "p1", "p2", model.ResultPlayer1, 1, 1)
			g.IsVerified = false
			_, err := e.ComputeForGame(&g, ratings)
			So(err, ShouldEqual, rating.ErrUnverifiedGame)
		})

		Convey("When one side is the placeholder opponent", func() {
			g := verifiedGame("g", "p1", model.UnknownPlayerID, model.ResultPlayer1, 1, 1)
			_, err := e.ComputeForGame(&g, ratings)
			So(err, ShouldEqual, rating.ErrPlaceholderPlayer)
		})

		Convey("When one side has no rating state", func() {
			g := verifiedGame("g", "p1", "p9", model.ResultPlayer1, 1, 1)
			_, err := e.ComputeForGame(&g, ratings)
			So(err, ShouldEqual, rating.ErrMissingPlayer)
		})
	})
}

func TestInitializeAll(t *testing.T) {
	Convey("Given a roster with partial rating state", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		e := newEngine()
		players := roster("p1", "p2", "p3")
		existing := []model.RatingState{{PlayerID: "p1", Rating: 1100, GamesCounted: 5}}

		Convey("When initializing", func() {
			states := e.InitializeAll(ctx, players, existing)

			Convey("Then only stateless players are seeded", func() {
				So(len(states), ShouldEqual, 3)
				byID := map[string]model.RatingState{}
				for _, s := range states {
					byID[s.PlayerID] = s
				}
				So(byID["p1"].Rating, ShouldEqual, 1100)
				So(byID["p2"].Rating, ShouldEqual, 1000)
				So(byID["p3"].Rating, ShouldEqual, 1000)
			})

			Convey("And a second call changes nothing", func() {
				again := e.InitializeAll(ctx, players, states)
				So(again, ShouldResemble, states)
			})
		})

		Convey("The placeholder player is never seeded", func() {
			withPlaceholder := append(players, model.Player{ID: model.UnknownPlayerID})
			states := e.InitializeAll(ctx, withPlaceholder, nil)
			So(len(states), ShouldEqual, 3)
		})
	})
}

func TestRecalcAll(t *testing.T) {
	Convey("Given a ledger history", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		e := newEngine()
		players := roster("p1", "p2", "p3")
		games := []model.GameRecord{
			verifiedGame("g1", "p1", "p2", model.ResultPlayer1, 1, 1),
			verifiedGame("g2", "p1", "p3", model.ResultDraw, 2, 2),
			verifiedGame("g3", "p2", "p3", model.ResultPlayer2, 3, 3),
		}

		Convey("When replaying", func() {
			snap, err := e.RecalcAll(ctx, games, players)
			So(err, ShouldBeNil)

			Convey("Then every verified game is processed", func() {
				So(snap.Processed, ShouldEqual, 3)
				So(snap.Skipped, ShouldEqual, 0)
				So(snap.Errors, ShouldEqual, 0)
				So(snap.States["p1"].GamesCounted, ShouldEqual, 2)
				So(snap.States["p1"].Rating, ShouldBeGreaterThan, 1000)
			})

			Convey("And per-game deltas are recorded", func() {
				So(snap.GameDeltas["g1"], ShouldAlmostEqual, 16, 1e-9)
				So(len(snap.GameDeltas), ShouldEqual, 3)
			})

			Convey("And a second replay yields the identical snapshot", func() {
				again, err := e.RecalcAll(ctx, games, players)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, snap)
			})
		})

		Convey("When the input slice order is shuffled", func() {
			shuffled := []model.GameRecord{games[2], games[0], games[1]}
			a, err := e.RecalcAll(ctx, games, players)
			So(err, ShouldBeNil)
			b, err := e.RecalcAll(ctx, shuffled, players)
			So(err, ShouldBeNil)

			Convey("Then the final ratings are identical", func() {
				So(b.States, ShouldResemble, a.States)
			})
		})

		Convey("When two games share date and recording time", func() {
			g4 := verifiedGame("g4", "p1", "p2", model.ResultPlayer1, 5, 4)
			g5 := verifiedGame("g5", "p2", "p3", model.ResultPlayer1, 5, 5)
			withTies := append(append([]model.GameRecord{}, games...), g4, g5)
			reversed := append(append([]model.GameRecord{}, games...), g5, g4)

			a, err := e.RecalcAll(ctx, withTies, players)
			So(err, ShouldBeNil)
			b, err := e.RecalcAll(ctx, reversed, players)
			So(err, ShouldBeNil)

			Convey("Then the sequence tie-break keeps replay stable", func() {
				So(b.States, ShouldResemble, a.States)
			})
		})

		Convey("When a game references an unknown player", func() {
			bad := verifiedGame("gx", "p1", "ghost", model.ResultPlayer1, 4, 4)
			snap, err := e.RecalcAll(ctx, append(games, bad), players)
			So(err, ShouldBeNil)

			Convey("Then that game is skipped, not fatal", func() {
				So(snap.Errors, ShouldEqual, 1)
				So(snap.Processed, ShouldEqual, 3)
				_, ok := snap.GameDeltas["gx"]
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When games are unverified or against the placeholder", func() {
			unverified := verifiedGame("gu", "p1", "p2", model.ResultPlayer1, 4, 4)
			unverified.IsVerified = false
			phantom := verifiedGame("gp", "p1", model.UnknownPlayerID, model.ResultPlayer1, 5, 5)

			snap, err := e.RecalcAll(ctx, append(games, unverified, phantom), players)
			So(err, ShouldBeNil)

			Convey("Then they are skipped without touching ratings", func() {
				So(snap.Skipped, ShouldEqual, 2)
				So(snap.Processed, ShouldEqual, 3)
			})
		})

		Convey("When the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := e.RecalcAll(cancelled, games, players)
			So(err, ShouldEqual, context.Canceled)
		})
	})
}

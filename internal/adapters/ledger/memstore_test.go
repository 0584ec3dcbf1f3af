package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/shatranj/internal/adapters/ledger"
	"github.com/okian/shatranj/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func day(d int) time.Time {
	return time.Date(2025, 4, d, 0, 0, 0, 0, time.UTC)
}

func game(id, p1, p2 string, result model.Result, d int, gt model.GameType, verified bool) model.GameRecord {
	return model.GameRecord{
		ID: id, Player1ID: p1, Player2ID: p2,
		Result: result, GameDate: day(d), GameType: gt,
		IsVerified: verified, RecordedAt: day(d).Add(18 * time.Hour),
	}
}

func TestMemStoreGames(t *testing.T) {
	Convey("Given a store seeded with games", t, func() {
		ctx := context.Background()
		store := ledger.NewMemStore(
			ledger.WithGames(
				game("g1", "p1", "p2", model.ResultPlayer1, 1, model.TypeLadder, true),
				game("g2", "p2", "p3", model.ResultDraw, 2, model.TypeLadder, true),
				game("g3", "p1", "p3", model.ResultPlayer2, 3, model.TypeFriendly, false),
			),
		)

		Convey("When listing without a filter", func() {
			games, err := store.ListGames(ctx, ledger.Filter{})
			So(err, ShouldBeNil)

			Convey("Then all games come back in insertion order", func() {
				So(len(games), ShouldEqual, 3)
				So(games[0].ID, ShouldEqual, "g1")
				So(games[0].Seq, ShouldEqual, 1)
				So(games[2].Seq, ShouldEqual, 3)
			})
		})

		Convey("When filtering by type", func() {
			games, err := store.ListGames(ctx, ledger.Filter{GameType: model.TypeLadder})
			So(err, ShouldBeNil)
			So(len(games), ShouldEqual, 2)
		})

		Convey("When filtering by date window", func() {
			from, to := day(2), day(3)
			games, err := store.ListGames(ctx, ledger.Filter{DateFrom: &from, DateTo: &to})
			So(err, ShouldBeNil)
			So(len(games), ShouldEqual, 2)
			So(games[0].ID, ShouldEqual, "g2")
		})

		Convey("When filtering by verified flag", func() {
			verified := true
			games, err := store.ListGames(ctx, ledger.Filter{Verified: &verified})
			So(err, ShouldBeNil)
			So(len(games), ShouldEqual, 2)
		})

		Convey("When filtering by player", func() {
			games, err := store.ListGames(ctx, ledger.Filter{PlayerID: "p3"})
			So(err, ShouldBeNil)
			So(len(games), ShouldEqual, 2)
		})

		Convey("When appending a new game", func() {
			stored, err := store.AppendGame(ctx, game("", "p4", "p5", model.ResultDraw, 5, model.TypePractice, true))
			So(err, ShouldBeNil)

			Convey("Then it gets an id and the next sequence number", func() {
				So(stored.ID, ShouldNotBeEmpty)
				So(stored.Seq, ShouldEqual, 4)
			})
		})

		Convey("When seeding games without ids", func() {
			seeded := ledger.NewMemStore(ledger.WithGames(
				game("", "p1", "p2", model.ResultPlayer1, 1, model.TypeLadder, true),
				game("", "p2", "p1", model.ResultPlayer1, 2, model.TypeLadder, true),
			))
			games, err := seeded.ListGames(ctx, ledger.Filter{})
			So(err, ShouldBeNil)

			Convey("Then each row gets its own id, so updates stay addressable", func() {
				So(games[0].ID, ShouldNotBeEmpty)
				So(games[1].ID, ShouldNotBeEmpty)
				So(games[0].ID, ShouldNotEqual, games[1].ID)

				edit := games[1]
				edit.Result = model.ResultDraw
				So(seeded.UpdateGame(ctx, edit), ShouldBeNil)

				after, _ := seeded.ListGames(ctx, ledger.Filter{})
				So(after[0].Result, ShouldEqual, model.ResultPlayer1)
				So(after[1].Result, ShouldEqual, model.ResultDraw)
			})
		})

		Convey("When updating a game", func() {
			g := game("g2", "p2", "p3", model.ResultPlayer1, 2, model.TypeLadder, true)
			So(store.UpdateGame(ctx, g), ShouldBeNil)

			games, _ := store.ListGames(ctx, ledger.Filter{})
			So(games[1].Result, ShouldEqual, model.ResultPlayer1)

			Convey("And the sequence number never moves", func() {
				So(games[1].Seq, ShouldEqual, 2)
			})
		})

		Convey("When updating an unknown game", func() {
			err := store.UpdateGame(ctx, game("nope", "a", "b", model.ResultDraw, 1, model.TypeLadder, true))
			So(err, ShouldEqual, ledger.ErrNotFound)
		})

		Convey("When updating a game without an id", func() {
			err := store.UpdateGame(ctx, game("", "a", "b", model.ResultDraw, 1, model.TypeLadder, true))

			Convey("Then no row is touched", func() {
				So(err, ShouldEqual, ledger.ErrNotFound)
				games, _ := store.ListGames(ctx, ledger.Filter{})
				So(games[0].Player1ID, ShouldEqual, "p1")
			})
		})

		Convey("When deleting a game", func() {
			So(store.DeleteGame(ctx, "g1"), ShouldBeNil)
			games, _ := store.ListGames(ctx, ledger.Filter{})
			So(len(games), ShouldEqual, 2)

			Convey("And deleting it again reports not found", func() {
				So(store.DeleteGame(ctx, "g1"), ShouldEqual, ledger.ErrNotFound)
			})
		})
	})
}

func TestMemStoreRosterAndRatings(t *testing.T) {
	Convey("Given a store seeded with a roster", t, func() {
		ctx := context.Background()
		store := ledger.NewMemStore(
			ledger.WithRoster(
				model.Player{ID: "p1", Name: "Alice", Grade: "A"},
				model.Player{ID: "p2", Name: "Bob", Grade: "B"},
			),
		)

		Convey("When fetching a known player", func() {
			p, err := store.GetPlayer(ctx, "p1")
			So(err, ShouldBeNil)
			So(p.Name, ShouldEqual, "Alice")
		})

		Convey("When fetching an unknown player", func() {
			_, err := store.GetPlayer(ctx, "nope")
			So(err, ShouldEqual, ledger.ErrNotFound)
		})

		Convey("When updating a player", func() {
			So(store.UpdatePlayer(ctx, model.Player{ID: "p1", Name: "Alicia", Grade: "A"}), ShouldBeNil)
			p, _ := store.GetPlayer(ctx, "p1")
			So(p.Name, ShouldEqual, "Alicia")
		})

		Convey("When saving and listing ratings", func() {
			err := store.SaveRatings(ctx, []model.RatingState{
				{PlayerID: "p1", Rating: 1016, GamesCounted: 2},
				{PlayerID: "p2", Rating: 984, GamesCounted: 2},
			})
			So(err, ShouldBeNil)

			states, err := store.ListRatings(ctx)
			So(err, ShouldBeNil)
			So(len(states), ShouldEqual, 2)

			Convey("And a second save replaces the snapshot wholesale", func() {
				So(store.SaveRatings(ctx, []model.RatingState{
					{PlayerID: "p1", Rating: 1000, GamesCounted: 0},
				}), ShouldBeNil)
				states, _ := store.ListRatings(ctx)
				So(len(states), ShouldEqual, 1)
			})
		})
	})
}

func TestIsQuotaExceeded(t *testing.T) {
	Convey("Given the quota signature matcher", t, func() {
		Convey("The sentinel and timeouts should match", func() {
			So(ledger.IsQuotaExceeded(ledger.ErrQuotaExceeded), ShouldBeTrue)
			So(ledger.IsQuotaExceeded(context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("Known upstream message signatures should match", func() {
			So(ledger.IsQuotaExceeded(errString("googleapi: Error 429: Quota exceeded for quota metric")), ShouldBeTrue)
			So(ledger.IsQuotaExceeded(errString("rate limit reached, retry later")), ShouldBeTrue)
			So(ledger.IsQuotaExceeded(errString("HTTP 429 Too Many Requests")), ShouldBeTrue)
		})

		Convey("Other failures should not match", func() {
			So(ledger.IsQuotaExceeded(nil), ShouldBeFalse)
			So(ledger.IsQuotaExceeded(errString("connection refused")), ShouldBeFalse)
			So(ledger.IsQuotaExceeded(ledger.ErrNotFound), ShouldBeFalse)
		})
	})
}

type errString string

func (e errString) Error() string { return string(e) }

package model_test

import (
	"testing"
	"time"

	"github.com/okian/shatranj/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func validGame() model.GameRecord {
	return model.GameRecord{
		ID:          "g1",
		Player1ID:   "p1",
		Player1Name: "Alice",
		Player2ID:   "p2",
		Player2Name: "Bob",
		Result:      model.ResultPlayer1,
		GameDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		GameType:    model.TypeLadder,
		IsVerified:  true,
	}
}

func TestGameRecordValidate(t *testing.T) {
	Convey("Given a well-formed game record", t, func() {
		g := validGame()

		Convey("Then it should validate", func() {
			So(g.Validate(), ShouldBeNil)
		})

		Convey("When both sides reference the same player", func() {
			g.Player2ID = g.Player1ID
			So(g.Validate(), ShouldEqual, model.ErrSamePlayer)
		})

		Convey("When a player reference is missing", func() {
			g.Player1ID = " "
			So(g.Validate(), ShouldEqual, model.ErrMissingPlayer)
		})

		Convey("When the result is outside the closed domain", func() {
			g.Result = "forfeit"
			So(g.Validate(), ShouldEqual, model.ErrUnknownResult)
		})

		Convey("When the game type is outside the closed domain", func() {
			g.GameType = "blitz"
			So(g.Validate(), ShouldEqual, model.ErrUnknownGameType)
		})

		Convey("When the game date is missing", func() {
			g.GameDate = time.Time{}
			So(g.Validate(), ShouldEqual, model.ErrMissingDate)
		})
	})
}

func TestParseResult(t *testing.T) {
	Convey("Given the result parser", t, func() {
		Convey("Known values should parse case-insensitively", func() {
			r, err := model.ParseResult(" Player1 ")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, model.ResultPlayer1)

			r, err = model.ParseResult("DRAW")
			So(err, ShouldBeNil)
			So(r, ShouldEqual, model.ResultDraw)
		})

		Convey("Unknown values should be rejected", func() {
			_, err := model.ParseResult("win")
			So(err, ShouldEqual, model.ErrUnknownResult)
		})
	})
}

func TestWinnerID(t *testing.T) {
	Convey("Given a decisive game", t, func() {
		g := validGame()
		So(g.WinnerID(), ShouldEqual, "p1")

		g.Result = model.ResultPlayer2
		So(g.WinnerID(), ShouldEqual, "p2")

		Convey("A draw has no winner", func() {
			g.Result = model.ResultDraw
			So(g.WinnerID(), ShouldEqual, "")
		})
	})
}

func TestPlaceholder(t *testing.T) {
	Convey("Given the placeholder helper", t, func() {
		So(model.IsPlaceholder(model.UnknownPlayerID), ShouldBeTrue)
		So(model.IsPlaceholder("p1"), ShouldBeFalse)
	})
}

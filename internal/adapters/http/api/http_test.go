package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/shatranj/internal/adapters/http/api"
	"github.com/okian/shatranj/internal/adapters/ledger"
	service "github.com/okian/shatranj/internal/app"
	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/internal/domain/types"
	"github.com/okian/shatranj/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer(t *testing.T, store ledger.Store) (*httptest.Server, *service.Service) {
	t.Helper()
	ctx := context.Background()
	svc := service.New(
		service.WithStore(store),
		service.WithLogger(logger.Get()),
		service.WithTaskWorkers(1),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, svc
}

func seededStore() *ledger.MemStore {
	day := func(d int) time.Time { return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC) }
	return ledger.NewMemStore(
		ledger.WithRoster(
			model.Player{ID: "ada", Name: "Ada Ruiz", Grade: "5"},
			model.Player{ID: "bo", Name: "Bo Lind", Grade: "4"},
		),
		ledger.WithGames(model.GameRecord{
			ID: "g1", Player1ID: "ada", Player1Name: "Ada Ruiz",
			Player2ID: "bo", Player2Name: "Bo Lind",
			Result: model.ResultPlayer1, GameDate: day(1),
			GameType: model.TypeLadder, IsVerified: true, RecordedAt: day(1),
		}),
	)
}

func postJSON(ts *httptest.Server, path, body string) (*http.Response, error) {
	return http.Post(ts.URL+path, "application/json", strings.NewReader(body))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestStandingsEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		So(logger.Init(), ShouldBeNil)
		ts, _ := newTestServer(t, seededStore())

		Convey("When GET /standings", func() {
			resp, err := http.Get(ts.URL + "/standings")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			view := decode[types.StandingsView](t, resp)

			Convey("Then players come back ranked", func() {
				So(len(view.Players), ShouldEqual, 2)
				So(view.Players[0].PlayerID, ShouldEqual, "ada")
				So(view.Players[0].Rank, ShouldEqual, 1)
				So(view.QuotaExceeded, ShouldBeFalse)
			})

			Convey("Then the window's games come back alongside", func() {
				So(len(view.Games), ShouldEqual, 1)
				So(view.Games[0].ID, ShouldEqual, "g1")
				So(view.Games[0].Result, ShouldEqual, model.ResultPlayer1)
			})
		})

		Convey("When filters are malformed", func() {
			resp, err := http.Get(ts.URL + "/standings?date=01-01-2025")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()

			resp, err = http.Get(ts.URL + "/standings?type=blitz")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("When the method is wrong", func() {
			resp, err := postJSON(ts, "/standings", "{}")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()
		})
	})
}

func TestGamesEndpoint(t *testing.T) {
	Convey("Given a running server", t, func() {
		So(logger.Init(), ShouldBeNil)
		store := seededStore()
		ts, _ := newTestServer(t, store)
		ctx := context.Background()

		valid := `{
			"submission_id": "sub-7",
			"player1_id": "ada", "player1_name": "Ada Ruiz",
			"player2_id": "bo", "player2_name": "Bo Lind",
			"result": "draw", "game_date": "2025-08-02",
			"game_type": "ladder", "is_verified": true,
			"recorded_by": "coach"
		}`

		Convey("When POST /games with a valid payload", func() {
			resp, err := postJSON(ts, "/games", valid)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			ack := decode[map[string]any](t, resp)
			So(ack["status"], ShouldEqual, "recorded")
			So(ack["id"], ShouldNotBeEmpty)

			Convey("And the same submission again is a duplicate ack", func() {
				resp, err := postJSON(ts, "/games", valid)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				ack := decode[map[string]any](t, resp)
				So(ack["duplicate"], ShouldEqual, true)

				games, err := store.ListGames(ctx, ledger.Filter{})
				So(err, ShouldBeNil)
				So(len(games), ShouldEqual, 2)
			})
		})

		Convey("When the result is outside the closed domain", func() {
			bad := strings.Replace(valid, `"draw"`, `"forfeit"`, 1)
			resp, err := postJSON(ts, "/games", bad)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("When both sides are the same player", func() {
			bad := strings.Replace(valid, `"player2_id": "bo"`, `"player2_id": "ada"`, 1)
			resp, err := postJSON(ts, "/games", bad)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("When DELETE /games/{id}", func() {
			req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/games/g1", nil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()

			Convey("Then a second delete is not found", func() {
				req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/games/g1", nil)
				resp, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			})
		})
	})
}

func TestAdminEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		So(logger.Init(), ShouldBeNil)
		ts, _ := newTestServer(t, seededStore())

		Convey("When POST /recalc-ratings", func() {
			resp, err := postJSON(ts, "/recalc-ratings", "")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			report := decode[types.RecalcReport](t, resp)
			So(report.Processed, ShouldEqual, 1)
			So(report.Errors, ShouldEqual, 0)
		})

		Convey("When GET /quota-status", func() {
			resp, err := http.Get(ts.URL + "/quota-status")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			status := decode[types.QuotaStatus](t, resp)
			So(status.QuotaExceeded, ShouldBeFalse)
		})

		Convey("When POST /quota-status with a reset action", func() {
			resp, err := postJSON(ts, "/quota-status", `{"action":"reset"}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()
		})

		Convey("When POST /quota-status with an unknown action", func() {
			resp, err := postJSON(ts, "/quota-status", `{"action":"probe"}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("When POST /cache/invalidate with tags", func() {
			resp, err := postJSON(ts, "/cache/invalidate", `{"tags":["rankings"]}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()
		})

		Convey("When POST /cache/invalidate with nothing to do", func() {
			resp, err := postJSON(ts, "/cache/invalidate", `{}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("When GET /healthz", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()
		})
	})
}

func TestConsistencyEndpoints(t *testing.T) {
	Convey("Given a server with a duplicate player", t, func() {
		So(logger.Init(), ShouldBeNil)
		day := func(d int) time.Time { return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC) }
		store := ledger.NewMemStore(
			ledger.WithRoster(
				model.Player{ID: "kim-old", Name: "Kim Soto"},
				model.Player{ID: "kim-new", Name: "Kim Soto-Vega"},
				model.Player{ID: "ref", Name: "Ref Eye"},
			),
			ledger.WithGames(model.GameRecord{
				ID: "g1", Player1ID: "kim-old", Player1Name: "Kim Soto",
				Player2ID: "ref", Player2Name: "Ref Eye",
				Result: model.ResultPlayer1, GameDate: day(1),
				GameType: model.TypeLadder, IsVerified: true, RecordedAt: day(1),
			}),
		)
		ts, _ := newTestServer(t, store)

		Convey("When GET /merge-preview", func() {
			resp, err := http.Get(ts.URL + "/merge-preview?source_id=kim-old&target_id=kim-new")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			preview := decode[map[string]any](t, resp)
			So(preview["gamesToUpdate"], ShouldEqual, 1)
		})

		Convey("When the merge preview names a missing player", func() {
			resp, err := http.Get(ts.URL + "/merge-preview?source_id=kim-old&target_id=ghost")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			resp.Body.Close()
		})

		Convey("When POST /merge", func() {
			resp, err := postJSON(ts, "/merge", `{"source_id":"kim-old","target_id":"kim-new"}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			report := decode[types.MergeReport](t, resp)
			So(report.Success, ShouldBeTrue)
			So(report.Updated, ShouldEqual, 1)
		})

		Convey("When merging a player into itself", func() {
			resp, err := postJSON(ts, "/merge", `{"source_id":"ref","target_id":"ref"}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("When POST /reconcile with preview", func() {
			resp, err := postJSON(ts, "/reconcile", `{"action":"preview"}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			report := decode[types.ReconcileReport](t, resp)
			So(report.Action, ShouldEqual, "preview")
			So(report.Updated, ShouldEqual, 0)
		})

		Convey("When POST /reconcile with an unknown action", func() {
			resp, err := postJSON(ts, "/reconcile", `{"action":"force"}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			resp.Body.Close()
		})

		Convey("When walking the claim workflow over HTTP", func() {
			resp, err := postJSON(ts, "/claims", `{"player_id":"kim-new","requester":"parent-a"}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			resp.Body.Close()

			resp, err = postJSON(ts, "/claims/resolve", `{"player_id":"kim-new","actor":"parent-a","approve":true}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusForbidden)
			resp.Body.Close()

			resp, err = postJSON(ts, "/claims/resolve", `{"player_id":"kim-new","actor":"admin","approve":true}`)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			resp.Body.Close()

			resp, err = http.Get(ts.URL + "/claims?player_id=kim-new")
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			status := decode[map[string]any](t, resp)
			So(status["state"], ShouldEqual, "approved")
			So(status["holder"], ShouldEqual, "parent-a")
		})
	})
}

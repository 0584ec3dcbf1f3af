// Package ladder derives point-based standings from the game ledger. The
// aggregation is a pure fold over ledger rows plus the roster, so it can be
// recomputed at any time and holds no authoritative state.
package ladder

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/internal/domain/types"
	"github.com/okian/shatranj/pkg/logger"
)

const defaultRating = 1000

// Query narrows the standings window. Zero values mean "no restriction".
type Query struct {
	DateFrom *time.Time
	DateTo   *time.Time
	GameType model.GameType
	// ActiveOnly drops roster players with no games inside the window.
	ActiveOnly bool
}

// Matches reports whether g falls inside the query window.
func (q Query) Matches(g *model.GameRecord) bool {
	if q.GameType != "" && g.GameType != q.GameType {
		return false
	}
	if q.DateFrom != nil && g.GameDate.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && g.GameDate.After(*q.DateTo) {
		return false
	}
	return true
}

type tally struct {
	games      int
	wins       int
	losses     int
	draws      int
	points     float64
	lastActive time.Time
}

// Aggregator folds ledger rows into ranked standings.
type Aggregator struct {
	defaultRating float64
	log           logger.Logger
}

// New creates an aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{defaultRating: defaultRating}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get().Named("ladder")
	}
	return a
}

// Standings computes the ranked ladder for the query window. The games slice
// must be the full ledger: the window restricts the per-player counters, but
// players who never scored a point across all time are hidden from the
// public view regardless of window. Placeholder players never appear, though
// games against them still count for the human side.
func (a *Aggregator) Standings(ctx context.Context, games []model.GameRecord, roster []model.Player, ratings map[string]model.RatingState, q Query) []types.Standing {
	windowed := make(map[string]*tally, len(roster))
	allTimePoints := make(map[string]float64, len(roster))

	for i := range games {
		g := &games[i]
		inWindow := q.Matches(g)
		for side, id := range [2]string{g.Player1ID, g.Player2ID} {
			if model.IsPlaceholder(id) {
				continue
			}
			allTimePoints[id] += pointsFor(g, side == 0)
			if !inWindow {
				continue
			}
			t := windowed[id]
			if t == nil {
				t = &tally{}
				windowed[id] = t
			}
			t.games++
			t.points += pointsFor(g, side == 0)
			switch {
			case g.Result == model.ResultDraw:
				t.draws++
			case g.WinnerID() == id:
				t.wins++
			default:
				t.losses++
			}
			if g.GameDate.After(t.lastActive) {
				t.lastActive = g.GameDate
			}
		}
	}

	out := make([]types.Standing, 0, len(roster))
	for _, p := range roster {
		if model.IsPlaceholder(p.ID) {
			continue
		}
		if allTimePoints[p.ID] == 0 {
			continue
		}
		t := windowed[p.ID]
		if t == nil {
			if q.ActiveOnly {
				continue
			}
			t = &tally{}
		}
		s := types.Standing{
			PlayerID:    p.ID,
			Name:        p.Name,
			Grade:       p.Grade,
			EloRating:   a.defaultRating,
			GamesPlayed: t.games,
			Wins:        t.wins,
			Losses:      t.losses,
			Draws:       t.draws,
			Points:      t.points,
		}
		if rs, ok := ratings[p.ID]; ok {
			s.EloRating = rs.Rating
		}
		if !t.lastActive.IsZero() {
			la := t.lastActive
			s.LastActive = &la
		}
		out = append(out, s)
	}

	sortStandings(out)
	assignDenseRanks(out)

	a.log.Debug(ctx, "standings computed",
		logger.Int("players", len(out)),
		logger.Int("games", len(games)),
	)
	return out
}

// pointsFor is the per-side score: 1 for playing, +1 for a win, +0.5 each
// for a draw.
func pointsFor(g *model.GameRecord, player1 bool) float64 {
	pts := 1.0
	switch {
	case g.Result == model.ResultDraw:
		pts += 0.5
	case player1 && g.Result == model.ResultPlayer1:
		pts += 1
	case !player1 && g.Result == model.ResultPlayer2:
		pts += 1
	}
	return pts
}

func winRate(s *types.Standing) float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed)
}

func sortStandings(rows []types.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		ri, rj := winRate(&rows[i]), winRate(&rows[j])
		if ri != rj {
			return ri > rj
		}
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
}

// assignDenseRanks gives rows with equal points and win rate the same rank,
// with no gaps after ties.
func assignDenseRanks(rows []types.Standing) {
	rank := 0
	for i := range rows {
		if i == 0 || rows[i].Points != rows[i-1].Points || winRate(&rows[i]) != winRate(&rows[i-1]) {
			rank++
		}
		rows[i].Rank = rank
	}
}

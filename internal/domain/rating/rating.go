// Package rating computes ELO-style ratings from the game ledger. A full
// deterministic replay is the source of truth: incremental updates may be
// lost or duplicated by concurrent writers, replay self-heals both.
package rating

import (
	"context"
	"math"
	"sort"

	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/pkg/logger"
	"github.com/okian/shatranj/pkg/metrics"
)

// Default engine parameters.
const (
	defaultKFactor = 32
	defaultRating  = 1000
)

// Delta is the per-game rating change for both sides. With a uniform K the
// exchange is zero-sum: Player2 == -Player1.
type Delta struct {
	Player1 float64
	Player2 float64
}

// Snapshot is the outcome of a full replay.
type Snapshot struct {
	// States holds the final rating per player id.
	States map[string]model.RatingState

	// GameDeltas maps game id to player1's rating change, recomputed
	// wholesale on every replay.
	GameDeltas map[string]float64

	Processed int
	Skipped   int
	Errors    int
}

// Engine computes rating deltas and replays history.
type Engine struct {
	k             float64
	defaultRating float64
	log           logger.Logger
}

// New creates an engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		k:             defaultKFactor,
		defaultRating: defaultRating,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("rating")
	}
	return e
}

// DefaultRating returns the seed rating for unseen players.
func (e *Engine) DefaultRating() float64 {
	return e.defaultRating
}

// InitializeAll seeds a default rating state for every roster player that has
// none yet. Players with existing state are untouched, so a second call with
// the same roster is a no-op.
func (e *Engine) InitializeAll(ctx context.Context, roster []model.Player, existing []model.RatingState) []model.RatingState {
	out := make([]model.RatingState, 0, len(roster))
	have := make(map[string]model.RatingState, len(existing))
	for _, s := range existing {
		have[s.PlayerID] = s
		out = append(out, s)
	}
	added := 0
	for _, p := range roster {
		if model.IsPlaceholder(p.ID) {
			continue
		}
		if _, ok := have[p.ID]; ok {
			continue
		}
		out = append(out, model.RatingState{PlayerID: p.ID, Rating: e.defaultRating})
		added++
	}
	if added > 0 {
		e.log.Info(ctx, "seeded default ratings", logger.Int("players", added))
	}
	return out
}

// ComputeForGame returns both players' rating deltas for one game, given the
// current ratings. Unverified games and games touching a placeholder player
// contribute nothing.
func (e *Engine) ComputeForGame(g *model.GameRecord, ratings map[string]float64) (Delta, error) {
	if !g.IsVerified {
		return Delta{}, ErrUnverifiedGame
	}
	if model.IsPlaceholder(g.Player1ID) || model.IsPlaceholder(g.Player2ID) {
		return Delta{}, ErrPlaceholderPlayer
	}

	r1, ok := ratings[g.Player1ID]
	if !ok {
		return Delta{}, ErrMissingPlayer
	}
	r2, ok := ratings[g.Player2ID]
	if !ok {
		return Delta{}, ErrMissingPlayer
	}

	s1, s2 := actualScores(g.Result)
	e1 := expectedScore(r1, r2)
	d1 := e.k * (s1 - e1)
	d2 := e.k * (s2 - (1 - e1))
	return Delta{Player1: d1, Player2: d2}, nil
}

// RecalcAll replays every verified game in chronological order starting from
// the default rating for every roster player. Games with a missing side are
// skipped and counted as errors; the replay never aborts on one bad row.
// Re-running from the same ledger state always yields the same snapshot.
func (e *Engine) RecalcAll(ctx context.Context, games []model.GameRecord, roster []model.Player) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	ordered := make([]model.GameRecord, len(games))
	copy(ordered, games)
	sortChronological(ordered)

	ratings := make(map[string]float64, len(roster))
	counted := make(map[string]int, len(roster))
	for _, p := range roster {
		if model.IsPlaceholder(p.ID) {
			continue
		}
		ratings[p.ID] = e.defaultRating
	}

	snap := Snapshot{
		States:     make(map[string]model.RatingState, len(roster)),
		GameDeltas: make(map[string]float64, len(ordered)),
	}

	for i := range ordered {
		g := &ordered[i]
		delta, err := e.ComputeForGame(g, ratings)
		switch {
		case err == nil:
			ratings[g.Player1ID] += delta.Player1
			ratings[g.Player2ID] += delta.Player2
			counted[g.Player1ID]++
			counted[g.Player2ID]++
			snap.GameDeltas[g.ID] = delta.Player1
			snap.Processed++
		case err == ErrUnverifiedGame || err == ErrPlaceholderPlayer:
			metrics.RecordRatingGameSkipped()
			snap.Skipped++
		case err == ErrMissingPlayer:
			// Partial-failure policy: log, skip, keep replaying.
			metrics.RecordRatingGameSkipped()
			e.log.Warn(ctx, "skipping game with unknown player",
				logger.String("gameID", g.ID),
				logger.String("player1", g.Player1ID),
				logger.String("player2", g.Player2ID),
			)
			snap.Errors++
		default:
			return Snapshot{}, err
		}
	}

	for id, r := range ratings {
		snap.States[id] = model.RatingState{
			PlayerID:     id,
			Rating:       math.Round(r*100) / 100,
			GamesCounted: counted[id],
		}
	}
	return snap, nil
}

// expectedScore is the logistic win expectancy of a against b.
func expectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

func actualScores(r model.Result) (float64, float64) {
	switch r {
	case model.ResultPlayer1:
		return 1, 0
	case model.ResultPlayer2:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

// sortChronological orders games by date, then recording time, then ledger
// sequence so replay is fully deterministic.
func sortChronological(games []model.GameRecord) {
	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].GameDate.Equal(games[j].GameDate) {
			return games[i].GameDate.Before(games[j].GameDate)
		}
		if !games[i].RecordedAt.Equal(games[j].RecordedAt) {
			return games[i].RecordedAt.Before(games[j].RecordedAt)
		}
		return games[i].Seq < games[j].Seq
	})
}

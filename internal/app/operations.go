package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/shatranj/internal/adapters/ledger"
	"github.com/okian/shatranj/internal/domain/ladder"
	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/internal/domain/types"
	"github.com/okian/shatranj/pkg/logger"
	"github.com/okian/shatranj/pkg/metrics"
)

// RecordGame validates and appends a game. When submissionID is non-empty a
// repeated submission is acknowledged as a duplicate instead of writing a
// second row. Cache invalidation rides the post-write task queue and can
// never fail the write.
func (s *Service) RecordGame(ctx context.Context, g model.GameRecord, submissionID string) (model.GameRecord, bool, error) {
	if !s.started {
		return model.GameRecord{}, false, ErrNotStarted
	}
	if err := g.Validate(); err != nil {
		metrics.RecordGameRejected()
		return model.GameRecord{}, false, err
	}
	if submissionID != "" && s.tracker.SeenAndRecord(ctx, submissionID) {
		s.log.Debug(ctx, "duplicate submission acknowledged",
			logger.String("submissionID", submissionID))
		return model.GameRecord{}, true, nil
	}
	if g.RecordedAt.IsZero() {
		g.RecordedAt = time.Now().UTC()
	}

	lctx, cancel := s.ledgerCtx(ctx)
	defer cancel()
	stored, err := s.store.AppendGame(lctx, g)
	if err != nil {
		if submissionID != "" {
			// The write never landed; let a retry through.
			s.tracker.Unrecord(ctx, submissionID)
		}
		s.noteQuota(ctx, err)
		return model.GameRecord{}, false, err
	}

	metrics.RecordGameRecorded()
	s.invalidateAsync(ctx, "game-recorded", TagRankings)
	return stored, false, nil
}

// UpdateGame rewrites a ledger row (admin edit).
func (s *Service) UpdateGame(ctx context.Context, g model.GameRecord) error {
	if !s.started {
		return ErrNotStarted
	}
	if err := g.Validate(); err != nil {
		return err
	}
	lctx, cancel := s.ledgerCtx(ctx)
	defer cancel()
	if err := s.store.UpdateGame(lctx, g); err != nil {
		s.noteQuota(ctx, err)
		return err
	}
	s.invalidateAsync(ctx, "game-edited", TagRankings, TagRatings)
	return nil
}

// DeleteGame removes a ledger row. Ratings are not replayed automatically;
// RecalcRatings is the explicit repair path.
func (s *Service) DeleteGame(ctx context.Context, id string) error {
	if !s.started {
		return ErrNotStarted
	}
	lctx, cancel := s.ledgerCtx(ctx)
	defer cancel()
	if err := s.store.DeleteGame(lctx, id); err != nil {
		s.noteQuota(ctx, err)
		return err
	}
	s.invalidateAsync(ctx, "game-deleted", TagRankings, TagRatings)
	return nil
}

// Standings serves the ranked ladder for the query window. While the quota
// breaker is open the cache answers alone, stale included, and the view is
// flagged degraded; with nothing cached the request fails as unavailable
// rather than touching the backing store.
func (s *Service) Standings(ctx context.Context, q ladder.Query) (types.StandingsView, error) {
	if !s.started {
		return types.StandingsView{}, ErrNotStarted
	}
	key := standingsKey(q)

	if s.quota.Open() {
		if v, ok := s.cache.GetStale(ctx, key); ok {
			return s.view(q, v.(standingsData), true), nil
		}
		return types.StandingsView{}, ErrNoCachedData
	}

	v, _, err := s.cache.GetOrPopulate(ctx, key, s.cacheTTL, []string{TagRankings}, func(pctx context.Context) (any, error) {
		return s.buildStandings(pctx, q)
	})
	if err != nil {
		s.noteQuota(ctx, err)
		if ledger.IsQuotaExceeded(err) {
			if stale, ok := s.cache.GetStale(ctx, key); ok {
				return s.view(q, stale.(standingsData), true), nil
			}
			return types.StandingsView{}, ErrNoCachedData
		}
		return types.StandingsView{}, err
	}
	return s.view(q, v.(standingsData), false), nil
}

// standingsData is the cached standings payload: the ranked rows plus the
// game records inside the window they were derived from.
type standingsData struct {
	Games   []model.GameRecord
	Players []types.Standing
}

// buildStandings is the cache producer: a pure function of ledger state.
func (s *Service) buildStandings(ctx context.Context, q ladder.Query) (standingsData, error) {
	lctx, cancel := s.ledgerCtx(ctx)
	defer cancel()

	// The full ledger is needed: all-time points decide visibility even for
	// a narrow window.
	games, err := s.store.ListGames(lctx, ledger.Filter{})
	if err != nil {
		return standingsData{}, err
	}
	roster, err := s.store.ListRoster(lctx)
	if err != nil {
		return standingsData{}, err
	}
	states, err := s.store.ListRatings(lctx)
	if err != nil {
		return standingsData{}, err
	}
	ratings := make(map[string]model.RatingState, len(states))
	for _, st := range states {
		ratings[st.PlayerID] = st
	}

	windowed := make([]model.GameRecord, 0, len(games))
	for i := range games {
		if q.Matches(&games[i]) {
			windowed = append(windowed, games[i])
		}
	}
	return standingsData{
		Games:   windowed,
		Players: s.aggregator.Standings(ctx, games, roster, ratings, q),
	}, nil
}

func (s *Service) view(q ladder.Query, data standingsData, degraded bool) types.StandingsView {
	v := types.StandingsView{
		GameType:      string(q.GameType),
		Games:         data.Games,
		Players:       data.Players,
		QuotaExceeded: degraded,
	}
	if q.DateFrom != nil {
		v.Date = q.DateFrom.Format("2006-01-02")
	}
	return v
}

func standingsKey(q ladder.Query) string {
	from, to := "", ""
	if q.DateFrom != nil {
		from = q.DateFrom.Format("2006-01-02")
	}
	if q.DateTo != nil {
		to = q.DateTo.Format("2006-01-02")
	}
	return fmt.Sprintf("standings:%s:%s:%s:%t", from, to, q.GameType, q.ActiveOnly)
}

// InitializeRatings seeds the default rating for every roster player that
// has no state yet. Idempotent.
func (s *Service) InitializeRatings(ctx context.Context) error {
	lctx, cancel := s.ledgerCtx(ctx)
	defer cancel()

	roster, err := s.store.ListRoster(lctx)
	if err != nil {
		return err
	}
	existing, err := s.store.ListRatings(lctx)
	if err != nil {
		return err
	}
	states := s.engine.InitializeAll(ctx, roster, existing)
	if len(states) == len(existing) {
		return nil
	}
	return s.store.SaveRatings(lctx, states)
}

// RecalcRatings replays the full ledger, persists the resulting snapshot
// wholesale, rewrites every game's ratingChange, and invalidates the
// rating and ranking views. Safe to re-run at any time.
func (s *Service) RecalcRatings(ctx context.Context) (types.RecalcReport, error) {
	if !s.started {
		return types.RecalcReport{}, ErrNotStarted
	}
	start := time.Now()

	lctx, cancel := s.ledgerCtx(ctx)
	defer cancel()
	games, err := s.store.ListGames(lctx, ledger.Filter{})
	if err != nil {
		s.noteQuota(ctx, err)
		return types.RecalcReport{}, err
	}
	roster, err := s.store.ListRoster(lctx)
	if err != nil {
		s.noteQuota(ctx, err)
		return types.RecalcReport{}, err
	}

	snap, err := s.engine.RecalcAll(ctx, games, roster)
	if err != nil {
		return types.RecalcReport{}, err
	}

	states := make([]model.RatingState, 0, len(snap.States))
	for _, st := range snap.States {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].PlayerID < states[j].PlayerID })

	sctx, scancel := s.ledgerCtx(ctx)
	defer scancel()
	if err := s.store.SaveRatings(sctx, states); err != nil {
		s.noteQuota(ctx, err)
		return types.RecalcReport{}, err
	}

	s.persistGameDeltas(ctx, games, snap.GameDeltas)

	metrics.RecordRatingRecalc()
	metrics.RecordRatingRecalcDuration(float64(time.Since(start).Milliseconds()))
	s.cache.InvalidateByTags(ctx, []string{TagRankings, TagRatings})

	report := types.RecalcReport{
		Processed: snap.Processed,
		Skipped:   snap.Skipped,
		Errors:    snap.Errors,
	}
	s.log.Info(ctx, "rating recalculation finished",
		logger.Int("processed", report.Processed),
		logger.Int("skipped", report.Skipped),
		logger.Int("errors", report.Errors),
		logger.Duration("took", time.Since(start)),
	)
	return report, nil
}

// persistGameDeltas rewrites ratingChange on every row: the computed delta
// for processed games, cleared for everything else. Row failures are logged
// and skipped; the next replay rewrites them again.
func (s *Service) persistGameDeltas(ctx context.Context, games []model.GameRecord, deltas map[string]float64) {
	for i := range games {
		g := games[i]
		if g.ID == "" {
			// Deltas are keyed by id; without one there is no row to address.
			s.log.Warn(ctx, "skipping rating change for game without id",
				logger.String("players", g.Player1ID+" vs "+g.Player2ID))
			continue
		}
		var want *float64
		if d, ok := deltas[g.ID]; ok {
			d := d
			want = &d
		}
		if equalDelta(g.RatingChange, want) {
			continue
		}
		g.RatingChange = want
		lctx, cancel := s.ledgerCtx(ctx)
		err := s.store.UpdateGame(lctx, g)
		cancel()
		if err != nil {
			s.log.Warn(ctx, "could not persist rating change",
				logger.String("gameID", g.ID), logger.Error(err))
		}
	}
}

func equalDelta(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// InvalidateCache removes entries by exact key and by tag, returning the
// removed keys.
func (s *Service) InvalidateCache(ctx context.Context, keys, tags []string) []string {
	removed := make([]string, 0, len(keys))
	for _, key := range keys {
		removed = append(removed, s.cache.InvalidateKey(ctx, key)...)
	}
	removed = append(removed, s.cache.InvalidateByTags(ctx, tags)...)
	return removed
}

// QuotaStatus exposes breaker state.
func (s *Service) QuotaStatus() types.QuotaStatus {
	return s.quota.Status()
}

// ResetQuota closes the breaker immediately.
func (s *Service) ResetQuota(ctx context.Context) {
	s.quota.Reset(ctx)
}

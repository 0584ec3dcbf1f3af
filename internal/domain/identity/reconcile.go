package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/shatranj/internal/adapters/ledger"
	"github.com/okian/shatranj/internal/domain/model"
	"github.com/okian/shatranj/internal/domain/types"
	"github.com/okian/shatranj/pkg/logger"
	"github.com/okian/shatranj/pkg/metrics"
)

// Reconciliation actions. Preview computes the diff without writing; apply
// performs the writes. There is no single-phase mode.
const (
	ActionPreview = "preview"
	ActionApply   = "apply"
)

// Reconcile repairs game sides whose player reference went stale after a
// registration edit. A side with an id missing from the roster is re-matched
// by first name; a side whose stored name drifted from the roster's
// canonical name gets the name refreshed. First roster match wins; rows with
// more than one candidate are flagged ambiguous so operators can inspect the
// preview before applying.
func (c *Coordinator) Reconcile(ctx context.Context, action string) (types.ReconcileReport, error) {
	if action != ActionPreview && action != ActionApply {
		return types.ReconcileReport{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	roster, err := c.store.ListRoster(ctx)
	if err != nil {
		return types.ReconcileReport{}, err
	}
	games, err := c.store.ListGames(ctx, ledger.Filter{})
	if err != nil {
		return types.ReconcileReport{}, err
	}

	known := make(map[string]model.Player, len(roster))
	for _, p := range roster {
		known[p.ID] = p
	}

	report := types.ReconcileReport{Action: action}
	perGame := make(map[string][]types.ReconcileRow)
	for i := range games {
		rows := c.proposeRows(&games[i], roster, known)
		if len(rows) == 0 {
			continue
		}
		report.Proposed = append(report.Proposed, rows...)
		perGame[games[i].ID] = rows
	}

	if action == ActionPreview {
		return report, nil
	}

	updated, failed, errs := c.applyRows(ctx, games, perGame)
	report.Updated = updated
	report.Failed = failed
	report.Errors = errs
	metrics.RecordRowsReconciled(updated)
	c.log.Info(ctx, "reconciliation applied",
		logger.Int("updated", updated),
		logger.Int("failed", failed),
	)
	return report, nil
}

// proposeRows returns the rewrites one game needs. The placeholder opponent
// is intentionally never "repaired" to a human player.
func (c *Coordinator) proposeRows(g *model.GameRecord, roster []model.Player, known map[string]model.Player) []types.ReconcileRow {
	var rows []types.ReconcileRow
	sides := [2]struct {
		n    int
		id   string
		name string
	}{
		{1, g.Player1ID, g.Player1Name},
		{2, g.Player2ID, g.Player2Name},
	}
	for _, s := range sides {
		if model.IsPlaceholder(s.id) {
			continue
		}
		if p, ok := known[s.id]; ok {
			if s.name != "" && s.name != p.Name {
				rows = append(rows, types.ReconcileRow{
					GameID: g.ID, Side: s.n,
					OldID: s.id, OldName: s.name,
					NewID: p.ID, NewName: p.Name,
				})
			}
			continue
		}
		match, ambiguous := matchByFirstName(s.name, roster)
		if match == nil {
			continue
		}
		rows = append(rows, types.ReconcileRow{
			GameID: g.ID, Side: s.n,
			OldID: s.id, OldName: s.name,
			NewID: match.ID, NewName: match.Name,
			Ambiguous: ambiguous,
		})
	}
	return rows
}

// applyRows groups rows by game so each record is rewritten exactly once,
// then fans the updates out under a bounded worker count. Row failures are
// collected, never fatal.
func (c *Coordinator) applyRows(ctx context.Context, games []model.GameRecord, perGame map[string][]types.ReconcileRow) (updated, failed int, errs []string) {
	byID := make(map[string]model.GameRecord, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}

	var mu sync.Mutex
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(c.parallelism)

	for gameID, rows := range perGame {
		g, ok := byID[gameID]
		if !ok {
			continue
		}
		rows := rows
		for _, r := range rows {
			if r.Side == 1 {
				g.Player1ID = r.NewID
				g.Player1Name = r.NewName
			} else {
				g.Player2ID = r.NewID
				g.Player2Name = r.NewName
			}
		}
		grp.Go(func() error {
			err := c.store.UpdateGame(gctx, g)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed += len(rows)
				errs = append(errs, fmt.Sprintf("game %s: %v", g.ID, err))
				return nil
			}
			updated += len(rows)
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = grp.Wait()
	return updated, failed, errs
}

// matchByFirstName finds the roster player whose first name matches the
// stored display name's first token, case-insensitively. The first match in
// roster order wins; a second candidate marks the match ambiguous.
func matchByFirstName(name string, roster []model.Player) (*model.Player, bool) {
	token := firstToken(name)
	if token == "" {
		return nil, false
	}
	var match *model.Player
	ambiguous := false
	for i := range roster {
		if model.IsPlaceholder(roster[i].ID) {
			continue
		}
		if firstToken(roster[i].Name) != token {
			continue
		}
		if match == nil {
			match = &roster[i]
			continue
		}
		ambiguous = true
		break
	}
	return match, ambiguous
}

func firstToken(s string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

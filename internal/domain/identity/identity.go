// Package identity runs out-of-band batch corrections against the ledger:
// merging duplicate player records and repairing stale ids and names left
// behind by registration edits. Rewrites here are high blast radius, so
// every operation either previews first or reports exactly what it touched.
package identity

import (
	"context"
	"fmt"

	"github.com/okian/shatranj/internal/adapters/ledger"
	"github.com/okian/shatranj/internal/domain/types"
	"github.com/okian/shatranj/pkg/logger"
	"github.com/okian/shatranj/pkg/metrics"
)

const defaultParallelism = 4

// Coordinator performs merge and reconciliation passes over the ledger.
type Coordinator struct {
	store       ledger.Store
	parallelism int
	log         logger.Logger
}

// New creates a coordinator backed by the given store.
func New(store ledger.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("identity")
	}
	return c
}

// MergePreview describes what a merge would touch without mutating anything.
type MergePreview struct {
	SourceID      string `json:"sourceId"`
	SourceName    string `json:"sourceName"`
	TargetID      string `json:"targetId"`
	TargetName    string `json:"targetName"`
	GamesToUpdate int    `json:"gamesToUpdate"`
}

// PreviewMerge counts the ledger rows a source-to-target merge would rewrite.
func (c *Coordinator) PreviewMerge(ctx context.Context, sourceID, targetID string) (MergePreview, error) {
	if sourceID == targetID {
		return MergePreview{}, ErrSameIdentity
	}
	source, err := c.store.GetPlayer(ctx, sourceID)
	if err != nil {
		return MergePreview{}, fmt.Errorf("source player: %w", err)
	}
	target, err := c.store.GetPlayer(ctx, targetID)
	if err != nil {
		return MergePreview{}, fmt.Errorf("target player: %w", err)
	}
	games, err := c.store.ListGames(ctx, ledger.Filter{PlayerID: sourceID})
	if err != nil {
		return MergePreview{}, err
	}
	return MergePreview{
		SourceID:      source.ID,
		SourceName:    source.Name,
		TargetID:      target.ID,
		TargetName:    target.Name,
		GamesToUpdate: len(games),
	}, nil
}

// MergePlayers repoints every game referencing sourceID, on either side, to
// targetID with the target's canonical display name. A row that fails to
// update is counted and reported; the pass keeps going. Rating state cleanup
// is best-effort: a failure there is a warning, never an abort, because the
// next full replay rebuilds ratings from the rewritten ledger anyway.
func (c *Coordinator) MergePlayers(ctx context.Context, sourceID, targetID string) (types.MergeReport, error) {
	if sourceID == targetID {
		return types.MergeReport{}, ErrSameIdentity
	}
	target, err := c.store.GetPlayer(ctx, targetID)
	if err != nil {
		return types.MergeReport{}, fmt.Errorf("target player: %w", err)
	}
	if _, err := c.store.GetPlayer(ctx, sourceID); err != nil {
		return types.MergeReport{}, fmt.Errorf("source player: %w", err)
	}

	games, err := c.store.ListGames(ctx, ledger.Filter{PlayerID: sourceID})
	if err != nil {
		return types.MergeReport{}, err
	}

	report := types.MergeReport{}
	for i := range games {
		g := games[i]
		if g.Player1ID == sourceID {
			g.Player1ID = target.ID
			g.Player1Name = target.Name
		}
		if g.Player2ID == sourceID {
			g.Player2ID = target.ID
			g.Player2Name = target.Name
		}
		if err := c.store.UpdateGame(ctx, g); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("game %s: %v", g.ID, err))
			continue
		}
		report.Updated++
	}

	c.dropSourceRating(ctx, sourceID)

	report.Success = report.Failed == 0
	report.Message = fmt.Sprintf("merged %s into %s: %d games updated, %d failed",
		sourceID, targetID, report.Updated, report.Failed)
	c.log.Info(ctx, "player merge applied",
		logger.String("source", sourceID),
		logger.String("target", targetID),
		logger.Int("updated", report.Updated),
		logger.Int("failed", report.Failed),
	)
	metrics.RecordMergeApplied()
	return report, nil
}

// dropSourceRating removes the merged-away player's rating row so it stops
// appearing in snapshots. Auxiliary by nature: failures are logged only.
func (c *Coordinator) dropSourceRating(ctx context.Context, sourceID string) {
	states, err := c.store.ListRatings(ctx)
	if err != nil {
		c.log.Warn(ctx, "merge: could not list ratings", logger.Error(err))
		return
	}
	kept := states[:0]
	found := false
	for _, s := range states {
		if s.PlayerID == sourceID {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return
	}
	if err := c.store.SaveRatings(ctx, kept); err != nil {
		c.log.Warn(ctx, "merge: could not drop source rating state",
			logger.String("source", sourceID), logger.Error(err))
	}
}

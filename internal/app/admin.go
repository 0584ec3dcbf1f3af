package service

import (
	"context"

	"github.com/okian/shatranj/internal/domain/identity"
	"github.com/okian/shatranj/internal/domain/ownership"
	"github.com/okian/shatranj/internal/domain/types"
)

// PreviewMerge reports what merging source into target would rewrite.
func (s *Service) PreviewMerge(ctx context.Context, sourceID, targetID string) (identity.MergePreview, error) {
	if !s.started {
		return identity.MergePreview{}, ErrNotStarted
	}
	lctx, cancel := s.ledgerCtx(ctx)
	defer cancel()
	preview, err := s.coordinator.PreviewMerge(lctx, sourceID, targetID)
	if err != nil {
		s.noteQuota(ctx, err)
	}
	return preview, err
}

// MergePlayers applies a source-to-target merge and invalidates the derived
// views the rewrite touched.
func (s *Service) MergePlayers(ctx context.Context, sourceID, targetID string) (types.MergeReport, error) {
	if !s.started {
		return types.MergeReport{}, ErrNotStarted
	}
	report, err := s.coordinator.MergePlayers(ctx, sourceID, targetID)
	if err != nil {
		s.noteQuota(ctx, err)
		return report, err
	}
	s.invalidateAsync(ctx, "players-merged", TagRankings, TagRatings)
	return report, nil
}

// Reconcile previews or applies the batch identity repair pass.
func (s *Service) Reconcile(ctx context.Context, action string) (types.ReconcileReport, error) {
	if !s.started {
		return types.ReconcileReport{}, ErrNotStarted
	}
	report, err := s.coordinator.Reconcile(ctx, action)
	if err != nil {
		s.noteQuota(ctx, err)
		return report, err
	}
	if action == identity.ActionApply && report.Updated > 0 {
		s.invalidateAsync(ctx, "identities-reconciled", TagRankings)
	}
	return report, nil
}

// ClaimPlayer opens a pending ownership claim.
func (s *Service) ClaimPlayer(ctx context.Context, playerID, requester string) (ownership.Claim, error) {
	if !s.started {
		return ownership.Claim{}, ErrNotStarted
	}
	return s.claims.Claim(ctx, playerID, requester)
}

// ResolveClaim approves or denies a pending claim on behalf of actor.
func (s *Service) ResolveClaim(ctx context.Context, playerID, actor string, approve bool) (ownership.Claim, error) {
	if !s.started {
		return ownership.Claim{}, ErrNotStarted
	}
	return s.claims.Resolve(ctx, playerID, actor, approve)
}

// OwnershipStatus returns a player's claim state and current holder.
func (s *Service) OwnershipStatus(playerID string) (ownership.State, string) {
	return s.claims.Status(playerID)
}

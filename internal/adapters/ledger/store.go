// Package ledger defines the narrow read/write contract over the persisted
// game history and roster, plus the concrete stores behind it. The ledger is
// the sole source of truth; every derived view must be reproducible from it.
package ledger

import (
	"context"
	"time"

	"github.com/okian/shatranj/internal/domain/model"
)

// Filter narrows a ListGames scan. Zero values mean "no constraint".
type Filter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	GameType model.GameType
	Verified *bool
	PlayerID string
}

// Matches reports whether g satisfies the filter.
func (f Filter) Matches(g *model.GameRecord) bool {
	if f.DateFrom != nil && g.GameDate.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && g.GameDate.After(*f.DateTo) {
		return false
	}
	if f.GameType != "" && g.GameType != f.GameType {
		return false
	}
	if f.Verified != nil && g.IsVerified != *f.Verified {
		return false
	}
	if f.PlayerID != "" && !g.Involves(f.PlayerID) {
		return false
	}
	return true
}

// Store provides read/write access to the game ledger and roster.
type Store interface {
	// ListGames returns games matching the filter in insertion order.
	ListGames(ctx context.Context, f Filter) ([]model.GameRecord, error)

	// AppendGame persists a new game record, assigning its id (when empty)
	// and its ledger sequence number. The stored record is returned.
	AppendGame(ctx context.Context, g model.GameRecord) (model.GameRecord, error)

	// UpdateGame rewrites an existing record in place.
	// Returns ErrNotFound if the id is unknown.
	UpdateGame(ctx context.Context, g model.GameRecord) error

	// DeleteGame removes a record. Deletion does not trigger a rating
	// replay; POST /recalc-ratings is the explicit repair path.
	DeleteGame(ctx context.Context, id string) error

	// ListRoster returns every registered player.
	ListRoster(ctx context.Context) ([]model.Player, error)

	// GetPlayer returns a single roster entry or ErrNotFound.
	GetPlayer(ctx context.Context, id string) (model.Player, error)

	// UpdatePlayer rewrites a roster entry.
	UpdatePlayer(ctx context.Context, p model.Player) error

	// ListRatings returns the persisted rating snapshot.
	ListRatings(ctx context.Context) ([]model.RatingState, error)

	// SaveRatings replaces the persisted rating snapshot wholesale.
	SaveRatings(ctx context.Context, states []model.RatingState) error
}

// Package ownership tracks who holds a player record and mediates takeover
// requests. A claim is never self-service: it parks in pending until the
// current holder approves or denies it.
package ownership

import (
	"context"
	"sync"
	"time"

	"github.com/okian/shatranj/pkg/logger"
)

// State is the closed claim lifecycle domain.
type State string

const (
	StateUnclaimed State = "unclaimed"
	StatePending   State = "pending"
	StateApproved  State = "approved"
	StateDenied    State = "denied"
)

// Claim is one takeover request for a player record.
type Claim struct {
	PlayerID   string    `json:"playerId"`
	Requester  string    `json:"requester"`
	Holder     string    `json:"holder,omitempty"`
	State      State     `json:"state"`
	CreatedAt  time.Time `json:"createdAt"`
	ResolvedAt time.Time `json:"resolvedAt,omitzero"`
}

// Registry is the process-local claim book.
type Registry struct {
	mu      sync.Mutex
	claims  map[string]*Claim // latest claim per player id
	holders map[string]string // player id -> holding user
	clock   func() time.Time
	log     logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		claims:  make(map[string]*Claim),
		holders: make(map[string]string),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get().Named("ownership")
	}
	return r
}

// Claim opens a pending takeover request for playerID on behalf of
// requester. At most one claim may be pending per player.
func (r *Registry) Claim(ctx context.Context, playerID, requester string) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.holders[playerID] == requester && requester != "" {
		return Claim{}, ErrAlreadyHolder
	}
	if c, ok := r.claims[playerID]; ok && c.State == StatePending {
		return Claim{}, ErrClaimPending
	}

	c := &Claim{
		PlayerID:  playerID,
		Requester: requester,
		Holder:    r.holders[playerID],
		State:     StatePending,
		CreatedAt: r.clock(),
	}
	r.claims[playerID] = c
	r.log.Info(ctx, "ownership claim opened",
		logger.String("player", playerID),
		logger.String("requester", requester),
	)
	return *c, nil
}

// Resolve moves a pending claim to approved or denied. When the player has a
// holder, only that holder may resolve; an unheld record may be resolved
// by any administrator, but never by the requester themselves. Approval
// transfers the record to the requester.
func (r *Registry) Resolve(ctx context.Context, playerID, actor string, approve bool) (Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.claims[playerID]
	if !ok || c.State != StatePending {
		return Claim{}, ErrNoPendingClaim
	}
	if actor == c.Requester {
		return Claim{}, ErrSelfResolve
	}
	if holder := r.holders[playerID]; holder != "" && actor != holder {
		return Claim{}, ErrNotHolder
	}

	if approve {
		c.State = StateApproved
		r.holders[playerID] = c.Requester
	} else {
		c.State = StateDenied
	}
	c.ResolvedAt = r.clock()
	r.log.Info(ctx, "ownership claim resolved",
		logger.String("player", playerID),
		logger.String("actor", actor),
		logger.Bool("approved", approve),
	)
	return *c, nil
}

// Status returns the player's current claim state and holder.
func (r *Registry) Status(playerID string) (State, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.claims[playerID]; ok && c.State == StatePending {
		return StatePending, r.holders[playerID]
	}
	if holder, ok := r.holders[playerID]; ok {
		return StateApproved, holder
	}
	if c, ok := r.claims[playerID]; ok && c.State == StateDenied {
		return StateDenied, ""
	}
	return StateUnclaimed, ""
}

package ownership

import "errors"

var (
	ErrClaimPending   = errors.New("a claim is already pending for this player")
	ErrNoPendingClaim = errors.New("no pending claim for this player")
	ErrNotHolder      = errors.New("only the current holder may resolve a claim")
	ErrSelfResolve    = errors.New("requester may not resolve their own claim")
	ErrAlreadyHolder  = errors.New("requester already holds this player")
)

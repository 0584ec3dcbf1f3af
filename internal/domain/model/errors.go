package model

import "errors"

// Sentinel kinds for record validation failures.
var (
	ErrSamePlayer      = errors.New("player cannot play against themselves")
	ErrMissingPlayer   = errors.New("missing player reference")
	ErrMissingDate     = errors.New("missing game date")
	ErrUnknownResult   = errors.New("unknown result value")
	ErrUnknownGameType = errors.New("unknown game type")
)

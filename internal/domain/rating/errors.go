package rating

import "errors"

// Sentinel kinds for games excluded from rating math.
var (
	ErrUnverifiedGame    = errors.New("game not verified")
	ErrPlaceholderPlayer = errors.New("placeholder player excluded from rating")
	ErrMissingPlayer     = errors.New("player has no rating state")
)

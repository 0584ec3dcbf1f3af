package identity

import "errors"

var (
	ErrSameIdentity  = errors.New("source and target are the same player")
	ErrUnknownAction = errors.New("unknown reconciliation action")
)

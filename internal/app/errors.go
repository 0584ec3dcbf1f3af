package service

import "errors"

var (
	// ErrNoCachedData means the breaker is open and the cache holds nothing
	// usable for the request. Callers map this to an unavailable response;
	// it is the only case where quota exhaustion surfaces as an error.
	ErrNoCachedData = errors.New("quota exceeded and no cached data available")

	// ErrNotStarted guards calls made before Start.
	ErrNotStarted = errors.New("service not started")
)

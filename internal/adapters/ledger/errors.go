package ledger

import (
	"context"
	"errors"
	"strings"
)

// Sentinel kinds for ledger errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrQuotaExceeded = errors.New("backing store quota exceeded")
	ErrClosed        = errors.New("store closed")
)

// quotaSignatures are the known message fragments a rate-limited backing
// store emits. Matching stays best-effort string inspection because the
// upstream does not expose typed errors.
var quotaSignatures = []string{
	"quota exceeded",
	"rate limit",
	"too many requests",
	"resource has been exhausted",
}

// IsQuotaExceeded reports whether err is a rate-limit signal. A bounded
// timeout counts the same as an explicit quota error: both mean "stop
// hammering the backing store for a while".
func IsQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range quotaSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

package session

import "time"

// ShortWriteMode selects how a session reacts to a write that lands fewer
// bytes than requested.
type ShortWriteMode int

const (
	ShortWriteRetry ShortWriteMode = iota
	ShortWriteReject
)

// Default backoff parameters. The geometric sequence base*2^k is an exact
// contract checked by tests, so it is computed directly rather than
// through a jittered, randomized backoff generator.
const (
	DefaultShortWriteBackoff = 10 * time.Millisecond
	DefaultShortWriteRetries = 5
)

// ShortWritePolicy decides whether and how long a handler should wait
// before re-issuing a Write targeting the unwritten suffix.
type ShortWritePolicy struct {
	Mode       ShortWriteMode
	Base       time.Duration
	MaxRetries int
}

// NewRetryPolicy builds the default Retry policy.
func NewRetryPolicy() ShortWritePolicy {
	return ShortWritePolicy{Mode: ShortWriteRetry, Base: DefaultShortWriteBackoff, MaxRetries: DefaultShortWriteRetries}
}

// NewRejectPolicy builds the Reject policy: no retry is ever offered.
func NewRejectPolicy() ShortWritePolicy {
	return ShortWritePolicy{Mode: ShortWriteReject}
}

// NextBackoff returns the delay before retrying the attempt'th short write
// (zero-indexed) and true, or (0, false) once the policy has nothing left
// to offer: Reject never offers a backoff, Retry offers exactly MaxRetries
// of them following base*2^attempt.
func (p ShortWritePolicy) NextBackoff(attempt int) (time.Duration, bool) {
	if p.Mode == ShortWriteReject {
		return 0, false
	}
	if attempt < 0 || attempt >= p.MaxRetries {
		return 0, false
	}
	return p.Base * time.Duration(uint64(1)<<uint(attempt)), true
}

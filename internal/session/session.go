package session

import (
	"sync"
	"time"

	"github.com/cohesix/coh/pkg/wire"
)

// Session is one attached, authenticated context: a SessionId, a role, a
// tag window, and the short-write policy governing its writes. It is the
// per-connection hub described in §9's "arena + index" note: the table
// owns sessions by index, everything else holds read-only borrows.
type Session struct {
	mu sync.Mutex

	id    wire.SessionId
	role  Role
	state State

	msize uint32
	tags  *TagWindow

	writePolicy ShortWritePolicy

	lastActivity time.Time
	timeout      time.Duration

	closeReason error
}

// ID returns the session's minted identifier.
func (s *Session) ID() wire.SessionId {
	return s.id
}

// Role returns the authenticated role. It is zero-valued (RoleQueen) until
// Attach succeeds; callers should gate on State() == StateAttached before
// trusting it.
func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tags exposes the session's tag window.
func (s *Session) Tags() *TagWindow {
	return s.tags
}

// NegotiateVersion handles a Tversion: it must arrive in StateNew, selects
// min(clientMsize, MAX_MSIZE), and advances to StateVersioned.
func (s *Session) NegotiateVersion(clientMsize uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNew {
		return 0, detailed("RecvError", "Tversion received outside New state")
	}

	negotiated := clientMsize
	if negotiated > wire.MAX_MSIZE {
		negotiated = wire.MAX_MSIZE
	}

	s.msize = negotiated
	s.state = StateVersioned
	return negotiated, nil
}

// Attach runs the §4.B ticket authentication sequence and, on success,
// binds the session to role and advances to StateAttached. Attach must
// follow a successful NegotiateVersion.
func (s *Session) Attach(role Role, rawTicket string, inv TicketInventory, loopback bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateVersioned {
		return detailed("RecvError", "Tattach received outside Versioned state")
	}

	if err := Authenticate(role, rawTicket, inv, loopback); err != nil {
		return err
	}

	s.role = role
	s.state = StateAttached
	return nil
}

// Touch records activity, resetting the inactivity clock. Call on every
// request dispatched against the session.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = now
}

// CheckInactivity transitions Attached -> Closing with reason
// INACTIVITY_TIMEOUT if now is past the manifest-driven timeout. It
// reports whether the transition happened.
func (s *Session) CheckInactivity(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAttached || s.timeout <= 0 {
		return false
	}
	if now.Sub(s.lastActivity) <= s.timeout {
		return false
	}

	s.state = StateClosing
	s.closeReason = ErrInactivityTimeout
	return true
}

// BeginClosing transitions the session to Closing with an explicit
// reason, e.g. client Quit or a session-fatal codec error. It is a no-op
// once the session is already Closing or Closed.
func (s *Session) BeginClosing(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosing || s.state == StateClosed {
		return
	}
	s.state = StateClosing
	s.closeReason = reason
}

// ReadyToClose reports whether a Closing session has drained its tag
// window and may be finalized.
func (s *Session) ReadyToClose() bool {
	return s.State() == StateClosing && s.tags.Drained()
}

// Close finalizes a Closing session. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reason := s.closeReason
	s.state = StateClosed
	return reason
}

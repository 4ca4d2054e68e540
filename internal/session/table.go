package session

import (
	"sync"
	"time"

	"github.com/cohesix/coh/pkg/wire"
)

// Table is the fixed-size arena of live sessions, generalized from the
// teacher's ron.Server{clients map[string]*client, clientLock sync.Mutex}
// (internal/ron/server.go) keyed on wire.SessionId instead of a client
// UUID string.
type Table struct {
	mu       sync.Mutex
	sessions map[wire.SessionId]*Session
	nextID   uint64

	tagWindow int
}

// NewTable constructs an empty session table. tagWindow bounds every
// session minted from it (DefaultTagWindow unless the manifest overrides
// it).
func NewTable(tagWindow int) *Table {
	return &Table{
		sessions:  make(map[wire.SessionId]*Session),
		tagWindow: tagWindow,
	}
}

// New mints a fresh session in StateNew. IDs increment monotonically from
// 1, so wire.BOOTSTRAP (0) is never handed to a client.
func (t *Table) New(now time.Time, timeout time.Duration, writePolicy ShortWritePolicy) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := wire.SessionId(t.nextID)

	s := &Session{
		id:           id,
		state:        StateNew,
		tags:         NewTagWindow(t.tagWindow),
		writePolicy:  writePolicy,
		lastActivity: now,
		timeout:      timeout,
	}
	t.sessions[id] = s
	return s
}

// Get looks up a session by id.
func (t *Table) Get(id wire.SessionId) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	return s, ok
}

// Remove deletes a session from the table, typically once Close has run.
func (t *Table) Remove(id wire.SessionId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

// Len reports the number of live (not yet removed) sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Sweep scans the table for inactive Attached sessions, transitions them
// to Closing, and returns the ids affected. Intended to run on a ticker
// from the owning transport loop.
func (t *Table) Sweep(now time.Time) []wire.SessionId {
	t.mu.Lock()
	sessions := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	var affected []wire.SessionId
	for _, s := range sessions {
		if s.CheckInactivity(now) {
			affected = append(affected, s.ID())
		}
	}
	return affected
}

package transport

import (
	"context"
	"fmt"

	"github.com/cohesix/coh/internal/session"
)

// MockTransport is a canned, in-memory Transport for tests and for
// cohsh --transport mock diagnostics. Every operation is backed by a
// function field so callers can stub exactly the behavior a test cares
// about; nil fields fall back to a reasonable default.
type MockTransport struct {
	AttachFunc func(role session.Role, ticket string) (SessionHandle, error)
	TailFunc   func(sess SessionHandle, path string) ([]string, error)
	WriteFunc  func(sess SessionHandle, path string, payload []byte) (int, error)

	nextID uint64
}

func (m *MockTransport) Attach(ctx context.Context, role session.Role, ticket string) (SessionHandle, error) {
	if m.AttachFunc != nil {
		return m.AttachFunc(role, ticket)
	}
	m.nextID++
	return SessionHandle{ID: m.nextID, Role: role}, nil
}

func (m *MockTransport) Ping(ctx context.Context, sess SessionHandle) (string, error) {
	return fmt.Sprintf("attached as %s via %s", sess.Role, m.Kind()), nil
}

func (m *MockTransport) Tail(ctx context.Context, sess SessionHandle, path string) ([]string, error) {
	if m.TailFunc != nil {
		return m.TailFunc(sess, path)
	}
	return []string{"watch ts_ms=0 p50_ms=0 p95_ms=0 queued=0 backpressure=0 dropped=0 ui_reads=0 ui_denies=0"}, nil
}

func (m *MockTransport) Write(ctx context.Context, sess SessionHandle, path string, payload []byte) (int, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(sess, path, payload)
	}
	return len(payload), nil
}

func (m *MockTransport) Kind() string {
	return "mock"
}

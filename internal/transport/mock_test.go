package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cohesix/coh/internal/session"
)

func TestMockTransportDefaults(t *testing.T) {
	m := &MockTransport{}
	sess, err := m.Attach(context.Background(), session.RoleQueen, "")
	require.NoError(t, err)
	require.Equal(t, session.RoleQueen, sess.Role)

	status, err := m.Ping(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, "attached as Queen via mock", status)

	lines, err := m.Tail(context.Background(), sess, "/proc/ingest/watch")
	require.NoError(t, err)
	require.Len(t, lines, 1)
}

func TestMockTransportOverrides(t *testing.T) {
	wantErr := errors.New("boom")
	m := &MockTransport{
		WriteFunc: func(sess SessionHandle, path string, payload []byte) (int, error) {
			return 0, wantErr
		},
	}
	_, err := m.Write(context.Background(), SessionHandle{}, "/ctl/spawn", nil)
	require.ErrorIs(t, err, wantErr)
}

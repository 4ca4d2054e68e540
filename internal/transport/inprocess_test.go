package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cohesix/coh/internal/namespace"
	"github.com/cohesix/coh/internal/session"
)

func testTree() *namespace.Tree {
	tree := namespace.NewTree()
	tree.Mount("queen.log", &namespace.Node{
		Kind:      namespace.NodeLog,
		ReadRoles: []session.Role{session.RoleQueen},
		Read:      func() []byte { return []byte("boot ok\n") },
	})
	tree.Mount("ctl/spawn", &namespace.Node{
		Kind:       namespace.NodeCtl,
		ReadRoles:  []session.Role{session.RoleQueen},
		WriteRoles: []session.Role{session.RoleQueen},
		Write:      func(data []byte) error { return nil },
	})
	return tree
}

func TestInProcessAttachAndTail(t *testing.T) {
	tr := NewInProcess(testTree(), session.StaticInventory{})

	sess, err := tr.Attach(context.Background(), session.RoleQueen, "")
	require.NoError(t, err)
	require.Equal(t, session.RoleQueen, sess.Role)

	lines, err := tr.Tail(context.Background(), sess, "queen.log")
	require.NoError(t, err)
	require.Equal(t, []string{"boot ok"}, lines)

	status, err := tr.Ping(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, "attached as Queen via in-process", status)
}

func TestInProcessWrite(t *testing.T) {
	tr := NewInProcess(testTree(), session.StaticInventory{})
	sess, err := tr.Attach(context.Background(), session.RoleQueen, "")
	require.NoError(t, err)

	n, err := tr.Write(context.Background(), sess, "ctl/spawn", []byte(`{"role":"gpu"}`))
	require.NoError(t, err)
	require.Equal(t, len(`{"role":"gpu"}`), n)
}

func TestInProcessDeniedReadSurfacesError(t *testing.T) {
	inv := session.StaticInventory{
		Tokens:   map[session.Role]string{session.RoleWorkerGpu: "gpu-ticket"},
		Required: map[session.Role]bool{session.RoleWorkerGpu: true},
	}
	tr := NewInProcess(testTree(), inv)
	sess, err := tr.Attach(context.Background(), session.RoleWorkerGpu, "gpu-ticket")
	require.NoError(t, err)

	_, err = tr.Tail(context.Background(), sess, "queen.log")
	require.Error(t, err)
}

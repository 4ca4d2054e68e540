package namespace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cohesix/coh/internal/session"
)

func TestResolveReturnsEnoentForUnmountedPath(t *testing.T) {
	tree := NewTree()
	_, err := tree.Resolve("/log/queen.log")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveRejectsTraversal(t *testing.T) {
	tree := NewTree()
	tree.Mount("/log/queen.log", &Node{Kind: NodeLog})
	_, err := tree.Resolve("/log/../secrets")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveAcceptsTrailingSlash(t *testing.T) {
	tree := NewTree()
	node := &Node{Kind: NodeLeaf}
	tree.Mount("/srv/static", node)

	got, err := tree.Resolve("/srv/static/")
	require.NoError(t, err)
	require.Same(t, node, got)
}

func TestShardAliasStrictness(t *testing.T) {
	strict := ShardLayout{Count: 4, AllowLegacyAlias: false}
	tree := NewTree()
	tree.MountShard(strict, "telemetry", func(i int) *Node {
		return &Node{Kind: NodeShard, ReadRoles: []session.Role{session.RoleQueen}}
	})

	_, err := tree.Resolve("/worker/worker-1/telemetry")
	var aliasErr *ShardAliasError
	require.ErrorAs(t, err, &aliasErr)
	require.Equal(t, "/worker/worker-1/telemetry", aliasErr.Path)

	_, err = tree.Resolve("/worker/shard-0/telemetry")
	require.NoError(t, err)
}

func TestShardAliasPermittedWhenEnabled(t *testing.T) {
	lenient := ShardLayout{Count: 4, AllowLegacyAlias: true}
	tree := NewTree()
	tree.MountShard(lenient, "telemetry", func(i int) *Node {
		return &Node{Kind: NodeShard}
	})

	_, err := tree.Resolve("/worker/worker-1/telemetry")
	require.NoError(t, err)
}

func TestNodeAccessGating(t *testing.T) {
	readOnly := &Node{Kind: NodeLog, ReadRoles: []session.Role{session.RoleQueen}}
	require.NoError(t, readOnly.CheckRead(session.RoleQueen))
	require.Error(t, readOnly.CheckRead(session.RoleWorkerGpu))

	err := readOnly.CheckWrite(session.RoleQueen)
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	require.Equal(t, "READ_ONLY", accessErr.Reason)

	writable := &Node{
		Kind:       NodeCtl,
		ReadRoles:  []session.Role{session.RoleQueen},
		WriteRoles: []session.Role{session.RoleWorkerGpu},
	}
	err = writable.CheckWrite(session.RoleQueen)
	require.ErrorAs(t, err, &accessErr)
	require.Equal(t, "UNAUTHORIZED", accessErr.Reason)
	require.NoError(t, writable.CheckWrite(session.RoleWorkerGpu))
}

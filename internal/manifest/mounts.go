package manifest

import (
	"time"

	"github.com/cohesix/coh/internal/namespace"
	"github.com/cohesix/coh/internal/session"
)

// NamespaceMounts builds the generated namespace tree: the queen log,
// the ingest watch stream, the queen control file at QueenCtlPath, and
// a shard directory of per-worker telemetry watch nodes laid out per
// layout.
func NamespaceMounts(layout namespace.ShardLayout, queenCtlPath string) *namespace.Tree {
	tree := namespace.NewTree()

	queenLog := newLogStore("boot ok\n")
	tree.Mount("log/queen.log", &namespace.Node{
		Kind:       namespace.NodeLog,
		ReadRoles:  []session.Role{session.RoleQueen},
		WriteRoles: []session.Role{session.RoleQueen},
		AppendOnly: true,
		Read:       queenLog.read,
		Write:      queenLog.append,
	})

	tree.Mount("proc/ingest/watch", &namespace.Node{
		Kind: namespace.NodeWatch,
		ReadRoles: []session.Role{
			session.RoleQueen,
			session.RoleWorkerHeartbeat,
			session.RoleWorkerGpu,
			session.RoleWorkerBus,
			session.RoleWorkerLora,
		},
		Sample: staticIngestWatch,
	})

	ctl := newLogStore("")
	tree.Mount(queenCtlPath, &namespace.Node{
		Kind:       namespace.NodeCtl,
		ReadRoles:  []session.Role{session.RoleQueen},
		WriteRoles: []session.Role{session.RoleQueen},
		AppendOnly: true,
		Read:       ctl.read,
		Write:      ctl.append,
	})

	tree.MountShard(layout, "telemetry", func(shard int) *namespace.Node {
		return &namespace.Node{
			Kind:      namespace.NodeWatch,
			ReadRoles: []session.Role{session.RoleQueen, session.RoleWorkerGpu},
			Sample:    func() namespace.WatchSample { return shardWatch(shard) },
		}
	})

	return tree
}

func staticIngestWatch() namespace.WatchSample {
	return namespace.WatchSample{TsMs: uint64(time.Now().UnixMilli())}
}

func shardWatch(shard int) namespace.WatchSample {
	return namespace.WatchSample{
		TsMs:  uint64(time.Now().UnixMilli()),
		Queued: uint64(shard),
	}
}

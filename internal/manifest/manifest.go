// Package manifest holds the compile-time tables of docs/SECURE9P.md
// §4.H: the ticket inventory, namespace mounts, shard layout, and trace
// policy defaults. These are process-wide immutable state, generated
// once at startup and never mutated afterward; an optional YAML overlay
// may replace individual fields but is itself read once, at
// construction, never reloaded.
package manifest

import (
	"time"

	"github.com/cohesix/coh/internal/console"
	"github.com/cohesix/coh/internal/namespace"
	"github.com/cohesix/coh/internal/session"
	"github.com/cohesix/coh/internal/trace"
	"github.com/cohesix/coh/pkg/wire"
)

// DefaultTCPPort is COHSH_TCP_PORT, the well-known Secure9P listen port.
const DefaultTCPPort = 5640

// DefaultSessionTimeout is the inactivity timeout applied to every
// session table built from the generated manifest.
const DefaultSessionTimeout = 30 * time.Second

// Manifest is the fully resolved set of compile-time tables a cohsh
// process is built from.
type Manifest struct {
	Tickets      session.TicketInventory
	ShardLayout  namespace.ShardLayout
	TracePolicy  trace.TracePolicy
	TCPPort      int
	QueenCtlPath string
}

// FromGenerated returns the manifest baked in at compile time: the
// ticket inventory, shard layout, and trace policy defaults. Mirrors
// CohshPolicy::from_generated's role as the single source of truth for
// every constant a fresh cohsh process needs before it reads any
// override.
func FromGenerated() Manifest {
	return Manifest{
		Tickets:     defaultTicketInventory(),
		ShardLayout: namespace.DefaultShardLayout,
		TracePolicy: trace.TracePolicy{
			MaxBytes: 1 << 20,
			MaxFrame: wire.MAX_MSIZE,
			MaxLine:  console.MaxLineLen,
		},
		TCPPort:      DefaultTCPPort,
		QueenCtlPath: "ctl/spawn",
	}
}

func defaultTicketInventory() session.TicketInventory {
	return &session.StaticInventory{
		Tokens: map[session.Role]string{},
		Required: map[session.Role]bool{
			session.RoleQueen:           false,
			session.RoleWorkerHeartbeat: true,
			session.RoleWorkerGpu:       true,
			session.RoleWorkerBus:       true,
			session.RoleWorkerLora:      true,
		},
	}
}

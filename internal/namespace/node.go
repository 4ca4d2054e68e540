package namespace

import "github.com/cohesix/coh/internal/session"

// NodeKind is the closed set of namespace node variants (§4.C).
type NodeKind int

const (
	NodeLog NodeKind = iota
	NodeWatch
	NodeCtl
	NodeLeaf
	NodeShard
)

func (k NodeKind) String() string {
	switch k {
	case NodeLog:
		return "Log"
	case NodeWatch:
		return "Watch"
	case NodeCtl:
		return "Ctl"
	case NodeLeaf:
		return "Leaf"
	case NodeShard:
		return "Shard"
	default:
		return "Unknown"
	}
}

// Node is one entry in the namespace tree: a role-scoped log, a watch
// stream, a control file, a static leaf, or a shard directory member.
// Every node declares its own read/write role gating and whether it is
// append-only.
type Node struct {
	Kind       NodeKind
	ReadRoles  []session.Role
	WriteRoles []session.Role
	AppendOnly bool

	// Read produces the current content for Log/Ctl/Leaf nodes.
	Read func() []byte

	// Sample produces one record for Watch nodes, rendered with the fixed
	// field schema of §4.C.
	Sample func() WatchSample

	// Write appends data to a Log/Ctl node. Write itself does not check
	// offset bounds; AppendOnlyWriteBounds is the separate check for that.
	Write func(data []byte) error
}

func roleIn(roles []session.Role, role session.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanRead reports whether role is in the node's read allowlist.
func (n *Node) CanRead(role session.Role) bool {
	return roleIn(n.ReadRoles, role)
}

// CanWrite reports whether role is in the node's write allowlist.
func (n *Node) CanWrite(role session.Role) bool {
	return roleIn(n.WriteRoles, role)
}

// CheckRead enforces read gating, yielding EACCES/UNAUTHORIZED on denial.
func (n *Node) CheckRead(role session.Role) error {
	if !n.CanRead(role) {
		return &AccessError{Reason: "UNAUTHORIZED"}
	}
	return nil
}

// CheckWrite enforces write gating. A node with no write roles at all is
// READ_ONLY; one with write roles that exclude this caller is
// UNAUTHORIZED.
func (n *Node) CheckWrite(role session.Role) error {
	if len(n.WriteRoles) == 0 {
		return &AccessError{Reason: "READ_ONLY"}
	}
	if !n.CanWrite(role) {
		return &AccessError{Reason: "UNAUTHORIZED"}
	}
	return nil
}

package namespace

import "strings"

// Tree is the static mount table: a flat map from canonical path to Node,
// generalized from the NamespaceMount (service_name, target_path_segments)
// pairs of §3 into something that can actually answer Resolve.
type Tree struct {
	mounts        map[string]*Node
	legacyBlocked map[string]bool
}

// NewTree constructs an empty tree.
func NewTree() *Tree {
	return &Tree{
		mounts:        make(map[string]*Node),
		legacyBlocked: make(map[string]bool),
	}
}

func canon(path string) string {
	return strings.Trim(path, "/")
}

// Mount binds path to node, overwriting any prior binding.
func (t *Tree) Mount(path string, node *Node) {
	t.mounts[canon(path)] = node
}

// MountShard mounts one node per shard at its canonical path. When the
// layout allows legacy aliasing, the historical single-node paths are
// mounted to the same nodes; otherwise they are recorded as explicitly
// blocked so Resolve can report the offending path rather than a bare
// ENOENT.
func (t *Tree) MountShard(layout ShardLayout, suffix string, factory func(shard int) *Node) {
	for i, p := range layout.ShardPaths(suffix) {
		t.Mount(p, factory(i))
	}

	if layout.AllowLegacyAlias {
		for i, p := range layout.LegacyAliasPaths(suffix) {
			t.Mount(p, factory(i))
		}
		return
	}

	for _, p := range layout.LegacyAliasPaths(suffix) {
		t.legacyBlocked[canon(p)] = true
	}
}

// Resolve walks canonical segments of path against the mount table.
// Trailing slashes are accepted (Trim absorbs them); ".." segments are
// rejected as traversal outside the mount root.
func (t *Tree) Resolve(path string) (*Node, error) {
	c := canon(path)

	for _, seg := range strings.Split(c, "/") {
		if seg == ".." {
			return nil, ErrNotFound
		}
	}

	if t.legacyBlocked[c] {
		return nil, &ShardAliasError{Path: path}
	}

	n, ok := t.mounts[c]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

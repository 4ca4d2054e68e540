package namespace

import "fmt"

// ErrNotFound is returned when a path resolves to nothing in the mount
// table, or a segment attempts to traverse outside the mount root.
var ErrNotFound = fmt.Errorf("ENOENT")

// AccessError is EACCES with a reason distinguishing a role mismatch from
// an attempt to write a node that accepts no writers at all.
type AccessError struct {
	Reason string // "UNAUTHORIZED" or "READ_ONLY"
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("EACCES: %s", e.Reason)
}

// ShardAliasError is returned when a legacy single-node worker path is
// resolved while the mount's ShardLayout has legacy aliasing disabled.
// Path carries the offending path verbatim so callers can surface it.
type ShardAliasError struct {
	Path string
}

func (e *ShardAliasError) Error() string {
	return fmt.Sprintf("legacy alias rejected: %s", e.Path)
}

// StaleError is returned by AppendOnlyReadBounds when offset precedes
// the available window.
type StaleError struct {
	Requested      uint64
	AvailableStart uint64
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("stale read: requested=%d available_start=%d", e.Requested, e.AvailableStart)
}

// InvalidWriteError is returned by AppendOnlyWriteBounds when the
// caller's claimed offset does not match the file's logical end.
type InvalidWriteError struct {
	Provided uint64
	Expected uint64
}

func (e *InvalidWriteError) Error() string {
	return fmt.Sprintf("invalid write offset: provided=%d expected=%d", e.Provided, e.Expected)
}

package namespace

// ReadBounds is the resolved extent of an append-only read: the number of
// bytes actually available starting at Offset, and whether that count
// fell short of the requested length.
type ReadBounds struct {
	Len   uint32
	Short bool
}

// AppendOnlyReadBounds implements the §3/§8 offset math for a file whose
// logical content spans [availableStart, availableEnd). A read starting
// before availableStart is Stale; one extending past availableEnd clamps
// to a short read rather than failing.
func AppendOnlyReadBounds(availableStart, availableEnd, offset uint64, length uint32) (ReadBounds, error) {
	if offset < availableStart {
		return ReadBounds{}, &StaleError{Requested: offset, AvailableStart: availableStart}
	}

	var remaining uint64
	if offset < availableEnd {
		remaining = availableEnd - offset
	}

	n := uint64(length)
	short := false
	if n > remaining {
		n = remaining
		short = true
	}
	return ReadBounds{Len: uint32(n), Short: short}, nil
}

// WriteBounds is the resolved extent of an append-only write.
type WriteBounds struct {
	Count uint32
	Short bool
}

// AppendOnlyWriteBounds requires the caller's claimed offset to equal the
// file's current logical end; a mismatch is OffsetInvalid. capacity is
// the most the backing store can actually accept in this call (e.g. a
// buffer limit); a requestedLen exceeding it clamps with Short set.
func AppendOnlyWriteBounds(expected, provided uint64, requestedLen, capacity uint32) (WriteBounds, error) {
	if provided != expected {
		return WriteBounds{}, &InvalidWriteError{Provided: provided, Expected: expected}
	}

	n := requestedLen
	short := false
	if capacity < requestedLen {
		n = capacity
		short = true
	}
	return WriteBounds{Count: n, Short: short}, nil
}

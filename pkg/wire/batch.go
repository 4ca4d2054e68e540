package wire

// BatchIter walks a buffer containing zero or more concatenated request
// frames, yielding each in turn and stopping at the first decode error
// (which is surfaced once, from Err, rather than repeated on every
// subsequent call to Next).
type BatchIter struct {
	buf   []byte
	limit uint32
	err   error
	done  bool
}

// NewBatchIter constructs an iterator bounded by MAX_MSIZE.
func NewBatchIter(buf []byte) *BatchIter {
	return NewBatchIterLimit(buf, MAX_MSIZE)
}

// NewBatchIterLimit constructs an iterator with an explicit per-frame size
// limit, used by tests that probe the FrameTooLarge boundary.
func NewBatchIterLimit(buf []byte, limit uint32) *BatchIter {
	return &BatchIter{buf: buf, limit: limit}
}

// Next returns the next frame's Request, or (nil, false) once the buffer
// is exhausted or a decode error has been recorded. Call Err after Next
// returns false to distinguish clean exhaustion from failure.
func (it *BatchIter) Next() (*Request, bool) {
	if it.done || it.err != nil {
		return nil, false
	}
	if len(it.buf) == 0 {
		it.done = true
		return nil, false
	}

	req, rest, err := Codec{}.DecodeRequest(it.buf, it.limit)
	if err != nil {
		it.err = err
		return nil, false
	}

	it.buf = rest
	return req, true
}

// Err returns the first decode error encountered, if any.
func (it *BatchIter) Err() error {
	return it.err
}

// Collect drains the iterator into a slice, returning the first error
// encountered (if any) alongside whatever frames decoded successfully.
func (it *BatchIter) Collect() ([]*Request, error) {
	var reqs []*Request
	for {
		req, ok := it.Next()
		if !ok {
			break
		}
		reqs = append(reqs, req)
	}
	return reqs, it.Err()
}

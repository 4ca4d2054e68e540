// Package trace implements the hash-chained, append-only trace log of
// docs/SECURE9P.md §4.F: a recorder-shaped pair of request/response
// frames plus rendered ACK lines, sealed under a size policy with a
// trailing cryptographic digest, and a replay transport that re-emits
// recorded responses to a byte-identical request stream.
package trace

import "github.com/google/uuid"

// TraceFrame pairs one outbound request's canonical encoded bytes with
// its inbound response's canonical encoded bytes.
type TraceFrame struct {
	Request  []byte
	Response []byte
}

// TracePolicy bounds a sealed trace payload. A zero field means
// unbounded for that dimension.
type TracePolicy struct {
	MaxBytes int
	MaxFrame int
	MaxLine  int
}

// TraceLog is the ordered capture: frame pairs plus the ACK lines
// rendered alongside them. CaptureID correlates a live capture across
// log lines and spans; it is never sealed into the Encode payload, so
// it has no bearing on the digest or on Decode's tamper check.
type TraceLog struct {
	CaptureID string
	Frames    []TraceFrame
	Acks      []string
}

// NewCapture starts an empty TraceLog stamped with a fresh capture id.
func NewCapture() TraceLog {
	return TraceLog{CaptureID: uuid.NewString()}
}

package trace

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// digestSize is the trailer length: a BLAKE2b-256 sum.
const digestSize = 32

func appendBytes(buf []byte, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// Encode seals log under policy into a payload: a header of the policy
// thresholds, every frame and ack length-prefixed in order, and a
// trailing BLAKE2b-256 digest over everything preceding it. A frame or
// line exceeding the policy's own bounds fails with PolicyTooLarge
// before any bytes are hashed.
func Encode(log TraceLog, policy TracePolicy) ([]byte, error) {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, uint32(policy.MaxBytes))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(policy.MaxFrame))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(policy.MaxLine))

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(log.Frames)))
	for _, f := range log.Frames {
		if policy.MaxFrame > 0 && (len(f.Request) > policy.MaxFrame || len(f.Response) > policy.MaxFrame) {
			return nil, policyTooLarge("frame exceeds max_frame")
		}
		buf = appendBytes(buf, f.Request)
		buf = appendBytes(buf, f.Response)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(log.Acks)))
	for _, a := range log.Acks {
		if policy.MaxLine > 0 && len(a) > policy.MaxLine {
			return nil, policyTooLarge("ack line exceeds max_line")
		}
		buf = appendBytes(buf, []byte(a))
	}

	if policy.MaxBytes > 0 && len(buf) > policy.MaxBytes {
		return nil, policyTooLarge("payload exceeds max_bytes")
	}

	digest := blake2b.Sum256(buf)
	return append(buf, digest[:]...), nil
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) u32() (uint32, error) {
	if len(r.buf)-r.pos < 4 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if len(r.buf)-r.pos < int(n) {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

// Decode verifies the digest and policy compatibility of payload and
// reconstructs the TraceLog. HashMismatch covers any mutation of the
// sealed bytes (§8 invariant 5); PolicyTooLarge covers a payload sealed
// under a looser policy than the decoder's; Truncated covers a payload
// too short to contain even its own header or trailer.
func Decode(payload []byte, policy TracePolicy) (TraceLog, error) {
	if len(payload) < digestSize+12 {
		return TraceLog{}, ErrTruncated
	}

	body := payload[:len(payload)-digestSize]
	trailer := payload[len(payload)-digestSize:]

	computed := blake2b.Sum256(body)
	if !constantTimeEqual(computed[:], trailer) {
		return TraceLog{}, ErrHashMismatch
	}

	r := &reader{buf: body}

	_, err := r.u32() // sealed max_bytes, informational only
	if err != nil {
		return TraceLog{}, err
	}
	sealedMaxFrame, err := r.u32()
	if err != nil {
		return TraceLog{}, err
	}
	sealedMaxLine, err := r.u32()
	if err != nil {
		return TraceLog{}, err
	}

	if policy.MaxFrame > 0 && (sealedMaxFrame == 0 || int(sealedMaxFrame) > policy.MaxFrame) {
		return TraceLog{}, policyTooLarge("sealed max_frame exceeds decoder policy")
	}
	if policy.MaxLine > 0 && (sealedMaxLine == 0 || int(sealedMaxLine) > policy.MaxLine) {
		return TraceLog{}, policyTooLarge("sealed max_line exceeds decoder policy")
	}

	frameCount, err := r.u32()
	if err != nil {
		return TraceLog{}, err
	}

	var frames []TraceFrame
	for i := uint32(0); i < frameCount; i++ {
		req, err := r.bytes()
		if err != nil {
			return TraceLog{}, err
		}
		resp, err := r.bytes()
		if err != nil {
			return TraceLog{}, err
		}
		frames = append(frames, TraceFrame{
			Request:  append([]byte(nil), req...),
			Response: append([]byte(nil), resp...),
		})
	}

	ackCount, err := r.u32()
	if err != nil {
		return TraceLog{}, err
	}

	var acks []string
	for i := uint32(0); i < ackCount; i++ {
		b, err := r.bytes()
		if err != nil {
			return TraceLog{}, err
		}
		acks = append(acks, string(b))
	}

	return TraceLog{Frames: frames, Acks: acks}, nil
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

package trace

import (
	"context"
	"fmt"
	"strings"

	"github.com/cohesix/coh/internal/session"
	"github.com/cohesix/coh/internal/transport"
	"github.com/cohesix/coh/pkg/wire"
)

// TraceReplayTransport drives transport.Transport calls against a
// recorded TraceLog instead of a live connection: each call must
// encode to the exact bytes of the next recorded frame's request, and
// the frame's response bytes are decoded and returned in its place. A
// mismatch or an exhausted log is a DesyncError, never a retry.
type TraceReplayTransport struct {
	frames []TraceFrame
	next   int

	codec   wire.Codec
	nextTag uint16
}

// NewReplayTransport builds a transport that replays log in order.
func NewReplayTransport(log TraceLog) *TraceReplayTransport {
	return &TraceReplayTransport{frames: log.Frames}
}

func (t *TraceReplayTransport) Kind() string { return "replay" }

func (t *TraceReplayTransport) roundTrip(req *wire.Request) (*wire.Response, error) {
	tag := t.nextTag
	t.nextTag++
	if req.Version == nil {
		req.Tag = tag
	}

	encoded, err := t.codec.EncodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("replay: encode request: %w", err)
	}

	if t.next >= len(t.frames) {
		return nil, &DesyncError{Index: t.next}
	}
	frame := t.frames[t.next]
	if !bytesEqual(encoded, frame.Request) {
		return nil, &DesyncError{Index: t.next}
	}

	resp, _, err := t.codec.DecodeResponse(frame.Response, wire.MAX_MSIZE)
	if err != nil {
		return nil, fmt.Errorf("replay: decode response at frame %d: %w", t.next, err)
	}
	t.next++

	if resp.Error != nil {
		return nil, fmt.Errorf("%s", resp.Error.Ename)
	}
	return resp, nil
}

func (t *TraceReplayTransport) Attach(ctx context.Context, role session.Role, ticket string) (transport.SessionHandle, error) {
	verResp, err := t.roundTrip(&wire.Request{
		Tag:     wire.NOTAG,
		Version: &wire.VersionBody{Msize: wire.MAX_MSIZE, Version: wire.VERSION},
	})
	if err != nil {
		return transport.SessionHandle{}, err
	}
	_ = verResp

	resp, err := t.roundTrip(&wire.Request{
		Attach: &wire.AttachBody{Fid: 0, Uname: strings.ToLower(role.String()), Aname: ticket},
	})
	if err != nil {
		return transport.SessionHandle{}, err
	}
	return transport.SessionHandle{ID: uint64(resp.Attach.Session), Role: role}, nil
}

func (t *TraceReplayTransport) Ping(ctx context.Context, sess transport.SessionHandle) (string, error) {
	return fmt.Sprintf("attached as %s via %s", sess.Role, t.Kind()), nil
}

func (t *TraceReplayTransport) bindPath(path string) (uint32, error) {
	fid := transport.PathFid(path)
	_, err := t.roundTrip(&wire.Request{
		Attach: &wire.AttachBody{Fid: fid, Aname: path},
	})
	if err != nil {
		return 0, err
	}
	return fid, nil
}

func (t *TraceReplayTransport) Tail(ctx context.Context, sess transport.SessionHandle, path string) ([]string, error) {
	fid, err := t.bindPath(path)
	if err != nil {
		return nil, err
	}
	resp, err := t.roundTrip(&wire.Request{
		Read: &wire.ReadBody{Fid: fid, Offset: 0, Count: wire.MAX_MSIZE},
	})
	if err != nil {
		return nil, err
	}
	text := strings.TrimRight(string(resp.Read.Data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (t *TraceReplayTransport) Write(ctx context.Context, sess transport.SessionHandle, path string, payload []byte) (int, error) {
	fid, err := t.bindPath(path)
	if err != nil {
		return 0, err
	}
	resp, err := t.roundTrip(&wire.Request{
		Write: &wire.WriteBody{Fid: fid, Offset: 0, Data: payload},
	})
	if err != nil {
		return 0, err
	}
	return int(resp.Write.Count), nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

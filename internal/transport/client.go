package transport

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cohesix/coh/internal/session"
	"github.com/cohesix/coh/pkg/wire"
)

// wireClient is the client-side half of the Secure9P exchange, shared by
// the TCP and in-process backends: both just supply a different
// net.Conn-shaped byte channel and kind string.
type wireClient struct {
	mu     sync.Mutex
	conn   wireConn
	reader *bufio.Reader
	kind   string

	codec   wire.Codec
	nextTag uint16
	msize   uint32
}

// wireConn is the subset of net.Conn a wireClient needs; net.Pipe's
// in-memory conns and real TCP conns both satisfy it.
type wireConn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
}

func newWireClient(conn wireConn, kind string) *wireClient {
	return &wireClient{conn: conn, reader: bufio.NewReader(conn), kind: kind, msize: wire.MAX_MSIZE}
}

func (c *wireClient) roundTrip(req *wire.Request) (*wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tag := c.nextTag
	c.nextTag++
	if req.Version == nil {
		req.Tag = tag
	}

	frame, err := c.codec.EncodeRequest(req)
	if err != nil {
		return nil, fatalErr("EncodeError", err.Error())
	}
	if _, err := c.conn.Write(frame); err != nil {
		return nil, recoverableErr("WriteError", err.Error())
	}

	// A TCP response can arrive split across multiple segments, so this
	// reassembles by the same length-prefixed framing readFrame uses on
	// the server side rather than trusting a single conn.Read to return
	// one whole frame.
	respFrame, err := readFrame(c.reader, c.msize)
	if err != nil {
		return nil, recoverableErr("ReadError", err.Error())
	}

	resp, _, err := c.codec.DecodeResponse(respFrame, c.msize)
	if err != nil {
		return nil, fatalErr("DecodeError", err.Error())
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s", resp.Error.Ename)
	}
	return resp, nil
}

func (c *wireClient) negotiateVersion() error {
	resp, err := c.roundTrip(&wire.Request{
		Tag:     wire.NOTAG,
		Version: &wire.VersionBody{Msize: wire.MAX_MSIZE, Version: wire.VERSION},
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.msize = resp.Version.Msize
	c.mu.Unlock()
	return nil
}

func (c *wireClient) attach(role session.Role, ticket string) (SessionHandle, error) {
	if err := c.negotiateVersion(); err != nil {
		return SessionHandle{}, err
	}

	resp, err := c.roundTrip(&wire.Request{
		Attach: &wire.AttachBody{Fid: rootFid, Uname: roleUname(role), Aname: ticket},
	})
	if err != nil {
		return SessionHandle{}, err
	}
	return SessionHandle{ID: uint64(resp.Attach.Session), Role: role}, nil
}

func (c *wireClient) bindPath(path string) (uint32, error) {
	fid := PathFid(path)
	_, err := c.roundTrip(&wire.Request{
		Attach: &wire.AttachBody{Fid: fid, Aname: path},
	})
	if err != nil {
		return 0, err
	}
	return fid, nil
}

func (c *wireClient) tail(path string) ([]string, error) {
	fid, err := c.bindPath(path)
	if err != nil {
		return nil, err
	}

	resp, err := c.roundTrip(&wire.Request{
		Read: &wire.ReadBody{Fid: fid, Offset: 0, Count: c.msize},
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

func (c *wireClient) write(path string, payload []byte) (int, error) {
	fid, err := c.bindPath(path)
	if err != nil {
		return 0, err
	}
	resp, err := c.roundTrip(&wire.Request{
		Write: &wire.WriteBody{Fid: fid, Offset: 0, Data: payload},
	})
	if err != nil {
		return 0, err
	}
	return int(resp.Write.Count), nil
}

func roleUname(role session.Role) string {
	return strings.ToLower(role.String())
}

package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"sync"
	"time"

	"github.com/cohesix/coh/internal/namespace"
	"github.com/cohesix/coh/internal/session"
	"github.com/cohesix/coh/pkg/cohlog"
	"github.com/cohesix/coh/pkg/wire"
)

// rootFid is the fid implicitly bound to the session's own attach (no
// path), reserved the way 9P reserves NOFID for "no prior fid".
const rootFid uint32 = 0

// Server is the Secure9P wire-level dispatcher shared by the TCP and
// in-process transport backends, generalized from ron.Server's
// accept-loop-plus-per-client-handler shape (internal/ron/server.go:
// clients map[string]*client, clientLock sync.Mutex, one goroutine per
// connection) down to one handler loop per net.Conn, keyed by the
// session table rather than a client map.
type Server struct {
	Table      *session.Table
	Tree       *namespace.Tree
	Inventory  session.TicketInventory
	Timeout    time.Duration
	WritePolicy session.ShortWritePolicy
}

// PathFid hashes a path into a deterministic per-connection fid the way
// a 9P client would ordinarily mint its own fid numbers; since a server
// only ever sees fids assigned via this hash, collisions are accepted as
// out of scope for a reference implementation. Exported so other
// clients of the wire protocol (internal/trace's replay transport) mint
// fids the same way the live clients in this package do.
func PathFid(path string) uint32 {
	h := fnv.New32a()
	_, _ = io.WriteString(h, path)
	return h.Sum32() | 1 // avoid colliding with rootFid (0)
}

// connState is the per-connection state: the session it owns and the fid ->
// path bindings established by attach-with-aname.
type connState struct {
	mu   sync.Mutex
	sess *session.Session
	fids map[uint32]string
}

// ListenAndServe runs an accept loop on l, spawning one ServeConn
// goroutine per connection until l is closed.
func (srv *Server) ListenAndServe(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go srv.ServeConn(conn, false)
	}
}

// sweepGranularity is how often a connection's own session is checked for
// inactivity against its manifest-driven timeout.
const sweepGranularity = time.Second

// ServeConn runs the request/response loop for one connection. loopback
// marks the connection as eligible for ticket-less queen attach.
func (srv *Server) ServeConn(conn io.ReadWriteCloser, loopback bool) {
	defer conn.Close()

	sess := srv.Table.New(time.Now(), srv.Timeout, srv.WritePolicy)
	cs := &connState{sess: sess, fids: map[uint32]string{rootFid: ""}}
	defer srv.Table.Remove(sess.ID())

	stopSweep := make(chan struct{})
	defer close(stopSweep)
	if srv.Timeout > 0 {
		go sweepInactivity(sess, conn, stopSweep)
	}

	reader := bufio.NewReader(conn)
	codec := wire.Codec{}

	for {
		frame, err := readFrame(reader, wire.MAX_MSIZE)
		if err != nil {
			if err != io.EOF {
				cohlog.Debug("session %d: read error: %v", sess.ID(), err)
			}
			break
		}

		req, _, err := codec.DecodeRequest(frame, wire.MAX_MSIZE)
		if err != nil {
			cohlog.Debug("session %d: decode error: %v", sess.ID(), err)
			break
		}

		sess.Touch(time.Now())

		// §4.B: every request reserves its tag before dispatch and
		// releases it exactly once, regardless of outcome. A reservation
		// failure (duplicate tag, window exhausted) is answered without
		// ever reaching dispatch.
		if err := sess.Tags().Reserve(req.Tag); err != nil {
			out, encErr := codec.EncodeResponse(errorResponse(req.Tag, err))
			if encErr == nil {
				conn.Write(out)
			}
			continue
		}

		resp := srv.dispatch(cs, loopback, req)
		sess.Tags().Release(req.Tag)

		out, err := codec.EncodeResponse(resp)
		if err != nil {
			cohlog.Error("session %d: encode error: %v", sess.ID(), err)
			break
		}
		if _, err := conn.Write(out); err != nil {
			cohlog.Debug("session %d: write error: %v", sess.ID(), err)
			break
		}
	}

	// The read loop only ever breaks between a Release and the next
	// Reserve, so the tag window is already drained by the time Closing
	// begins: ReadyToClose is guaranteed true without a wait.
	sess.BeginClosing(io.EOF)
	if err := sess.Close(); err != nil && err != io.EOF {
		cohlog.Debug("session %d: closed: %v", sess.ID(), err)
	}
}

// sweepInactivity polls sess for the manifest-driven inactivity timeout and
// closes conn once it fires, unblocking ServeConn's read loop so the
// Attached -> Closing -> Closed teardown in ServeConn runs. Intended to run
// one per connection, the per-session analogue of Table.Sweep's
// across-the-table scan.
func sweepInactivity(sess *session.Session, conn io.Closer, stop <-chan struct{}) {
	ticker := time.NewTicker(sweepGranularity)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if sess.CheckInactivity(now) {
				conn.Close()
				return
			}
		}
	}
}

func (srv *Server) dispatch(cs *connState, loopback bool, req *wire.Request) *wire.Response {
	switch {
	case req.Version != nil:
		negotiated, err := cs.sess.NegotiateVersion(req.Version.Msize)
		if err != nil {
			return errorResponse(req.Tag, err)
		}
		return &wire.Response{Tag: req.Tag, Version: &wire.VersionBody{Msize: negotiated, Version: wire.VERSION}}

	case req.Attach != nil:
		return srv.dispatchAttach(cs, loopback, req)

	case req.Read != nil:
		return srv.dispatchRead(cs, req)

	case req.Write != nil:
		return srv.dispatchWrite(cs, req)

	default:
		return errorResponse(req.Tag, fmt.Errorf("unsupported request"))
	}
}

func (srv *Server) dispatchAttach(cs *connState, loopback bool, req *wire.Request) *wire.Response {
	a := req.Attach

	if a.Fid == rootFid {
		role, err := session.ParseRole(a.Uname)
		if err != nil {
			return errorResponse(req.Tag, err)
		}
		if err := cs.sess.Attach(role, a.Aname, srv.Inventory, loopback); err != nil {
			return errorResponse(req.Tag, err)
		}
		return &wire.Response{Tag: req.Tag, Attach: &wire.RattachBody{Session: cs.sess.ID()}}
	}

	if cs.sess.State() != session.StateAttached {
		return errorResponse(req.Tag, session.ErrNotAttached)
	}

	node, err := srv.Tree.Resolve(a.Aname)
	if err != nil {
		return errorResponse(req.Tag, err)
	}
	if err := node.CheckRead(cs.sess.Role()); err != nil {
		return errorResponse(req.Tag, err)
	}

	cs.mu.Lock()
	cs.fids[a.Fid] = a.Aname
	cs.mu.Unlock()

	return &wire.Response{Tag: req.Tag, Attach: &wire.RattachBody{Session: cs.sess.ID()}}
}

func (srv *Server) dispatchRead(cs *connState, req *wire.Request) *wire.Response {
	r := req.Read

	if cs.sess.State() != session.StateAttached {
		return errorResponse(req.Tag, session.ErrNotAttached)
	}

	cs.mu.Lock()
	path, ok := cs.fids[r.Fid]
	cs.mu.Unlock()
	if !ok {
		return errorResponse(req.Tag, fmt.Errorf("unknown fid"))
	}

	node, err := srv.Tree.Resolve(path)
	if err != nil {
		return errorResponse(req.Tag, err)
	}
	if err := node.CheckRead(cs.sess.Role()); err != nil {
		return errorResponse(req.Tag, err)
	}

	var content []byte
	switch {
	case node.Sample != nil:
		content = []byte(node.Sample().Render())
	case node.Read != nil:
		content = node.Read()
	}

	bounds, err := namespace.AppendOnlyReadBounds(0, uint64(len(content)), r.Offset, r.Count)
	if err != nil {
		return errorResponse(req.Tag, err)
	}

	end := r.Offset + uint64(bounds.Len)
	if end > uint64(len(content)) {
		end = uint64(len(content))
	}
	var data []byte
	if r.Offset < uint64(len(content)) {
		data = content[r.Offset:end]
	}

	return &wire.Response{Tag: req.Tag, Read: &wire.RreadBody{Data: data}}
}

func (srv *Server) dispatchWrite(cs *connState, req *wire.Request) *wire.Response {
	w := req.Write

	if cs.sess.State() != session.StateAttached {
		return errorResponse(req.Tag, session.ErrNotAttached)
	}

	cs.mu.Lock()
	path, ok := cs.fids[w.Fid]
	cs.mu.Unlock()
	if !ok {
		return errorResponse(req.Tag, fmt.Errorf("unknown fid"))
	}

	node, err := srv.Tree.Resolve(path)
	if err != nil {
		return errorResponse(req.Tag, err)
	}
	if err := node.CheckWrite(cs.sess.Role()); err != nil {
		return errorResponse(req.Tag, err)
	}
	if node.Write == nil {
		return errorResponse(req.Tag, fmt.Errorf("node does not accept writes"))
	}

	if err := node.Write(w.Data); err != nil {
		return errorResponse(req.Tag, err)
	}
	return &wire.Response{Tag: req.Tag, Write: &wire.RwriteBody{Count: uint32(len(w.Data))}}
}

func errorResponse(tag uint16, err error) *wire.Response {
	return &wire.Response{Tag: tag, Error: &wire.RerrorBody{Ename: err.Error()}}
}

// readFrame reads one length-prefixed frame off r, enforcing limit on
// the declared size before trusting it enough to allocate.
func readFrame(r *bufio.Reader, limit uint32) ([]byte, error) {
	head, err := r.Peek(4)
	if err != nil {
		return nil, err
	}
	total := binary.LittleEndian.Uint32(head)
	if total > limit {
		return nil, wire.ErrFrameTooLarge(total, limit)
	}

	frame := make([]byte, total)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// Package transport implements the byte-oriented contract of
// docs/SECURE9P.md §4.G/§9: a small interface polymorphic over
// {attach, ping, tail, write, kind}, with TCP, in-process, mock, and
// (in internal/trace) replay backends. All backends other than mock are
// byte-exact with pkg/wire's framing.
package transport

import (
	"context"

	"github.com/cohesix/coh/internal/session"
)

// SessionHandle is what a Transport hands back from Attach: enough for
// the caller to address subsequent Tail/Write calls without the
// transport needing to expose its internal wire.SessionId type.
type SessionHandle struct {
	ID   uint64
	Role session.Role
}

// Transport is the capability set every backend implements.
type Transport interface {
	Attach(ctx context.Context, role session.Role, ticket string) (SessionHandle, error)
	Ping(ctx context.Context, sess SessionHandle) (string, error)
	Tail(ctx context.Context, sess SessionHandle, path string) ([]string, error)
	// Write returns the number of leading bytes of payload the backend
	// actually accepted; a count short of len(payload) is a short write
	// and the caller is responsible for re-issuing the unwritten suffix
	// per §4.B's ShortWritePolicy.
	Write(ctx context.Context, sess SessionHandle, path string, payload []byte) (int, error)
	Kind() string
}

// ErrorClass distinguishes transport failures that are worth retrying
// from ones that should tear the session down.
type ErrorClass int

const (
	Recoverable ErrorClass = iota
	FatalError
)

// TransportError classifies a transport-level failure per §7.
type TransportError struct {
	Class  ErrorClass
	Kind   string
	Detail string
}

func (e *TransportError) Error() string {
	return e.Kind + ": " + e.Detail
}

func recoverableErr(kind, detail string) *TransportError {
	return &TransportError{Class: Recoverable, Kind: kind, Detail: detail}
}

func fatalErr(kind, detail string) *TransportError {
	return &TransportError{Class: FatalError, Kind: kind, Detail: detail}
}

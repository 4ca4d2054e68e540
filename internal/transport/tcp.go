package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/cohesix/coh/internal/session"
)

// DefaultTCPPort is COHSH_TCP_PORT's compiled-in default.
const DefaultTCPPort = 5640

// TCPTransport dials a Secure9P server over TCP. Grounded on
// pkg/miniclient.Dial's hand-rolled `backoff *= 2` retry loop
// (internal/miniclient/client.go), replaced here with
// cenkalti/backoff/v5's Retry helper, which is a better fit once the
// loop needs jitter and a bounded attempt count rather than a fixed
// doubling sequence.
type TCPTransport struct {
	client *wireClient
}

// DialTCP connects to addr, retrying transient dial failures with
// exponential backoff.
func DialTCP(ctx context.Context, addr string) (*TCPTransport, error) {
	conn, err := backoff.Retry(ctx, func() (net.Conn, error) {
		c, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(5))
	if err != nil {
		return nil, fatalErr("DialFailed", err.Error())
	}

	return &TCPTransport{client: newWireClient(conn, "tcp")}, nil
}

func (t *TCPTransport) Attach(ctx context.Context, role session.Role, ticket string) (SessionHandle, error) {
	return t.client.attach(role, ticket)
}

func (t *TCPTransport) Ping(ctx context.Context, sess SessionHandle) (string, error) {
	return fmt.Sprintf("attached as %s via %s", sess.Role, t.Kind()), nil
}

func (t *TCPTransport) Tail(ctx context.Context, sess SessionHandle, path string) ([]string, error) {
	return t.client.tail(path)
}

func (t *TCPTransport) Write(ctx context.Context, sess SessionHandle, path string, payload []byte) (int, error) {
	return t.client.write(path, payload)
}

func (t *TCPTransport) Kind() string {
	return "tcp"
}

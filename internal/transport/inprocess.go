package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/cohesix/coh/internal/namespace"
	"github.com/cohesix/coh/internal/session"
)

// InProcessTransport pairs two in-memory byte streams (net.Pipe, standing
// in for the "paired mutex-backed FIFO byte streams" of §4.G) and runs a
// Server directly against one end, so the shell can attach without a
// real socket or external process.
type InProcessTransport struct {
	client *wireClient
}

// NewInProcess spins up a Server bound to tree/inventory and connects to
// it over an in-memory pipe. loopback is always true: there is no
// network boundary to cross.
func NewInProcess(tree *namespace.Tree, inventory session.TicketInventory) *InProcessTransport {
	serverSide, clientSide := net.Pipe()

	srv := &Server{
		Table:       session.NewTable(session.DefaultTagWindow),
		Tree:        tree,
		Inventory:   inventory,
		Timeout:     0,
		WritePolicy: session.NewRetryPolicy(),
	}
	go srv.ServeConn(serverSide, true)

	return &InProcessTransport{client: newWireClient(clientSide, "in-process")}
}

func (t *InProcessTransport) Attach(ctx context.Context, role session.Role, ticket string) (SessionHandle, error) {
	return t.client.attach(role, ticket)
}

func (t *InProcessTransport) Ping(ctx context.Context, sess SessionHandle) (string, error) {
	return fmt.Sprintf("attached as %s via %s", sess.Role, t.Kind()), nil
}

func (t *InProcessTransport) Tail(ctx context.Context, sess SessionHandle, path string) ([]string, error) {
	return t.client.tail(path)
}

func (t *InProcessTransport) Write(ctx context.Context, sess SessionHandle, path string, payload []byte) (int, error) {
	return t.client.write(path, payload)
}

func (t *InProcessTransport) Kind() string {
	return "in-process"
}

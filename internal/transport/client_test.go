package transport

import (
	"bufio"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cohesix/coh/pkg/wire"
)

// TestRoundTripReassemblesSplitResponseFrame proves wireClient.roundTrip
// no longer trusts a single conn.Read to return one whole frame: a
// response written across two separate segments (as a real TCP socket
// may deliver it) must still decode cleanly instead of surfacing a
// spurious ShortRead.
func TestRoundTripReassemblesSplitResponseFrame(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	codec := wire.Codec{}
	full, err := codec.EncodeResponse(&wire.Response{
		Tag:     0,
		Version: &wire.VersionBody{Msize: wire.MAX_MSIZE, Version: wire.VERSION},
	})
	require.NoError(t, err)
	require.Greater(t, len(full), 8)

	go func() {
		reader := bufio.NewReader(serverConn)
		if _, err := readFrame(reader, wire.MAX_MSIZE); err != nil {
			return
		}

		split := len(full) / 2
		serverConn.Write(full[:split])
		serverConn.Write(full[split:])
	}()

	c := newWireClient(clientConn, "test")
	resp, err := c.roundTrip(&wire.Request{
		Version: &wire.VersionBody{Msize: wire.MAX_MSIZE, Version: wire.VERSION},
	})
	require.NoError(t, err)
	require.Equal(t, wire.VERSION, resp.Version.Version)
}

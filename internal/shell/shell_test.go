package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/cohesix/coh/internal/console"
	"github.com/cohesix/coh/internal/metrics"
	"github.com/cohesix/coh/internal/session"
	"github.com/cohesix/coh/internal/transport"
)

func newTestShell(tr transport.Transport) (*Shell, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, tr, "ctl/queen", nil), &buf
}

func TestPingWhileDetached(t *testing.T) {
	sh, buf := newTestShell(&transport.MockTransport{})
	err := sh.Execute(context.Background(), "ping")
	require.NoError(t, err)
	require.Equal(t, "ERR PING reason=not-attached\n", buf.String())
}

func TestAttachThenPing(t *testing.T) {
	sh, buf := newTestShell(&transport.MockTransport{})

	require.NoError(t, sh.Execute(context.Background(), "attach queen"))
	require.Contains(t, buf.String(), "OK ATTACH role=queen")
	buf.Reset()

	require.NoError(t, sh.Execute(context.Background(), "ping"))
	require.Equal(t, "OK PING attached as Queen via mock\n", buf.String())
}

func TestAttachFailurePreservesDetachedPrompt(t *testing.T) {
	sh, buf := newTestShell(&transport.MockTransport{})

	err := sh.Execute(context.Background(), "attach not-a-role")
	require.NoError(t, err)
	require.Equal(t, "ERR ATTACH reason=unauthenticated\n", buf.String())
	require.False(t, sh.Attached())
}

func TestTailStreamsLinesThenEnd(t *testing.T) {
	tr := &transport.MockTransport{
		TailFunc: func(sess transport.SessionHandle, path string) ([]string, error) {
			return []string{"line one", "line two"}, nil
		},
	}
	sh, buf := newTestShell(tr)
	require.NoError(t, sh.Execute(context.Background(), "attach queen"))
	buf.Reset()

	require.NoError(t, sh.Execute(context.Background(), "tail /log/queen.log"))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"OK TAIL path=/log/queen.log",
		"line one",
		"line two",
		"END",
	}, lines)
}

func TestEchoWritesAppendedLine(t *testing.T) {
	var gotPath string
	var gotPayload []byte
	tr := &transport.MockTransport{
		WriteFunc: func(sess transport.SessionHandle, path string, payload []byte) (int, error) {
			gotPath = path
			gotPayload = payload
			return len(payload), nil
		},
	}
	sh, buf := newTestShell(tr)
	require.NoError(t, sh.Execute(context.Background(), "attach queen"))
	buf.Reset()

	require.NoError(t, sh.Execute(context.Background(), "echo hello world > /log/queen.log"))
	require.Equal(t, "/log/queen.log", gotPath)
	require.Equal(t, "hello world\n", string(gotPayload))
	require.Equal(t, "OK ECHO path=/log/queen.log\n", buf.String())
}

func TestSpawnPostsJSONToQueenCtlPath(t *testing.T) {
	var gotPath string
	var gotPayload []byte
	tr := &transport.MockTransport{
		WriteFunc: func(sess transport.SessionHandle, path string, payload []byte) (int, error) {
			gotPath = path
			gotPayload = payload
			return len(payload), nil
		},
	}
	sh, buf := newTestShell(tr)
	require.NoError(t, sh.Execute(context.Background(), "attach queen"))
	buf.Reset()

	require.NoError(t, sh.Execute(context.Background(), "spawn gpu batch=4"))
	require.Equal(t, "ctl/queen", gotPath)
	require.Contains(t, string(gotPayload), `"op":"spawn"`)
	require.Contains(t, string(gotPayload), `"role":"gpu"`)
	require.Contains(t, string(gotPayload), `"batch":"4"`)
	require.Equal(t, "OK SPAWN role=gpu\n", buf.String())
}

func TestInvalidVerbReportsInvalidVerb(t *testing.T) {
	sh, buf := newTestShell(&transport.MockTransport{})
	require.NoError(t, sh.Execute(context.Background(), "frobnicate"))
	require.Equal(t, "ERR FROBNICATE reason=invalid-verb\n", buf.String())
}

func TestQuitReturnsErrQuit(t *testing.T) {
	sh, _ := newTestShell(&transport.MockTransport{})
	err := sh.Execute(context.Background(), "quit")
	require.ErrorIs(t, err, ErrQuit)
}

var errWriteFailed = errors.New("write failed")

func TestRunScriptReachesEveryLineSinceAcksAreNeverFatal(t *testing.T) {
	tr := &transport.MockTransport{
		WriteFunc: func(sess transport.SessionHandle, path string, payload []byte) (int, error) {
			return 0, errWriteFailed
		},
	}
	sh, buf := newTestShell(tr)
	script := "attach queen\necho hi > /log/queen.log\nping\n"

	err := sh.RunScript(context.Background(), strings.NewReader(script))
	require.NoError(t, err)
	out := buf.String()
	require.Contains(t, out, "OK ATTACH role=queen")
	require.Contains(t, out, "ERR ECHO reason=")
	require.Contains(t, out, "OK PING")
}

func TestEchoRetriesShortWritesThenExceeds(t *testing.T) {
	var calls int
	tr := &transport.MockTransport{
		WriteFunc: func(sess transport.SessionHandle, path string, payload []byte) (int, error) {
			calls++
			return 0, nil // never makes progress, forcing every attempt short
		},
	}
	sh, buf := newTestShell(tr)
	sh.WithWritePolicy(session.ShortWritePolicy{Mode: session.ShortWriteRetry, Base: time.Millisecond, MaxRetries: 3})
	require.NoError(t, sh.Execute(context.Background(), "attach queen"))
	buf.Reset()

	require.NoError(t, sh.Execute(context.Background(), "echo hi > /log/queen.log"))
	require.Contains(t, buf.String(), "ERR WRITE reason=short-write-exceeded")
	require.NotContains(t, buf.String(), "ECHO")
	require.Equal(t, 4, calls) // one full attempt plus MaxRetries retries
}

func TestEchoRejectPolicySurfacesShortWriteImmediately(t *testing.T) {
	tr := &transport.MockTransport{
		WriteFunc: func(sess transport.SessionHandle, path string, payload []byte) (int, error) {
			return 1, nil
		},
	}
	sh, buf := newTestShell(tr)
	sh.WithWritePolicy(session.NewRejectPolicy())
	require.NoError(t, sh.Execute(context.Background(), "attach queen"))
	buf.Reset()

	require.NoError(t, sh.Execute(context.Background(), "echo hi > /log/queen.log"))
	require.Equal(t, "ERR WRITE reason=short-write-exceeded\n", buf.String())
}

func TestRunScriptStopsAtQuit(t *testing.T) {
	sh, buf := newTestShell(&transport.MockTransport{})
	script := "attach queen\nquit\nping\n"

	err := sh.RunScript(context.Background(), strings.NewReader(script))
	require.ErrorIs(t, err, ErrQuit)
	require.NotContains(t, buf.String(), "PING")
}

func TestRateLimiterBlocksWithoutDispatch(t *testing.T) {
	tr := &transport.MockTransport{}
	var buf bytes.Buffer
	limiter := console.NewRateLimiter(0, 0, time.Unix(0, 0))
	sh := New(&buf, tr, "ctl/queen", limiter)

	require.NoError(t, sh.Execute(context.Background(), "ping"))
	require.Equal(t, "ERR PING reason=rate-limited\n", buf.String())
}

func TestColorWrapsAckStatusInEscapes(t *testing.T) {
	sh, buf := newTestShell(&transport.MockTransport{})
	sh.WithColor(true)

	require.NoError(t, sh.Execute(context.Background(), "ping"))
	require.Contains(t, buf.String(), "\x1b[")
	require.Contains(t, buf.String(), "ERR PING reason=not-attached")
}

func TestColorDisabledLeavesAckPlain(t *testing.T) {
	sh, buf := newTestShell(&transport.MockTransport{})

	require.NoError(t, sh.Execute(context.Background(), "ping"))
	require.NotContains(t, buf.String(), "\x1b[")
}

func TestMetricsTrackAttachOutcomesAndRateLimiting(t *testing.T) {
	m := metrics.New()
	var buf bytes.Buffer
	sh := New(&buf, &transport.MockTransport{}, "ctl/queen", nil).WithMetrics(m)

	require.NoError(t, sh.Attach(context.Background(), "not-a-role", ""))
	require.Equal(t, float64(1), testutil.ToFloat64(m.AttachFailure))

	require.NoError(t, sh.Attach(context.Background(), "queen", ""))
	require.Equal(t, float64(1), testutil.ToFloat64(m.LiveSessions))

	limited := New(&buf, &transport.MockTransport{}, "ctl/queen", console.NewRateLimiter(0, 0, time.Unix(0, 0))).WithMetrics(m)
	require.NoError(t, limited.Execute(context.Background(), "ping"))
	require.Equal(t, float64(1), testutil.ToFloat64(m.RateLimited))
}

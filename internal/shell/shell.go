// Package shell implements the interactive/scripted console orchestrator
// of docs/SECURE9P.md §4.E: a writer sink, a transport handle, and an
// optional attached session, driving the console grammar's verbs down
// onto the wire Attach/Read/Write operations. Generalized from
// pkg/miniclient.Conn's dial-plus-JSON-pipe shape down to a transport
// interface that may be TCP, in-process, trace-replay, or mock.
package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/cohesix/coh/internal/console"
	"github.com/cohesix/coh/internal/metrics"
	"github.com/cohesix/coh/internal/obs"
	"github.com/cohesix/coh/internal/session"
	"github.com/cohesix/coh/internal/transport"
)

// errShortWriteExceeded signals that writeWithRetry already rendered the
// ERR WRITE short-write-exceeded ack; callers must not render a second one.
var errShortWriteExceeded = errors.New("shell: short-write-exceeded")

// Prompt is the literal interactive prompt string.
const Prompt = "coh> "

// DetachedBanner is shown once on startup before any attach.
const DetachedBanner = "detached shell: run 'attach <role>' to connect"

// ErrQuit signals RunScript/an interactive loop to stop after a quit verb.
var ErrQuit = errors.New("shell: quit")

// Shell holds the sink, the transport, and the current attachment. A
// Shell with no prior successful attach is detached: every verb other
// than attach/help/log/test/quit reports not-attached rather than blocking.
type Shell struct {
	Out          io.Writer
	Transport    transport.Transport
	QueenCtlPath string
	Limiter      *console.RateLimiter
	Metrics      *metrics.Metrics
	Color        bool
	WritePolicy  session.ShortWritePolicy

	mu      sync.Mutex
	session *transport.SessionHandle
}

// New constructs a detached Shell writing to out over tr. queenCtlPath is
// the manifest-derived path spawn/kill payloads are posted to; limiter
// may be nil to disable console rate limiting. WritePolicy defaults to
// session.NewRetryPolicy(); override with WithWritePolicy.
func New(out io.Writer, tr transport.Transport, queenCtlPath string, limiter *console.RateLimiter) *Shell {
	return &Shell{Out: out, Transport: tr, QueenCtlPath: queenCtlPath, Limiter: limiter, WritePolicy: session.NewRetryPolicy()}
}

// WithWritePolicy overrides the default short-write retry policy. Returns s
// for chaining after New.
func (s *Shell) WithWritePolicy(p session.ShortWritePolicy) *Shell {
	s.WritePolicy = p
	return s
}

// WithMetrics attaches m so attach/rate-limit outcomes update its
// gauges and counters. Returns s for chaining after New.
func (s *Shell) WithMetrics(m *metrics.Metrics) *Shell {
	s.Metrics = m
	return s
}

// WithColor enables ANSI coloring of OK/ERR ACK lines. Callers decide
// enabled via an isatty check on the destination stream; a script or pipe
// consuming the shell's output should never see escape codes.
func (s *Shell) WithColor(enabled bool) *Shell {
	s.Color = enabled
	return s
}

// Attached reports whether a session is currently live.
func (s *Shell) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

func (s *Shell) current() (transport.SessionHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return transport.SessionHandle{}, false
	}
	return *s.session, true
}

func (s *Shell) ack(a console.AckLine) {
	rendered, err := console.RenderAck(a, nil)
	if err != nil {
		fmt.Fprintln(s.Out, err.Error())
		return
	}
	fmt.Fprintln(s.Out, s.colorize(a.Status, string(rendered)))
}

// colorize wraps rendered in the status's color when Color is enabled;
// EnableColor forces the escape regardless of fatih/color's own
// terminal auto-detection, since Shell.Color already captures that
// decision once at construction.
func (s *Shell) colorize(status, rendered string) string {
	if !s.Color {
		return rendered
	}
	var c *color.Color
	switch status {
	case "OK":
		c = color.New(color.FgGreen)
	case "ERR":
		c = color.New(color.FgRed)
	default:
		return rendered
	}
	c.EnableColor()
	return c.Sprint(rendered)
}

func (s *Shell) line(text string) {
	fmt.Fprintln(s.Out, text)
}

// Attach drives §4.B's attach exchange over the shell's transport. A
// failure leaves the shell detached and emits ERR ATTACH rather than
// returning an error: the prompt survives a failed attach (§8 invariant 7).
func (s *Shell) Attach(ctx context.Context, roleToken, ticket string) error {
	ctx, span := obs.StartAttach(ctx, roleToken)

	role, err := session.ParseRole(roleToken)
	if err != nil {
		obs.EndWithError(span, err)
		s.bumpAttachFailure()
		s.ack(console.AckLine{Status: "ERR", Verb: "ATTACH", Detail: "reason=unauthenticated"})
		return nil
	}

	sess, err := s.Transport.Attach(ctx, role, ticket)
	if err != nil {
		obs.EndWithError(span, err)
		s.bumpAttachFailure()
		s.ack(console.AckLine{Status: "ERR", Verb: "ATTACH", Detail: "reason=unauthenticated"})
		return nil
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()
	if s.Metrics != nil {
		s.Metrics.LiveSessions.Inc()
	}
	obs.EndWithError(span, nil)

	s.ack(console.AckLine{Status: "OK", Verb: "ATTACH", Detail: "role=" + strings.ToLower(roleToken)})
	return nil
}

func (s *Shell) bumpAttachFailure() {
	if s.Metrics != nil {
		s.Metrics.AttachFailure.Inc()
	}
}

// Execute parses, dispatches, and renders one line. Dispatch is
// synchronous: underlying transport calls may block on I/O, but Execute
// never returns before the verb's ACK has been written. A non-nil error
// is only ErrQuit; every other failure mode is an ACK line, matching
// run_script's "stop on first error unless idempotent" contract at the
// caller.
func (s *Shell) Execute(ctx context.Context, rawLine string) (dispatchErr error) {
	cmd, err := console.Parse(rawLine)
	if err != nil {
		s.ack(console.AckLine{Status: "ERR", Verb: grammarVerb(err), Detail: "reason=" + grammarReason(err)})
		return nil
	}

	if s.Limiter != nil && !s.Limiter.Allow(time.Now()) {
		if s.Metrics != nil {
			s.Metrics.RateLimited.Inc()
		}
		s.ack(console.AckLine{Status: "ERR", Verb: cmd.Verb.String(), Detail: "reason=rate-limited"})
		return nil
	}

	ctx, span := obs.StartDispatch(ctx, cmd.Verb.String())
	defer func() { obs.EndWithError(span, dispatchErr) }()

	switch cmd.Verb {
	case console.VerbHelp:
		s.execHelp()
		return nil
	case console.VerbLog:
		s.ack(console.AckLine{Status: "OK", Verb: "LOG"})
		return nil
	case console.VerbQuit:
		return ErrQuit
	case console.VerbAttach:
		return s.Attach(ctx, cmd.Attach.Role, cmd.Attach.Ticket)
	case console.VerbPing:
		return s.execPing(ctx)
	case console.VerbTail:
		return s.execTail(ctx, cmd.Tail.Path)
	case console.VerbLs:
		return s.execLs(ctx, cmd.Ls.Path)
	case console.VerbCat:
		return s.execCat(ctx, cmd.Cat.Path)
	case console.VerbEcho:
		return s.execEcho(ctx, cmd.Echo)
	case console.VerbSpawn:
		return s.execSpawn(ctx, cmd.Spawn)
	case console.VerbKill:
		return s.execKill(ctx, cmd.Kill)
	case console.VerbTest:
		return s.execTest(cmd.Test)
	default:
		s.ack(console.AckLine{Status: "ERR", Verb: "UNKNOWN", Detail: "reason=invalid-verb"})
		return nil
	}
}

func grammarVerb(err error) string {
	var cErr *console.Error
	if errors.As(err, &cErr) && cErr.Verb != "" {
		return strings.ToUpper(cErr.Verb)
	}
	return "UNKNOWN"
}

func grammarReason(err error) string {
	var cErr *console.Error
	if !errors.As(err, &cErr) {
		return "malformed"
	}
	switch cErr.Kind {
	case "InvalidVerb":
		return "invalid-verb"
	case "LineTooLong":
		return "line-too-long"
	default:
		return "malformed-arg"
	}
}

func (s *Shell) execHelp() {
	s.line("verbs: help attach tail log ping test ls cat echo spawn kill quit")
}

// RunScript consumes lines from r until EOF. Every verb's outcome is
// an ACK line, never a Go error, so a failing verb does not stop the
// script: only quit (ErrQuit) or a read error does.
func (s *Shell) RunScript(ctx context.Context, r io.Reader) error {
	acc := console.NewLineAccumulator(console.MaxLineLen)
	buf := make([]byte, 4096)

	for {
		n, readErr := r.Read(buf)
		for i := 0; i < n; i++ {
			line, complete, pushErr := acc.Push(buf[i])
			if pushErr != nil {
				s.ack(console.AckLine{Status: "ERR", Verb: "UNKNOWN", Detail: "reason=line-too-long"})
				continue
			}
			if !complete {
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := s.Execute(ctx, line); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func (s *Shell) execPing(ctx context.Context) error {
	sess, ok := s.current()
	if !ok {
		s.ack(console.AckLine{Status: "ERR", Verb: "PING", Detail: "reason=not-attached"})
		return nil
	}
	msg, err := s.Transport.Ping(ctx, sess)
	if err != nil {
		s.ack(console.AckLine{Status: "ERR", Verb: "PING", Detail: "reason=" + err.Error()})
		return nil
	}
	s.ack(console.AckLine{Status: "OK", Verb: "PING", Detail: msg})
	return nil
}

// execTail issues the Open+Read loop against path, emitting each chunk
// as one output line after the ACK and before the stream terminator.
func (s *Shell) execTail(ctx context.Context, path string) error {
	sess, ok := s.current()
	if !ok {
		s.ack(console.AckLine{Status: "ERR", Verb: "TAIL", Detail: "reason=not-attached"})
		return nil
	}
	lines, err := s.Transport.Tail(ctx, sess, path)
	if err != nil {
		s.ack(console.AckLine{Status: "ERR", Verb: "TAIL", Detail: "reason=" + err.Error()})
		return nil
	}
	s.ack(console.AckLine{Status: "OK", Verb: "TAIL", Detail: "path=" + path})
	for _, l := range lines {
		s.line(l)
	}
	s.line(console.End)
	return nil
}

// execLs renders a directory node's entries one per line. The wire
// protocol has no separate stat message (§4.G carries only
// Version/Attach/Read/Write), so a directory fid's content is read the
// same way a log fid's is; ls and tail therefore share the transport's
// Tail operation and differ only in how the shell presents the result.
func (s *Shell) execLs(ctx context.Context, path string) error {
	sess, ok := s.current()
	if !ok {
		s.ack(console.AckLine{Status: "ERR", Verb: "LS", Detail: "reason=not-attached"})
		return nil
	}
	entries, err := s.Transport.Tail(ctx, sess, path)
	if err != nil {
		s.ack(console.AckLine{Status: "ERR", Verb: "LS", Detail: "reason=" + err.Error()})
		return nil
	}
	s.ack(console.AckLine{Status: "OK", Verb: "LS", Detail: "path=" + path})
	for _, e := range entries {
		s.line(e)
	}
	s.line(console.End)
	return nil
}

// execCat renders a leaf's bytes verbatim: the lines Tail split out are
// rejoined with the same separator, since the transport has no distinct
// raw-read operation from the line-oriented one.
func (s *Shell) execCat(ctx context.Context, path string) error {
	sess, ok := s.current()
	if !ok {
		s.ack(console.AckLine{Status: "ERR", Verb: "CAT", Detail: "reason=not-attached"})
		return nil
	}
	lines, err := s.Transport.Tail(ctx, sess, path)
	if err != nil {
		s.ack(console.AckLine{Status: "ERR", Verb: "CAT", Detail: "reason=" + err.Error()})
		return nil
	}
	s.ack(console.AckLine{Status: "OK", Verb: "CAT", Detail: "path=" + path})
	s.line(strings.Join(lines, "\n"))
	s.line(console.End)
	return nil
}

func (s *Shell) execEcho(ctx context.Context, args *console.EchoArgs) error {
	sess, ok := s.current()
	if !ok {
		s.ack(console.AckLine{Status: "ERR", Verb: "ECHO", Detail: "reason=not-attached"})
		return nil
	}
	payload := []byte(args.Text + "\n")
	if err := s.writeWithRetry(ctx, sess, args.Path, payload); err != nil {
		if err != errShortWriteExceeded {
			s.ack(console.AckLine{Status: "ERR", Verb: "ECHO", Detail: "reason=" + err.Error()})
		}
		return nil
	}
	s.ack(console.AckLine{Status: "OK", Verb: "ECHO", Detail: "path=" + args.Path})
	return nil
}

// writeWithRetry drives payload through the transport's Write, re-issuing
// the unwritten suffix per §4.B's ShortWritePolicy whenever the transport
// reports fewer bytes accepted than were sent. Exhausting
// WritePolicy.MaxRetries renders the boundary ack directly (distinct from
// whichever verb's ack the caller would otherwise render on success) and
// returns errShortWriteExceeded so the caller skips its own error ack.
func (s *Shell) writeWithRetry(ctx context.Context, sess transport.SessionHandle, path string, payload []byte) error {
	remaining := payload
	for attempt := 0; len(remaining) > 0; attempt++ {
		n, err := s.Transport.Write(ctx, sess, path, remaining)
		if err != nil {
			return err
		}
		if n >= len(remaining) {
			return nil
		}
		remaining = remaining[n:]

		delay, ok := s.WritePolicy.NextBackoff(attempt)
		if !ok {
			s.ack(console.AckLine{Status: "ERR", Verb: "WRITE", Detail: "reason=short-write-exceeded"})
			return errShortWriteExceeded
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}

// ctlPayload is the JSON body posted to queen_ctl_path for spawn/kill.
type ctlPayload struct {
	Op       string            `json:"op"`
	Role     string            `json:"role,omitempty"`
	WorkerID string            `json:"worker_id,omitempty"`
	Args     map[string]string `json:"args,omitempty"`
}

func (s *Shell) postCtl(ctx context.Context, sess transport.SessionHandle, p ctlPayload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.writeWithRetry(ctx, sess, s.QueenCtlPath, body)
}

func (s *Shell) execSpawn(ctx context.Context, args *console.SpawnArgs) error {
	sess, ok := s.current()
	if !ok {
		s.ack(console.AckLine{Status: "ERR", Verb: "SPAWN", Detail: "reason=not-attached"})
		return nil
	}
	err := s.postCtl(ctx, sess, ctlPayload{Op: "spawn", Role: args.Role, Args: args.Args})
	if err != nil {
		if err != errShortWriteExceeded {
			s.ack(console.AckLine{Status: "ERR", Verb: "SPAWN", Detail: "reason=" + err.Error()})
		}
		return nil
	}
	s.ack(console.AckLine{Status: "OK", Verb: "SPAWN", Detail: "role=" + args.Role})
	return nil
}

func (s *Shell) execKill(ctx context.Context, args *console.KillArgs) error {
	sess, ok := s.current()
	if !ok {
		s.ack(console.AckLine{Status: "ERR", Verb: "KILL", Detail: "reason=not-attached"})
		return nil
	}
	err := s.postCtl(ctx, sess, ctlPayload{Op: "kill", WorkerID: args.WorkerID})
	if err != nil {
		if err != errShortWriteExceeded {
			s.ack(console.AckLine{Status: "ERR", Verb: "KILL", Detail: "reason=" + err.Error()})
		}
		return nil
	}
	s.ack(console.AckLine{Status: "OK", Verb: "KILL", Detail: "worker_id=" + args.WorkerID})
	return nil
}

// Interactive runs a liner-backed REPL against the process's real
// terminal: history, Ctrl-C abort, and tab completion over the closed
// verb set via console.Suggest. Generalized from miniclient.Conn.Attach,
// whose Suggest instead round-trips to a running minimega instance.
// Returns nil on EOF or a quit verb; any other liner error is returned
// for the caller to map to an exit code.
func (s *Shell) Interactive(ctx context.Context) error {
	input := liner.NewLiner()
	defer input.Close()

	input.SetCtrlCAborts(true)
	input.SetTabCompletionStyle(liner.TabPrints)
	input.SetCompleter(func(line string) []string { return console.Suggest(line) })

	for {
		line, err := input.Prompt(Prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		input.AppendHistory(line)
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := s.Execute(ctx, line); err != nil {
			if err == ErrQuit {
				return nil
			}
			return err
		}
	}
}

func (s *Shell) execTest(args *console.TestArgs) error {
	mode := args.Mode
	if mode == "" {
		mode = "quick"
	}
	s.ack(console.AckLine{Status: "OK", Verb: "TEST", Detail: "mode=" + mode})
	return nil
}

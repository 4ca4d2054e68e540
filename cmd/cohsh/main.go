// Command cohsh is the Secure9P console client: an interactive or
// scripted shell that attaches to a coh namespace server over a
// pluggable transport. Its flag surface and exit-code discipline are
// grounded on cmd/wt/main.go's cobra root command generalized from a
// subcommand tree down to this package's flat verb set.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/cohesix/coh/internal/console"
	"github.com/cohesix/coh/internal/manifest"
	"github.com/cohesix/coh/internal/metrics"
	"github.com/cohesix/coh/internal/obs"
	"github.com/cohesix/coh/internal/shell"
	"github.com/cohesix/coh/internal/transport"
)

// Exit codes per the CLI surface's contract.
const (
	exitSuccess        = 0
	exitScriptError    = 1
	exitAttachFailure  = 2
	exitTransportError = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	var (
		transportFlag  string
		roleFlag       string
		ticketFlag     string
		scriptFlag     string
		checkFlag      string
		metricsAddr    string
		traceStdoutOut bool
		overrideFlag   string
	)

	exitCode := exitSuccess

	root := &cobra.Command{
		Use:           "cohsh",
		Short:         "Secure9P console client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if traceStdoutOut {
				tp, err := obs.NewStdoutProvider(stderr)
				if err != nil {
					return err
				}
				otel.SetTracerProvider(tp)
				defer tp.Shutdown(cmd.Context())
			}

			m := metrics.New()
			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: m.Handler()}
				go srv.ListenAndServe()
				defer srv.Close()
			}

			if checkFlag != "" {
				exitCode = runCheck(checkFlag, stdout)
				return nil
			}
			exitCode = runShell(cmd.Context(), transportFlag, roleFlag, ticketFlag, scriptFlag, overrideFlag, stdin, stdout, m)
			return nil
		},
	}

	root.Flags().StringVar(&transportFlag, "transport", "mock", "transport backend: tcp|mock|in-process")
	root.Flags().StringVar(&roleFlag, "role", "", "attach as this role on startup")
	root.Flags().StringVar(&ticketFlag, "ticket", "", "ticket presented with --role")
	root.Flags().StringVar(&scriptFlag, "script", "", "run this script non-interactively")
	root.Flags().StringVar(&checkFlag, "check", "", "dry-run a script's syntax and exit")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (disabled if empty)")
	root.Flags().BoolVar(&traceStdoutOut, "trace-stdout", false, "emit OpenTelemetry spans to stderr as they complete")
	root.Flags().StringVar(&overrideFlag, "manifest-override", "", "YAML file overlaying the generated ticket/mount/policy manifest")

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(stderr, err)
		return exitTransportError
	}
	return exitCode
}

// runCheck dry-runs path: every non-blank line is parsed with
// console.Parse but never dispatched. It reports the first parse
// failure and exits 1, or confirms every line is syntactically valid
// and exits 0. No transport is opened and no session attaches.
func runCheck(path string, stdout *os.File) int {
	body, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdout, "ERR CHECK reason=%s\n", err.Error())
		return exitScriptError
	}

	lines := strings.Split(string(body), "\n")
	checked := 0
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, err := console.Parse(line); err != nil {
			fmt.Fprintf(stdout, "ERR CHECK reason=%s line=%d\n", err.Error(), i+1)
			return exitScriptError
		}
		checked++
	}

	fmt.Fprintf(stdout, "OK CHECK lines=%d\n", checked)
	return exitSuccess
}

func buildTransport(ctx context.Context, kind string, m manifest.Manifest) (transport.Transport, error) {
	switch kind {
	case "tcp":
		tcp, err := transport.DialTCP(ctx, fmt.Sprintf("127.0.0.1:%d", m.TCPPort))
		if err != nil {
			return nil, err
		}
		return tcp, nil
	case "in-process":
		tree := manifest.NamespaceMounts(m.ShardLayout, m.QueenCtlPath)
		return transport.NewInProcess(tree, m.Tickets), nil
	case "mock":
		return &transport.MockTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}

func runShell(ctx context.Context, transportKind, roleFlag, ticketFlag, scriptPath, overridePath string, stdin, stdout *os.File, m *metrics.Metrics) int {
	mf := manifest.ApplyEnv(manifest.FromGenerated())
	if overridePath != "" {
		var err error
		mf, err = manifest.LoadOverride(mf, overridePath)
		if err != nil {
			fmt.Fprintln(stdout, err.Error())
			return exitTransportError
		}
	}

	tr, err := buildTransport(ctx, transportKind, mf)
	if err != nil {
		fmt.Fprintln(stdout, err.Error())
		return exitTransportError
	}

	limiter := console.NewRateLimiter(32, 8, time.Now())
	sh := shell.New(stdout, tr, mf.QueenCtlPath, limiter).
		WithMetrics(m).
		WithColor(isatty.IsTerminal(stdout.Fd()))

	if roleFlag != "" {
		if err := sh.Attach(ctx, roleFlag, ticketFlag); err != nil {
			return exitTransportError
		}
		if !sh.Attached() {
			return exitAttachFailure
		}
	}

	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			fmt.Fprintln(stdout, err.Error())
			return exitScriptError
		}
		defer f.Close()

		if err := sh.RunScript(ctx, f); err != nil && err != shell.ErrQuit {
			return exitScriptError
		}
		return exitSuccess
	}

	return runInteractive(ctx, sh, stdin, stdout)
}

func runInteractive(ctx context.Context, sh *shell.Shell, stdin, stdout *os.File) int {
	if !sh.Attached() {
		fmt.Fprintln(stdout, shell.DetachedBanner)
	}

	// A real terminal gets Shell.Interactive's liner-backed loop (history,
	// tab completion, Ctrl-C abort); a redirected stdin (scripts, tests,
	// pipes) falls back to a plain line reader over the given
	// stdin/stdout, since liner always binds the process's actual
	// terminal fds and cannot be pointed at an arbitrary io.Reader.
	if isatty.IsTerminal(stdin.Fd()) {
		if err := sh.Interactive(ctx); err != nil {
			return exitTransportError
		}
		return exitSuccess
	}
	return runInteractiveReader(ctx, sh, stdin, stdout)
}

func runInteractiveReader(ctx context.Context, sh *shell.Shell, stdin, stdout *os.File) int {
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, shell.Prompt)
		if !scanner.Scan() {
			return exitSuccess
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := sh.Execute(ctx, line); err != nil {
			if err == shell.ErrQuit {
				return exitSuccess
			}
			return exitTransportError
		}
	}
}

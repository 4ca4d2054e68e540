// Package cohlog is the logging facility shared by the Secure9P session
// layer, the namespace provider, and the cohsh shell. It is adapted from
// minimega's pkg/minilog: a small set of severities, optional ANSI color,
// and a fan-out registry so the same call site can feed stderr and any
// number of in-memory ring buffers without the caller knowing how many
// sinks exist.
package cohlog

import "github.com/fatih/color"

// Level is a logging severity. Levels are ordered; a logger configured at
// level L emits all records at L or more severe.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// ParseLevel maps a lowercase label ("debug", "info", "warn" or "warning",
// "error", "fatal") to a Level.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "debug":
		return DEBUG, true
	case "info":
		return INFO, true
	case "warn", "warning":
		return WARN, true
	case "error":
		return ERROR, true
	case "fatal":
		return FATAL, true
	default:
		return INFO, false
	}
}

// levelColor picks the color a logger with Color enabled renders level's
// prefix in. Color is forced on regardless of fatih/color's own terminal
// detection: a cohLogger's color flag is the single source of truth,
// already decided once via go-isatty when the stderr logger is built.
func levelColor(l Level) *color.Color {
	c := rawLevelColor(l)
	c.EnableColor()
	return c
}

func rawLevelColor(l Level) *color.Color {
	switch l {
	case DEBUG:
		return color.New(color.FgCyan)
	case INFO:
		return color.New(color.FgGreen)
	case WARN:
		return color.New(color.FgYellow)
	case ERROR:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgMagenta)
	}
}

package cohlog

import (
	"log"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// stdWriter adapts the standard library logger to the sink interface so it
// can be registered the same way a Ring is.
type stdWriter struct {
	*log.Logger
}

func (w stdWriter) Println(v ...interface{}) {
	w.Logger.Println(v...)
}

var (
	mu      sync.Mutex
	loggers = map[string]*cohLogger{
		"stderr": {
			sink:  stdWriter{log.New(os.Stderr, "", 0)},
			level: INFO,
			color: isatty.IsTerminal(os.Stderr.Fd()),
		},
	}
)

// SetLevel adjusts the severity floor for a registered logger (default:
// "stderr"). Unknown names are ignored.
func SetLevel(name string, level Level) {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		l.level = level
	}
}

// SetColor toggles ANSI coloring for a registered logger.
func SetColor(name string, color bool) {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		l.color = color
	}
}

// AddFilter suppresses any log line containing substr on the named logger.
func AddFilter(name, substr string) {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		l.filters = append(l.filters, substr)
	}
}

// AddRing registers a Ring buffer as a named logger sink at the given
// level, e.g. for capturing the log lines coincident with a trace.
func AddRing(name string, r *Ring, level Level) {
	mu.Lock()
	defer mu.Unlock()

	loggers[name] = &cohLogger{sink: r, level: level}
}

// RemoveLogger unregisters a named logger.
func RemoveLogger(name string) {
	mu.Lock()
	defer mu.Unlock()

	delete(loggers, name)
}

// WillLog reports whether any registered logger would emit at level.
func WillLog(level Level) bool {
	mu.Lock()
	defer mu.Unlock()

	for _, l := range loggers {
		if l.willLog(level) {
			return true
		}
	}
	return false
}

func dispatchf(level Level, format string, args ...interface{}) {
	mu.Lock()
	ls := make([]*cohLogger, 0, len(loggers))
	for _, l := range loggers {
		ls = append(ls, l)
	}
	mu.Unlock()

	for _, l := range ls {
		l.logf(level, "", format, args...)
	}
}

func dispatchln(level Level, args ...interface{}) {
	mu.Lock()
	ls := make([]*cohLogger, 0, len(loggers))
	for _, l := range loggers {
		ls = append(ls, l)
	}
	mu.Unlock()

	for _, l := range ls {
		l.logln(level, "", args...)
	}
}

func Debug(format string, args ...interface{}) { dispatchf(DEBUG, format, args...) }
func Info(format string, args ...interface{})  { dispatchf(INFO, format, args...) }
func Warn(format string, args ...interface{})  { dispatchf(WARN, format, args...) }
func Error(format string, args ...interface{}) { dispatchf(ERROR, format, args...) }

func Debugln(args ...interface{}) { dispatchln(DEBUG, args...) }
func Infoln(args ...interface{})  { dispatchln(INFO, args...) }
func Warnln(args ...interface{})  { dispatchln(WARN, args...) }
func Errorln(args ...interface{}) { dispatchln(ERROR, args...) }

// Fatal logs at FATAL and terminates the process, mirroring minilog's
// Fatal. Only ever called from cmd/cohsh's main, never from library code.
func Fatal(format string, args ...interface{}) {
	dispatchf(FATAL, format, args...)
	os.Exit(1)
}

func Fatalln(args ...interface{}) {
	dispatchln(FATAL, args...)
	os.Exit(1)
}

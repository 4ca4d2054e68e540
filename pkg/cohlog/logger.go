package cohlog

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// sink is the minimal interface a logging backend must satisfy. Both the
// stderr backend and the Ring backend implement it.
type sink interface {
	Println(...interface{})
}

// cohLogger pairs a sink with a severity floor, optional color, and a set
// of substring filters used to suppress noisy lines (e.g. heartbeat
// traffic) without touching call sites.
type cohLogger struct {
	sink

	level   Level
	color   bool
	filters []string
}

func (l *cohLogger) prologue(level Level, name string) string {
	prefix := level.String() + " "

	if name == "" {
		_, file, line, ok := runtime.Caller(4)
		if ok {
			short := file
			for i := len(file) - 1; i > 0; i-- {
				if file[i] == '/' {
					short = file[i+1:]
					break
				}
			}
			prefix += short + ":" + strconv.Itoa(line) + ": "
		}
	} else {
		prefix += name + ": "
	}

	if l.color {
		return levelColor(level).Sprint(prefix)
	}
	return prefix
}

func (l *cohLogger) willLog(level Level) bool {
	return level >= l.level
}

func (l *cohLogger) logf(level Level, name, format string, args ...interface{}) {
	if !l.willLog(level) {
		return
	}

	msg := l.prologue(level, name) + fmt.Sprintf(format, args...)
	for _, f := range l.filters {
		if strings.Contains(msg, f) {
			return
		}
	}
	l.Println(msg)
}

func (l *cohLogger) logln(level Level, name string, args ...interface{}) {
	if !l.willLog(level) {
		return
	}

	msg := l.prologue(level, name) + fmt.Sprint(args...)
	for _, f := range l.filters {
		if strings.Contains(msg, f) {
			return
		}
	}
	l.Println(msg)
}

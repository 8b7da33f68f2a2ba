// Package logctx wraps the standard log.Logger with a stable field
// prefix, the same plain, dependency-free logging style the teacher's
// own commands use throughout (log.Println/log.Printf to stderr, no
// structured logging framework).
package logctx

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger prefixes every line with a fixed set of "key=value" fields,
// set once at construction.
type Logger struct {
	base   *log.Logger
	prefix string
}

// New returns a Logger writing to w (os.Stderr is the usual choice)
// with no fields set.
func New(w io.Writer) *Logger {
	return &Logger{base: log.New(w, "", log.LstdFlags)}
}

// Default returns a Logger writing to os.Stderr.
func Default() *Logger {
	return New(os.Stderr)
}

// With returns a derived Logger that prepends "key=value " to every
// subsequent line, in addition to any fields already set.
func (l *Logger) With(key string, value interface{}) *Logger {
	field := fmt.Sprintf("%s=%v ", key, value)
	return &Logger{base: l.base, prefix: l.prefix + field}
}

// Printf logs a formatted line.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.base.Printf(l.prefix+format, args...)
}

// Println logs a line built from its arguments.
func (l *Logger) Println(args ...interface{}) {
	l.base.Println(append([]interface{}{l.prefix}, args...)...)
}

// Fatalf logs a formatted line and exits the process with status 1,
// matching log.Fatalf's behavior.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.base.Fatalf(l.prefix+format, args...)
}

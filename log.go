// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memsock

import (
	"io"
	"os"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the diagnostic sink used by [OrderedSlot] and [Socket].
//
// An empty tag selects the untagged form of each call. Implementations must
// be safe for concurrent use, must not block indefinitely, and must not call
// back into the slot or socket that is logging.
type Logger interface {
	// Info records a diagnostic trace line.
	Info(tag, format string, args ...any)
	// Error records an error condition.
	Error(tag, format string, args ...any)
	// Fatal records the message, flushes, and terminates the process.
	Fatal(tag, format string, args ...any)
}

// JSONLogger is the default [Logger], writing one JSON object per line.
//
// Info goes to the output stream, Error and Fatal to the error stream.
// Both streams share a single lock, so lines from concurrent goroutines
// never interleave.
type JSONLogger struct {
	out  *logiface.Logger[*stumpy.Event]
	err  *logiface.Logger[*stumpy.Event]
	errw io.Writer
	exit func(code int)
}

var _ Logger = (*JSONLogger)(nil)

// LoggerOption configures [NewLogger].
type LoggerOption func(c *loggerConfig)

type loggerConfig struct {
	out       io.Writer
	err       io.Writer
	timeField *string
	exit      func(code int)
}

// WithOutput sets the stream for Info lines. Defaults to os.Stdout.
func WithOutput(w io.Writer) LoggerOption {
	return func(c *loggerConfig) {
		c.out = w
	}
}

// WithErrorOutput sets the stream for Error and Fatal lines.
// Defaults to os.Stderr.
func WithErrorOutput(w io.Writer) LoggerOption {
	return func(c *loggerConfig) {
		c.err = w
	}
}

// WithTimeField adds a timestamp under the given key. An empty name
// disables the field.
func WithTimeField(name string) LoggerOption {
	return func(c *loggerConfig) {
		c.timeField = &name
	}
}

// WithExit replaces the process exit used by Fatal.
// Defaults to [logiface.OsExit].
func WithExit(fn func(code int)) LoggerOption {
	return func(c *loggerConfig) {
		c.exit = fn
	}
}

// NewLogger creates a [JSONLogger].
//
// Example:
//
//	l := memsock.NewLogger(memsock.WithOutput(os.Stderr))
//	l.Info("UI", "sending %d bytes", 8)
func NewLogger(options ...LoggerOption) *JSONLogger {
	c := loggerConfig{
		out: os.Stdout,
		err: os.Stderr,
	}
	for _, o := range options {
		o(&c)
	}
	if c.exit == nil {
		c.exit = func(code int) { logiface.OsExit(code) }
	}

	mu := new(sync.Mutex)
	return &JSONLogger{
		out:  newStumpy(&lockedWriter{mu: mu, w: c.out}, c.timeField),
		err:  newStumpy(&lockedWriter{mu: mu, w: c.err}, c.timeField),
		errw: c.err,
		exit: c.exit,
	}
}

func newStumpy(w io.Writer, timeField *string) *logiface.Logger[*stumpy.Event] {
	opts := []stumpy.Option{stumpy.WithWriter(w)}
	if timeField != nil {
		opts = append(opts, stumpy.WithTimeField(*timeField))
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(opts...),
		stumpy.L.WithLevel(logiface.LevelInformational),
	)
}

// Info implements [Logger].
func (x *JSONLogger) Info(tag, format string, args ...any) {
	withTag(x.out.Info(), tag).Logf(format, args...)
}

// Error implements [Logger].
func (x *JSONLogger) Error(tag, format string, args ...any) {
	withTag(x.err.Err(), tag).Logf(format, args...)
}

// Fatal implements [Logger].
func (x *JSONLogger) Fatal(tag, format string, args ...any) {
	withTag(x.err.Crit(), tag).Logf(format, args...)
	if s, ok := x.errw.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	x.exit(1)
}

func withTag(b *logiface.Builder[*stumpy.Event], tag string) *logiface.Builder[*stumpy.Event] {
	if tag != "" {
		b = b.Str("tag", tag)
	}
	return b
}

// lockedWriter serializes writes from both streams of a JSONLogger.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

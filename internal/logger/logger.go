// Package logger is a small structured logger writing logfmt lines.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-logfmt/logfmt"
)

// M holds the fields of a log line.
type M map[string]any

// A Logger writes logfmt lines carrying a fixed context plus per-line fields.
// It is safe for concurrent use.
type Logger struct {
	mu  *sync.Mutex
	out io.Writer
	ctx M
	now func() time.Time
}

// New returns a new logger which will write to the given writer.
func New(out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}

	return &Logger{
		mu:  &sync.Mutex{},
		out: out,
		now: time.Now,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

// With returns a new logger with an augmented context.
func (l *Logger) With(ctx M) *Logger {
	c := M{}
	for _, m := range []M{l.ctx, ctx} {
		for k, v := range m {
			c[k] = v
		}
	}

	return &Logger{
		mu:  l.mu,
		out: l.out,
		ctx: c,
		now: l.now,
	}
}

// Log writes one line with the level, message and fields. Keys are sorted.
func (l *Logger) Log(lvl, msg string, data M) {
	fields := M{}
	for k, v := range l.ctx {
		fields[k] = v
	}
	for k, v := range data {
		fields[k] = v
	}

	fields["lvl"] = lvl
	fields["msg"] = msg
	fields["time"] = l.now().UTC().Format(time.RFC3339)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	enc := logfmt.NewEncoder(&buf)
	for _, k := range keys {
		_ = enc.EncodeKeyval(k, render(fields[k]))
	}
	_ = enc.EndRecord()

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(buf.Bytes())
}

func render(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Error is a shortcut to write an error log line.
func (l *Logger) Error(msg string, data M) {
	l.Log("error", msg, data)
}

// Info is a shortcut to write an info log line.
func (l *Logger) Info(msg string, data M) {
	l.Log("info", msg, data)
}

// Warn is a shortcut to write a warning log line.
func (l *Logger) Warn(msg string, data M) {
	l.Log("warn", msg, data)
}

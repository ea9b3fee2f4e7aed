// Package logger is the structured logging facade of the facility client.
// Every string, header and field map written through it passes the
// sensitive data filter, so session tokens never reach the output.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger builds leveled events and derives child loggers.
type Logger interface {
	Debug() Event
	Info() Event
	Warn() Event
	Error() Event
	With(fields map[string]any) Logger
}

// Event accumulates fields until Msg sends it.
type Event interface {
	Str(key, value string) Event
	Int(key string, value int) Event
	Int64(key string, value int64) Event
	Bool(key string, value bool) Event
	Dur(key string, d time.Duration) Event
	Bytes(key string, value []byte) Event
	Interface(key string, value any) Event
	Err(err error) Event
	Msg(msg string)
}

// ZeroLogger is the zerolog-backed Logger.
type ZeroLogger struct {
	zlog   zerolog.Logger
	filter *SensitiveDataFilter
}

var _ Logger = (*ZeroLogger)(nil)

var callerOnce sync.Once

// New writes JSON (or console output when pretty) to stdout.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithWriter(os.Stdout, level, pretty, nil)
}

// NewWithWriter writes to w at level, falling back to info for unknown
// levels. A nil filterConfig masks DefaultFilterConfig's fields.
func NewWithWriter(w io.Writer, level string, pretty bool, filterConfig *FilterConfig) *ZeroLogger {
	callerOnce.Do(func() { zerolog.CallerMarshalFunc = shortCaller })

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &ZeroLogger{zlog: zl, filter: NewSensitiveDataFilter(filterConfig)}
}

// Nop discards everything.
func Nop() *ZeroLogger {
	return &ZeroLogger{zlog: zerolog.Nop(), filter: NewSensitiveDataFilter(nil)}
}

// shortCaller renders "pkg/file.go:42".
func shortCaller(_ uintptr, file string, line int) string {
	name := filepath.Base(file)
	if dir := filepath.Base(filepath.Dir(file)); dir != "." && dir != "" {
		name = dir + "/" + name
	}
	return name + ":" + strconv.Itoa(line)
}

func (l *ZeroLogger) Debug() Event { return l.event(l.zlog.Debug()) }
func (l *ZeroLogger) Info() Event  { return l.event(l.zlog.Info()) }
func (l *ZeroLogger) Warn() Event  { return l.event(l.zlog.Warn()) }
func (l *ZeroLogger) Error() Event { return l.event(l.zlog.Error()) }

// With returns a child logger carrying the filtered fields on every event.
func (l *ZeroLogger) With(fields map[string]any) Logger {
	return &ZeroLogger{
		zlog:   l.zlog.With().Fields(l.filter.FilterFields(fields)).Logger(),
		filter: l.filter,
	}
}

func (l *ZeroLogger) event(e *zerolog.Event) Event {
	return &event{e: e, filter: l.filter}
}

// event wraps a zerolog event. zerolog returns nil events for disabled
// levels and every method below is a no-op on them.
type event struct {
	e      *zerolog.Event
	filter *SensitiveDataFilter
}

func (ev *event) Str(key, value string) Event {
	ev.e.Str(key, ev.filter.FilterString(key, value))
	return ev
}

func (ev *event) Int(key string, value int) Event {
	ev.e.Int(key, value)
	return ev
}

func (ev *event) Int64(key string, value int64) Event {
	ev.e.Int64(key, value)
	return ev
}

func (ev *event) Bool(key string, value bool) Event {
	ev.e.Bool(key, value)
	return ev
}

func (ev *event) Dur(key string, d time.Duration) Event {
	ev.e.Dur(key, d)
	return ev
}

func (ev *event) Bytes(key string, value []byte) Event {
	ev.e.Bytes(key, value)
	return ev
}

func (ev *event) Interface(key string, value any) Event {
	ev.e.Interface(key, ev.filter.FilterValue(key, value))
	return ev
}

func (ev *event) Err(err error) Event {
	ev.e.Err(err)
	return ev
}

func (ev *event) Msg(msg string) { ev.e.Msg(msg) }

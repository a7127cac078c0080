// Package logger wraps zerolog. Fields accumulate on the context so a request
// id or order id attached once by middleware shows up on every later entry.
package logger

import (
	"context"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	maxStackFrames = 32
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Format      string
	Output      io.Writer
}

type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(out).Level(opts.Level).With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{base: base, warnStack: opts.WarnStack}
}

// ForApp builds a binary's logger from its loaded configuration.
func ForApp(service string, app config.AppConfig) *Logger {
	return New(Options{
		ServiceName: service,
		Level:       ParseLevel(app.LogLevel),
		WarnStack:   app.LogWarnStack,
		Format:      app.LogFormat,
	})
}

// ParseLevel maps a config string to a zerolog level, falling back to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if scoped, ok := ctx.Value(scopeKey{}).(*zerolog.Logger); ok {
			return scoped
		}
	}
	return &l.base
}

type scopeKey struct{}

func (l *Logger) with(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	scoped := build(l.from(ctx).With()).Logger()
	return context.WithValue(ctx, scopeKey{}, &scoped)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

// WithFields attaches fields in key order so entries are stable across runs.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if len(fields) == 0 {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		for _, k := range keys {
			c = c.Interface(k, fields[k])
		}
		return c
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithActor(ctx context.Context, actorID, role string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("actor_id", actorID).Str("actor_role", role)
	})
}

func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.WithField(ctx, "order_id", orderID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.from(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.from(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.from(ctx).Warn()
	if l.warnStack {
		event = event.Strs("stack", callers())
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.from(ctx).Error().Err(err).Strs("stack", callers()).Msg(msg)
}

// callers returns "function file:line" frames starting at the caller of the
// logging method.
func callers() []string {
	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		out = append(out, frame.Function+" "+frame.File+":"+strconv.Itoa(frame.Line))
		if !more {
			break
		}
	}
	return out
}

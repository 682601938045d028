// Package logger wraps zap for the ledger. A request carries its logger in
// the context; domain code logs through the package-level helpers and gets
// trace and staff fields attached automatically.
package logger

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "salesledger/internal/core/context"
)

// Logger is a sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

// Config holds logger settings.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // console encoder with colours
	OutputPaths []string
	// Service is attached to every entry as "service" when set.
	Service string
}

// New builds a logger. An unknown level is an error.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(cfg.Level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	z, err := zc.Build(opts...)
	if err != nil {
		return nil, err
	}
	return &Logger{z.Sugar()}, nil
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default is used when no logger travels in the context, e.g. in tests.
func Default() *Logger {
	defaultOnce.Do(func() {
		zc := zap.NewProductionConfig()
		zc.OutputPaths = []string{"stdout"}
		z, err := zc.Build(zap.AddCallerSkip(1))
		if err != nil {
			z = zap.NewNop()
		}
		defaultLogger = &Logger{z.Sugar()}
	})
	return defaultLogger
}

// WithContext attaches the trace and acting staff of ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var fields []any
	if trace := appctx.GetTrace(ctx); trace != nil {
		fields = append(fields, "trace_id", trace.TraceID, "request_id", trace.RequestID)
	}
	if user := appctx.GetUser(ctx); user != nil {
		fields = append(fields, "staff_id", user.UserID)
		if user.Terminal != "" {
			fields = append(fields, "terminal", user.Terminal)
		}
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(fields...)}
}

// WithComponent tags entries with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

type loggerKey struct{}

// WithLogger stores l in ctx for FromContext and the helpers below.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger in ctx, or Default, with context fields attached.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(loggerKey{}).(*Logger)
	if !ok || l == nil {
		l = Default()
	}
	return l.WithContext(ctx)
}

// Debug logs at debug level.
func Debug(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Debugw(msg, keysAndValues...)
}

// Info logs at info level.
func Info(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Infow(msg, keysAndValues...)
}

// Warn logs at warn level.
func Warn(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Warnw(msg, keysAndValues...)
}

// Error logs at error level.
func Error(ctx context.Context, msg string, keysAndValues ...any) {
	FromContext(ctx).Errorw(msg, keysAndValues...)
}

// Package logger wraps zap configuration for the server and its tools.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger holds the process-wide zap logger. Log is a no-op logger until Init
// succeeds, so it is always safe to call.
type Logger struct {
	Log *zap.Logger

	development bool
}

// Option tweaks a Logger before Init builds it.
type Option func(*Logger)

// Development switches Init to zap's human-readable console configuration.
func Development(on bool) Option {
	return func(l *Logger) { l.development = on }
}

// New returns an uninitialised Logger.
func New(opts ...Option) *Logger {
	l := &Logger{Log: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init builds the zap logger at the given level ("debug", "info", "warn",
// "error"; case-insensitive).
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if l.development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = zl
	return nil
}

// Package logger holds the process-wide structured logger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the global SugaredLogger. It discards everything until Initialize is called.
var Log *zap.SugaredLogger = zap.NewNop().Sugar()

type options struct {
	console bool
	fields  []any
}

// Option customizes Initialize.
type Option func(*options)

// WithConsole switches from JSON to the human-readable console encoder.
func WithConsole() Option {
	return func(o *options) { o.console = true }
}

// WithFields attaches key-value pairs to every entry, e.g. service and version.
func WithFields(keysAndValues ...any) Option {
	return func(o *options) { o.fields = append(o.fields, keysAndValues...) }
}

// Initialize replaces Log with a production logger at the given level.
func Initialize(level string, opts ...Option) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if o.console {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = logger.Sugar().With(o.fields...)
	return nil
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	_ = Log.Sync()
}

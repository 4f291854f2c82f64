// README: Structured logging wrapper around zap.
package log

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// Init configures the process-wide logger. env "production" selects JSON
// output, anything else a human-readable console encoder.
func Init(env, level string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func Sync() { _ = logger.Sync() }

type Field = zap.Field

func String(key, val string) Field       { return zap.String(key, val) }
func Int(key string, val int) Field      { return zap.Int(key, val) }
func Int64(key string, val int64) Field  { return zap.Int64(key, val) }
func Float64(k string, v float64) Field  { return zap.Float64(k, v) }
func Bool(key string, val bool) Field    { return zap.Bool(key, val) }
func Any(key string, val any) Field      { return zap.Any(key, val) }
func Cause(err error) Field              { return zap.Error(err) }
func Strings(k string, v []string) Field { return zap.Strings(k, v) }

func Debug(ctx context.Context, msg string, fields ...Field) {
	logger.Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	logger.Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	logger.Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	logger.Error(msg, fields...)
}

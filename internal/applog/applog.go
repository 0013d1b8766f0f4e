// Package applog wires the coordinator's structured logging: zap for the
// encoder, lumberjack for on-disk rotation.
package applog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

func init() {
	l, _ := zap.NewProduction()
	log = l.Sugar()
}

// Configure points the package logger at a rotated file on disk. Callers
// that never call Configure get a default production zap logger writing to
// stderr, which is fine for tests and one-off tools.
func Configure(path string, maxSizeMB, maxBackups, maxAgeDays int) {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zap.InfoLevel)
	zl := zap.New(core, zap.AddCaller())

	mu.Lock()
	log = zl.Sugar()
	mu.Unlock()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) { get().Infof(format, args...) }

// Warnf logs at warning level — the ereport(WARNING) equivalent from the
// original C extension.
func Warnf(format string, args ...interface{}) { get().Warnf(format, args...) }

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { get().Errorf(format, args...) }

// InfoContextf logs at info level, tagging the message with anything the
// context carries via ContextFields.
func InfoContextf(ctx context.Context, format string, args ...interface{}) {
	withFields(ctx).Infof(format, args...)
}

// WarnContextf logs at warning level with context fields attached.
func WarnContextf(ctx context.Context, format string, args ...interface{}) {
	withFields(ctx).Warnf(format, args...)
}

// ErrorContextf logs at error level with context fields attached.
func ErrorContextf(ctx context.Context, format string, args ...interface{}) {
	withFields(ctx).Errorf(format, args...)
}

type fieldsKey struct{}

// WithFields returns a context carrying key/value pairs that subsequent
// *Contextf calls will attach to the log line (gid, member name, and so on).
func WithFields(ctx context.Context, kv ...interface{}) context.Context {
	return context.WithValue(ctx, fieldsKey{}, kv)
}

func withFields(ctx context.Context) *zap.SugaredLogger {
	l := get()
	if kv, ok := ctx.Value(fieldsKey{}).([]interface{}); ok {
		return l.With(kv...)
	}
	return l
}

// Sync flushes any buffered log entries; call before process exit.
func Sync() error { return get().Sync() }

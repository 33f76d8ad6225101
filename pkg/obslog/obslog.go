// Package obslog provides a process-wide structured logger.
//
// It wraps go.uber.org/zap behind the same package-level
// Info/Warn/Error/Debug(msg, keyvals...) call shape used throughout this
// codebase, so call sites never deal with zap's typed field constructors
// directly.
package obslog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

func init() {
	logger = newDefault()
}

func newDefault() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		// Never fail process startup over logging; fall back to a no-op core.
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Init configures the process-wide logger from level/encoding settings.
// level is one of "debug", "info", "warn", "error" (default "info").
// encoding is "json" (default) or "console".
func Init(level, encoding string) error {
	zapLevel := zapcore.InfoLevel
	if level != "" {
		if err := zapLevel.Set(level); err != nil {
			return err
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if encoding != "" {
		cfg.Encoding = encoding
	}
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	logger = l.Sugar()
	mu.Unlock()
	return nil
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Info logs an informational message with alternating key/value pairs.
func Info(msg string, keyvals ...any) {
	current().Infow(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...any) {
	current().Warnw(msg, keyvals...)
}

// Error logs an error-level message.
func Error(msg string, keyvals ...any) {
	current().Errorw(msg, keyvals...)
}

// Debug logs a debug-level message.
func Debug(msg string, keyvals ...any) {
	current().Debugw(msg, keyvals...)
}

// Sync flushes any buffered log entries. Call via defer from main().
func Sync() {
	_ = current().Sync()
}

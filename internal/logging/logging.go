// Package logging wraps zap with the component-tagged calling convention
// used throughout this repository: every log line names the subsystem
// that emitted it (store, reconcile, sync, registry, ws, api) as its
// first argument, with structured fields as its last.
package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.SugaredLogger
)

// Fields is the structured-field map passed to the *CF logging calls.
type Fields map[string]any

// Init builds the process-wide logger at the given level ("debug",
// "info", "warn", "error") and installs it as the package-level logger
// used by the DebugC/InfoCF/WarnCF/ErrorCF helpers. It is safe to call
// again later (e.g. after config reload) to change the level.
func Init(level string) error {
	lvl := parseLevel(level)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	global = l.Sugar()
	mu.Unlock()
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func logger() *zap.SugaredLogger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		// Fallback for code paths that log before Init runs (e.g. in
		// tests that never call Init): a permissive development logger
		// beats a nil-pointer panic.
		l, _ := zap.NewDevelopment()
		return l.Sugar()
	}
	return l
}

func fieldArgs(component string, fields Fields) []any {
	args := make([]any, 0, 2+2*len(fields))
	args = append(args, "component", component)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

// DebugC logs a component-tagged debug message with no extra fields.
func DebugC(component, msg string) {
	logger().Debugw(msg, "component", component)
}

// InfoC logs a component-tagged info message with no extra fields.
func InfoC(component, msg string) {
	logger().Infow(msg, "component", component)
}

// InfoCF logs a component-tagged info message with structured fields.
func InfoCF(component, msg string, fields Fields) {
	logger().Infow(msg, fieldArgs(component, fields)...)
}

// WarnCF logs a component-tagged warning with structured fields.
func WarnCF(component, msg string, fields Fields) {
	logger().Warnw(msg, fieldArgs(component, fields)...)
}

// ErrorCF logs a component-tagged error with structured fields.
func ErrorCF(component, msg string, fields Fields) {
	logger().Errorw(msg, fieldArgs(component, fields)...)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	_ = logger().Sync()
}

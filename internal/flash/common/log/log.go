// Package log provides the process-wide structured logging facade,
// backed by zap. Components log through the package-level functions so
// tests can swap in a noop logger.
package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global Logger = newZapLogger(false, zapcore.InfoLevel)

// Logger is the logging interface used throughout the simulator.
type Logger interface {
	Debug(fields map[string]any, msg string)
	Info(fields map[string]any, msg string)
	Warn(fields map[string]any, msg string)
	Error(fields map[string]any, msg string)
	Fatal(fields map[string]any, msg string)
}

// Configure replaces the global logger with one built for the given
// environment ("dev" or "prod") and level.
func Configure(env, level string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	global = newZapLogger(env != "prod", lvl)
	return nil
}

// SetLogger replaces the global logger instance. Intended for tests.
func SetLogger(l Logger) {
	global = l
}

// GetLogger returns the current global logger instance.
func GetLogger() Logger {
	return global
}

// Debug logs at debug level using the global logger.
func Debug(fields map[string]any, msg string) { global.Debug(fields, msg) }

// Info logs at info level using the global logger.
func Info(fields map[string]any, msg string) { global.Info(fields, msg) }

// Warn logs at warn level using the global logger.
func Warn(fields map[string]any, msg string) { global.Warn(fields, msg) }

// Error logs at error level using the global logger.
func Error(fields map[string]any, msg string) { global.Error(fields, msg) }

// Fatal logs at fatal level using the global logger and exits.
func Fatal(fields map[string]any, msg string) { global.Fatal(fields, msg) }

type zapLogger struct {
	base *zap.Logger
}

func newZapLogger(dev bool, level zapcore.Level) Logger {
	var config zap.Config
	if dev {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.MessageKey = "msg"
	config.EncoderConfig.LevelKey = "level"

	logger, _ := config.Build()
	return &zapLogger{base: logger}
}

func (l *zapLogger) Debug(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Debug(msg)
}

func (l *zapLogger) Info(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Info(msg)
}

func (l *zapLogger) Warn(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Warn(msg)
}

func (l *zapLogger) Error(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Error(msg)
}

func (l *zapLogger) Fatal(fields map[string]any, msg string) {
	l.base.With(zapFields(fields)...).Fatal(msg)
}

func zapFields(m map[string]any) []zap.Field {
	fields := make([]zap.Field, 0, len(m))
	for k, v := range m {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

// noopLogger discards all log messages.
type noopLogger struct{}

func (noopLogger) Debug(map[string]any, string) {}
func (noopLogger) Info(map[string]any, string)  {}
func (noopLogger) Warn(map[string]any, string)  {}
func (noopLogger) Error(map[string]any, string) {}
func (noopLogger) Fatal(map[string]any, string) {}

// NewNoopLogger returns a Logger that discards everything. Useful in
// tests that exercise noisy paths.
func NewNoopLogger() Logger {
	return noopLogger{}
}

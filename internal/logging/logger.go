// Package logging owns the process-wide default logger. SessionConfig.Logger
// lets a caller supply their own *zap.Logger per spec's "logger?: opaque"
// collaborator; Pick resolves that override against the package default.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger  *zap.Logger
	sugar   *zap.SugaredLogger
	once    sync.Once
	initErr error
	level   = zap.NewAtomicLevelAt(zapcore.WarnLevel) // default to warn level
)

func initLogger() {
	once.Do(func() {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.DisableStacktrace = true
		config.DisableCaller = true
		config.Level = level

		var err error
		logger, err = config.Build()
		if err != nil {
			logger = zap.NewNop()
			initErr = err
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
		}
		sugar = logger.Sugar()
	})
}

// SetLevel sets the default logger's verbosity.
// 0 = warn, 1 = info, 2+ = debug.
func SetLevel(verbosity int) {
	var lvl zapcore.Level
	switch {
	case verbosity <= 0:
		lvl = zapcore.WarnLevel
	case verbosity == 1:
		lvl = zapcore.InfoLevel
	default:
		lvl = zapcore.DebugLevel
	}
	level.SetLevel(lvl)
}

// GetLogger returns the package default logger.
func GetLogger() *zap.Logger {
	initLogger()
	return logger
}

// GetSugar returns the sugared form of the default logger.
func GetSugar() *zap.SugaredLogger {
	initLogger()
	return sugar
}

// Pick returns override if non-nil, otherwise the package default. Every
// component that accepts a caller-supplied *zap.Logger resolves its logger
// through this function exactly once: Leg, Coordinator and Source Reader
// at construction, Session at the start of Run.
func Pick(override *zap.Logger) *zap.Logger {
	if override != nil {
		return override
	}
	return GetLogger()
}

// Sync flushes any buffered log entries.
func Sync() {
	initLogger()
	_ = logger.Sync()
	_ = sugar.Sync()
}

// InitError returns any error that occurred during logger initialization.
func InitError() error {
	initLogger()
	return initErr
}

// Info logs an informational message on the default logger.
func Info(msg string, fields ...zap.Field) {
	initLogger()
	logger.Info(msg, fields...)
}

// Warn logs a warning message on the default logger.
func Warn(msg string, fields ...zap.Field) {
	initLogger()
	logger.Warn(msg, fields...)
}

// Error logs an error message on the default logger.
func Error(msg string, fields ...zap.Field) {
	initLogger()
	logger.Error(msg, fields...)
}

// Debug logs a debug message on the default logger.
func Debug(msg string, fields ...zap.Field) {
	initLogger()
	logger.Debug(msg, fields...)
}

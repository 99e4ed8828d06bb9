// Package logging provides the process-wide structured logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global = zap.NewNop()

// Init builds the global logger. Level is a zap level name ("debug", "info",
// "warn", "error"); format is "console" or "json". An unknown level falls
// back to info.
func Init(level, format string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	global = logger
	return nil
}

// L returns the global logger.
func L() *zap.Logger {
	return global
}

// Sync flushes buffered entries. Call on shutdown.
func Sync() {
	_ = global.Sync()
}

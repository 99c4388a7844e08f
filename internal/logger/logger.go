// Package logger provides the process-wide structured logger.
//
// The TUI owns the terminal, so logs go to a rotated file instead of
// stdout/stderr.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	global *zap.Logger = zap.NewNop()
	once   sync.Once
)

// Config controls log destination and verbosity.
type Config struct {
	Path       string
	Level      string // debug, info, warn, error
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init builds the global logger. Only the first call has any effect.
func Init(cfg Config) {
	once.Do(func() {
		var level zapcore.Level
		switch cfg.Level {
		case "debug":
			level = zapcore.DebugLevel
		case "warn":
			level = zapcore.WarnLevel
		case "error":
			level = zapcore.ErrorLevel
		default:
			level = zapcore.InfoLevel
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})

		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)
		global = zap.New(core)
	})
}

// L returns the global logger. Before Init it is a no-op logger, which keeps
// tests quiet without any setup.
func L() *zap.Logger {
	return global
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = global.Sync()
}

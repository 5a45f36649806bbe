package mq

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger the package wide logger, used by the default registry initialisation.
var logger atomic.Pointer[zap.Logger]

// SetLogger replaces the package logger, a nil l disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// Logger returns the package logger.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}

	logger.CompareAndSwap(nil, NewLogger(false))
	return logger.Load()
}

// NewLogger builds a console logger writing to stderr.
// warnings are always written, verbose also writes debug and info messages.
func NewLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}

	return l.Named("mq")
}

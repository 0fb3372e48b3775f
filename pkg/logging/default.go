package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger *ColoredLogger
)

// SetDefault replaces the process-wide logger the facades fall back to.
func SetDefault(l *ColoredLogger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the process-wide logger, creating a colorless info-level
// console logger on first use.
func Default() *ColoredLogger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewColoredLogger(zapcore.InfoLevel, false)
	}
	return defaultLogger
}

// DefaultFunc returns an action logger that resolves Default on every call,
// so a later SetDefault is honoured by facades that were already built.
func DefaultFunc(component Component) Func {
	return func(level zapcore.Level, action string, fields ...zap.Field) {
		newActionLogger(Default(), component, 2)(level, action, fields...)
	}
}

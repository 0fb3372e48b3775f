package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	White  = "\033[37m"
	Gray   = "\033[90m"

	BrightRed     = "\033[91m"
	BrightYellow  = "\033[93m"
	BrightMagenta = "\033[95m"
	BrightWhite   = "\033[97m"
)

// ColoredLogger wraps zap.Logger with colored output
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
}

// Component represents different parts of the wrapper for color coding
type Component string

const (
	ComponentClient   Component = "CLIENT"
	ComponentAuth     Component = "AUTH"
	ComponentDatabase Component = "DATABASE"
	ComponentStorage  Component = "STORAGE"
	ComponentCLI      Component = "CLI"
	ComponentGeneral  Component = "GENERAL"
)

func getComponentColor(component Component) string {
	switch component {
	case ComponentClient:
		return Blue
	case ComponentAuth:
		return BrightMagenta
	case ComponentDatabase:
		return Green
	case ComponentStorage:
		return BrightYellow
	case ComponentCLI:
		return Cyan
	case ComponentGeneral:
		return Yellow
	default:
		return White
	}
}

func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return Red
	default:
		return White
	}
}

// coloredConsoleEncoder creates a custom encoder with colors
func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		timeStr := t.Format("15:04:05")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", Dim, timeStr, Reset))
		} else {
			enc.AppendString(timeStr)
		}
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelStr := strings.ToUpper(level.String())[:1]
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s%s", getLevelColor(level), Bold, levelStr, Reset))
		} else {
			enc.AppendString(levelStr)
		}
	}

	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		file = strings.TrimSuffix(file, ".go")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s:%d%s", Dim, file, caller.Line, Reset))
		} else {
			enc.AppendString(fmt.Sprintf("%s:%d", file, caller.Line))
		}
	}

	return zapcore.NewConsoleEncoder(config)
}

// NewColoredLogger creates a console logger on stdout at the given level.
func NewColoredLogger(level zapcore.Level, enableColors bool) *ColoredLogger {
	core := zapcore.NewCore(coloredConsoleEncoder(enableColors), zapcore.AddSync(os.Stdout), level)
	return &ColoredLogger{
		Logger:       zap.New(core, zap.AddCaller()),
		enableColors: enableColors,
	}
}

// FileOptions controls rotation of a file logger. A zero MaxSizeMB uses
// the rotation default of 100 megabytes.
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
}

// NewFileLogger creates a logger that writes plain console lines to a file,
// rotating it once it grows past opts.MaxSizeMB.
func NewFileLogger(filePath string, level zapcore.Level, opts FileOptions) (*ColoredLogger, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}
	file.Close()

	sink := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	core := zapcore.NewCore(coloredConsoleEncoder(false), zapcore.AddSync(sink), level)
	return &ColoredLogger{
		Logger:       zap.New(core, zap.AddCaller()),
		enableColors: false,
	}, nil
}

// NewJSONLogger creates a JSON logger on stdout whose keys match what
// Google Cloud Logging parses from container output.
func NewJSONLogger(level zapcore.Level) *ColoredLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.LevelKey = "severity"
	cfg.MessageKey = "message"
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(os.Stdout), level)
	return &ColoredLogger{Logger: zap.New(core, zap.AddCaller())}
}

// WrapLogger adapts an existing zap logger.
func WrapLogger(l *zap.Logger) *ColoredLogger {
	return &ColoredLogger{Logger: l}
}

func (l *ColoredLogger) tag(component Component, msg string) string {
	if l.enableColors {
		return fmt.Sprintf("%s[%s]%s %s", getComponentColor(component), component, Reset, msg)
	}
	return fmt.Sprintf("[%s] %s", component, msg)
}

// ParseLevel maps a config string onto a zap level, defaulting to info.
func ParseLevel(s string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

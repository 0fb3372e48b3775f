package logging

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Func is the log function the auth, database and storage facades call.
// action names what was being done ("insert", "upload file"); fields carry
// the arguments of the call and, for failures, a zap.Error field.
type Func func(level zapcore.Level, action string, fields ...zap.Field)

// Nop discards everything.
func Nop(zapcore.Level, string, ...zap.Field) {}

// redactedKeys are rendered as "text" instead of their value.
var redactedKeys = map[string]bool{"file_content": true}

// NewActionLogger returns a Func that formats each call into a single message
// and writes it to l under the given component tag.
func NewActionLogger(l *ColoredLogger, component Component) Func {
	return newActionLogger(l, component, 1)
}

func newActionLogger(l *ColoredLogger, component Component, skip int) Func {
	zl := l.Logger.WithOptions(zap.AddCallerSkip(skip))
	return func(level zapcore.Level, action string, fields ...zap.Field) {
		// Panic and fatal entries would unwind or exit the caller.
		if level > zapcore.ErrorLevel {
			level = zapcore.ErrorLevel
		}
		msg := l.tag(component, FormatMessage(level, action, fields...))
		if ce := zl.Check(level, msg); ce != nil {
			ce.Write(zap.String("action", action))
		}
	}
}

// FormatMessage builds the log line for an action:
//
//	Error performing <action> with k=v, k=v
//	Exception: <err>
//
// for error levels and "<action> returned k=v, k=v" otherwise.
func FormatMessage(level zapcore.Level, action string, fields ...zap.Field) string {
	isError := level >= zapcore.ErrorLevel

	var (
		pairs []string
		exc   error
	)
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if err, ok := f.Interface.(error); ok && exc == nil {
				exc = err
			}
			continue
		}
		pairs = append(pairs, f.Key+"="+fieldValue(f))
	}
	kv := strings.Join(pairs, ", ")

	var b strings.Builder
	if isError {
		b.WriteString("Error performing ")
	}
	b.WriteString(action)
	if kv != "" {
		if isError {
			b.WriteString(" with ")
		} else {
			b.WriteString(" returned ")
		}
		b.WriteString(kv)
	}
	if exc != nil {
		b.WriteString("\nException: ")
		b.WriteString(exc.Error())
	}
	return b.String()
}

func fieldValue(f zap.Field) string {
	if redactedKeys[f.Key] {
		return "text"
	}
	enc := zapcore.NewMapObjectEncoder()
	f.AddTo(enc)
	v, ok := enc.Fields[f.Key]
	if !ok {
		return ""
	}
	return render(v)
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

package logging

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

func TestFormatMessage(t *testing.T) {
	boom := errors.New("duplicate key value violates unique constraint")

	tests := []struct {
		name   string
		level  zapcore.Level
		action string
		fields []zap.Field
		want   string
	}{
		{
			name:   "action only",
			level:  zapcore.InfoLevel,
			action: "Default client initialized",
			want:   "Default client initialized",
		},
		{
			name:   "info with fields",
			level:  zapcore.InfoLevel,
			action: "select",
			fields: []zap.Field{zap.String("table_name", "users"), zap.Int("count", 0)},
			want:   "select returned table_name=users, count=0",
		},
		{
			name:   "error with fields and exception",
			level:  zapcore.ErrorLevel,
			action: "insert",
			fields: []zap.Field{zap.Any("data", map[string]any{"id": 1}), zap.String("table_name", "users"), zap.Error(boom)},
			want:   "Error performing insert with data={\"id\":1}, table_name=users\nException: duplicate key value violates unique constraint",
		},
		{
			name:   "error without fields",
			level:  zapcore.ErrorLevel,
			action: "logout",
			fields: []zap.Field{zap.Error(boom)},
			want:   "Error performing logout\nException: duplicate key value violates unique constraint",
		},
		{
			name:   "file content redacted",
			level:  zapcore.ErrorLevel,
			action: "upload file",
			fields: []zap.Field{zap.String("bucket", "avatars"), zap.Binary("file_content", []byte("PNG...")), zap.String("file_mimetype", "image/png")},
			want:   "Error performing upload file with bucket=avatars, file_content=text, file_mimetype=image/png",
		},
		{
			name:   "list values are json",
			level:  zapcore.WarnLevel,
			action: "select",
			fields: []zap.Field{zap.Strings("columns", []string{"id", "email"})},
			want:   "select returned columns=[\"id\",\"email\"]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMessage(tt.level, tt.action, tt.fields...)
			if got != tt.want {
				t.Errorf("FormatMessage() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFormatMessageNeverLeaksFileContent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		content := rapid.StringMatching(`secret-[a-z0-9]{4,24}`).Draw(t, "content")
		level := zapcore.Level(rapid.IntRange(int(zapcore.DebugLevel), int(zapcore.ErrorLevel)).Draw(t, "level"))

		msg := FormatMessage(level, "upload file",
			zap.String("bucket", "docs"),
			zap.String("file_content", content),
		)
		if strings.Contains(msg, content) {
			t.Fatalf("message leaked file content: %q", msg)
		}
		if !strings.Contains(msg, "file_content=text") {
			t.Fatalf("message missing redaction marker: %q", msg)
		}
	})
}

func TestNewActionLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewActionLogger(WrapLogger(zap.New(core)), ComponentDatabase)

	log(zapcore.ErrorLevel, "delete", zap.String("table_name", "users"), zap.Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.ErrorLevel {
		t.Errorf("Expected error level, got %v", e.Level)
	}
	want := "[DATABASE] Error performing delete with table_name=users\nException: boom"
	if e.Message != want {
		t.Errorf("Expected %q, got %q", want, e.Message)
	}
	if e.ContextMap()["action"] != "delete" {
		t.Errorf("Expected action field, got %v", e.ContextMap())
	}
}

func TestActionLoggerCapsLevelAtError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewActionLogger(WrapLogger(zap.New(core)), ComponentAuth)

	for _, level := range []zapcore.Level{zapcore.DPanicLevel, zapcore.PanicLevel} {
		assert.NotPanics(t, func() { log(level, "sign in", zap.String("email", "a@b.co")) }, "level %v", level)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Level != zapcore.ErrorLevel {
			t.Errorf("Expected error level, got %v", e.Level)
		}
		if !strings.HasPrefix(e.Message, "[AUTH] Error performing sign in") {
			t.Errorf("unexpected message %q", e.Message)
		}
	}
}

func TestDefaultFuncFollowsSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	log := DefaultFunc(ComponentStorage)

	core, logs := observer.New(zapcore.InfoLevel)
	SetDefault(WrapLogger(zap.New(core)))

	log(zapcore.InfoLevel, "list files", zap.Int("count", 2))
	log(zapcore.DebugLevel, "filtered out")

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 entry, got %d", logs.Len())
	}
	if got := logs.All()[0].Message; got != "[STORAGE] list files returned count=2" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

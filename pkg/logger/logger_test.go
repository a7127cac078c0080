package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithRequestID(ctx, "req-123")
	ctx = log.WithOrderID(ctx, "order-1")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-123"`)) {
		t.Fatalf("expected request_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"order_id":"order-1"`)) {
		t.Fatalf("expected order_id to be preserved; entry=%s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack trace on error; entry=%s", buf.String())
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true})
	log.Warn(context.Background(), "warny")
	if !bytes.Contains(buf.Bytes(), []byte(`"stack"`)) {
		t.Fatalf("expected stack when warn stack enabled")
	}
}

func TestLoggerActorFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: buf})
	ctx := log.WithActor(context.Background(), "user-9", "vendor")
	log.Info(ctx, "hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"actor_role":"vendor"`)) {
		t.Fatalf("expected actor role field; entry=%s", buf.String())
	}
	log.Debug(ctx, "hidden")
	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Fatalf("debug entry should be filtered at info level")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected default info level, got %v", lvl)
	}
	if lvl := ParseLevel("invalid"); lvl != zerolog.InfoLevel {
		t.Fatalf("invalid level should fallback to info, got %v", lvl)
	}
	if lvl := ParseLevel(" WARN "); lvl != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", lvl)
	}
}

func TestLoggerStackStartsAtCaller(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	log.Error(context.Background(), "failed", nil)

	var entry struct {
		Stack []string `json:"stack"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if len(entry.Stack) == 0 || !strings.Contains(entry.Stack[0], "TestLoggerStackStartsAtCaller") {
		t.Fatalf("expected first frame to be the test, got %v", entry.Stack)
	}
}

func TestForAppUsesConsoleFormat(t *testing.T) {
	log := ForApp("api", config.AppConfig{LogLevel: "warn", LogFormat: "console"})
	if log.base.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %v", log.base.GetLevel())
	}

	buf := &bytes.Buffer{}
	console := New(Options{ServiceName: "test", Format: FormatConsole, Output: buf})
	console.Info(context.Background(), "ready")
	if bytes.HasPrefix(bytes.TrimSpace(buf.Bytes()), []byte("{")) {
		t.Fatalf("console format should not emit json: %s", buf.String())
	}
}

func TestWithFieldsDoesNotLeakIntoParentContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf})
	parent := log.WithRequestID(context.Background(), "req-1")
	_ = log.WithFields(parent, map[string]any{"vendor_id": "v-1"})

	log.Info(parent, "parent")
	if bytes.Contains(buf.Bytes(), []byte("vendor_id")) {
		t.Fatalf("child fields leaked into parent: %s", buf.String())
	}
}

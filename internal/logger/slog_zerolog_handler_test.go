package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
)

func bridgeLogger(t *testing.T, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	zl := Build(Config{Level: level, Component: "test"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	return NewSlog(&zl), &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &out); err != nil {
		t.Fatalf("parse log line %q: %v", lines[len(lines)-1], err)
	}
	return out
}

func TestBridge_HonorsConfiguredLevel(t *testing.T) {
	l, buf := bridgeLogger(t, "warn")

	l.Info("too quiet")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}

	l.Warn("loud enough", "dataset", "boundaries")
	line := lastLine(t, buf)
	if line["level"] != "warn" || line["msg"] != "loud enough" || line["dataset"] != "boundaries" {
		t.Fatalf("line=%v", line)
	}
}

func TestBridge_CarriesContextFields(t *testing.T) {
	l, buf := bridgeLogger(t, "info")

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	l.ErrorContext(ctx, "load failed", "err", "boom")

	line := lastLine(t, buf)
	if line["request_id"] != "req-1" || line["session_id"] != "sess-1" {
		t.Fatalf("context fields missing: %v", line)
	}
	if line["level"] != "error" || line["err"] != "boom" {
		t.Fatalf("line=%v", line)
	}
}

func TestBridge_WithAttrsDoesNotMutateParent(t *testing.T) {
	l, buf := bridgeLogger(t, "info")

	child := l.With("dataset", "concessions")
	child.Info("child")
	if line := lastLine(t, buf); line["dataset"] != "concessions" {
		t.Fatalf("child line=%v", line)
	}

	buf.Reset()
	l.Info("parent")
	if line := lastLine(t, buf); line["dataset"] != nil {
		t.Fatalf("parent inherited child attr: %v", line)
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanout(t *testing.T) {
	var text, js bytes.Buffer
	textH := NewHandler(&text, &slog.HandlerOptions{Level: slog.LevelWarn})
	jsonH := slog.NewJSONHandler(&js, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(NewFanout(textH, jsonH)).With("path", "app.yaml")
	logger.Debug("reference loaded")
	logger.Warn("config file not found")

	if strings.Contains(text.String(), "reference loaded") {
		t.Errorf("text handler got a record below its level: %q", text.String())
	}
	if !strings.Contains(text.String(), "WARN config file not found path=app.yaml") {
		t.Errorf("text output = %q", text.String())
	}

	lines := strings.Split(strings.TrimSpace(js.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("json got %d lines, want 2", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["path"] != "app.yaml" {
		t.Errorf("json entry = %v", entry)
	}
}

func TestFanout_SingleHandler(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, nil)
	if NewFanout(h) != slog.Handler(h) {
		t.Error("a single handler should be returned as is")
	}
}

func TestFanout_Enabled(t *testing.T) {
	f := NewFanout(
		NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	ctx := context.Background()
	if !f.Enabled(ctx, slog.LevelInfo) || f.Enabled(ctx, slog.LevelDebug) {
		t.Error("Enabled should be true when any handler is enabled")
	}
}

func TestFanout_ErrorsDoNotStopOthers(t *testing.T) {
	var buf bytes.Buffer
	bad := failingHandler{NewHandler(&bytes.Buffer{}, nil)}
	f := NewFanout(bad, NewHandler(&buf, nil))

	err := f.Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "m", 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Handle() error = %v", err)
	}
	if buf.String() != "INFO m\n" {
		t.Errorf("second handler output = %q", buf.String())
	}
}

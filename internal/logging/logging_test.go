package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"timebuddy/internal/config"
)

func TestNew_Levels(t *testing.T) {
	l, err := New(config.LogConfig{Level: "debug", Format: "json"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug enabled")
	}

	l, err = New(config.LogConfig{Format: "console"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) || !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("expected warn as default level")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timebuddy.log")
	l, err := New(config.LogConfig{Level: "info", Format: "console", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello from the log file")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "hello from the log file") {
		t.Fatalf("expected message in log file, got %q", b)
	}
}

package obslog

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestJSONConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: zapcore.InfoLevel, Console: true, Format: "json", Stdout: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("opening_resolved", zap.String("eco", "C60"))
	_ = logger.Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "opening_resolved" || entry["eco"] != "C60" || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "openchess.log")
	logger, err := New(Options{Level: zapcore.InfoLevel, File: path, Format: "console"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_TO_FILE", "true")
	t.Setenv("LOG_FILE", "x.log")
	opts := OptionsFromEnv()
	if opts.Level != zapcore.WarnLevel || opts.File != "x.log" || !opts.Console {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

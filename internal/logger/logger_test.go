package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

func TestNewStderrDefaults(t *testing.T) {
	log, closer := New(Config{})
	if log == nil {
		t.Fatal("nil logger")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("stderr closer must be a no-op: %v", err)
	}
}

func TestNewFileLoggerWritesAndRotatesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devdeck.log")
	log, closer := New(Config{File: path, MaxSizeMB: 1, MaxBackups: 9, MaxAgeDays: 11, Compress: true})

	log.Info("hello", "k", "v")
	w, ok := closer.(*lj.Logger)
	if !ok {
		t.Fatalf("file closer is %T, want *lumberjack.Logger", closer)
	}
	if w.MaxSize != 1 || w.MaxBackups != 9 || w.MaxAge != 11 || !w.Compress {
		t.Fatalf("rotation config not propagated: %+v", w)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "hello") || !strings.Contains(out, "k=v") {
		t.Fatalf("log line missing: %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("color codes leaked into file output: %q", out)
	}
}

func TestNewFileLoggerDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.log")
	_, closer := New(Config{File: path})
	w := closer.(*lj.Logger)
	if w.MaxSize != DefaultMaxSizeMB || w.MaxBackups != DefaultMaxBackups || w.MaxAge != DefaultMaxAgeDays {
		t.Fatalf("unexpected defaults: size=%d backups=%d age=%d", w.MaxSize, w.MaxBackups, w.MaxAge)
	}
	_ = closer.Close()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorTextHandlerColorsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorTextHandler(&buf, nil, true)
	log := slog.New(h)
	log.Warn("disk almost full")

	out := buf.String()
	if !strings.Contains(out, "\033[33mWARN\033[0m") {
		t.Fatalf("warn level not colorized: %q", out)
	}
	if !strings.Contains(out, "disk almost full") {
		t.Fatalf("message missing: %q", out)
	}

	// Unknown levels fall back to the reset code and must not error.
	rec := slog.NewRecord(time.Now(), slog.Level(42), "odd", 0)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trafficsignal/internal/config"
)

func TestNewLogger_WritesPerLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Info("zone counts ns=%d", 3)
	l.Warning("prediction fallback")
	l.Error("camera lost")

	tests := []struct {
		file     string
		contains string
		absent   string
	}{
		{InfoFile, "zone counts ns=3", "camera lost"},
		{WarningFile, "prediction fallback", "zone counts"},
		{ErrorFile, "camera lost", "prediction fallback"},
	}
	for _, tt := range tests {
		data, err := os.ReadFile(filepath.Join(dir, tt.file))
		if err != nil {
			t.Fatalf("ReadFile %s failed: %v", tt.file, err)
		}
		if !strings.Contains(string(data), tt.contains) {
			t.Errorf("%s missing %q: %s", tt.file, tt.contains, data)
		}
		if strings.Contains(string(data), tt.absent) {
			t.Errorf("%s should not contain %q", tt.file, tt.absent)
		}
	}
}

func TestCleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Error("boom")
	if err := l.CleanLogs(ErrorFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, ErrorFile))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("error log not truncated, size %d", info.Size())
	}

	if err := l.CleanLogs("missing.log"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Warning("dropped report: %s", "timeout")
	out := buf.String()
	if !strings.HasPrefix(out, "WARNING ") || !strings.Contains(out, "dropped report: timeout") {
		t.Errorf("unexpected output %q", out)
	}
	if err := l.CleanLogs(InfoFile); err == nil {
		t.Error("writer logger has no files to clean")
	}
}

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		hasError bool
	}{
		{"100", 100, false},
		{"100B", 100, false},
		{"100KB", 100 * 1024, false},
		{"10MB", 10 * 1024 * 1024, false},
		{"1GB", 1024 * 1024 * 1024, false},
		{"10mb", 10 * 1024 * 1024, false},
		{"0MB", 0, true},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSize(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("parseSize(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSize(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseSize(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		hasError bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"xd", 0, true},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("parseDuration(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDuration(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRotatingWriter_Write(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "robota.log")

	rw, err := newRotatingWriter(logFile, nil)
	if err != nil {
		t.Fatalf("newRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	msg := "command started\n"
	n, err := rw.Write([]byte(msg))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("wrote %d bytes, want %d", n, len(msg))
	}

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if string(content) != msg {
		t.Errorf("content = %q, want %q", content, msg)
	}
}

func TestRotatingWriter_RotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "robota.log")

	rw, err := newRotatingWriter(logFile, &RotationConfig{MaxSize: "64B", MaxAge: "1d", MaxBackups: 2})
	if err != nil {
		t.Fatalf("newRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 6; i++ {
		if _, err := rw.Write(line); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	backups, err := filepath.Glob(filepath.Join(dir, "robota.*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) == 0 {
		t.Fatal("expected at least one backup after exceeding max size")
	}
	if len(backups) > 2 {
		t.Errorf("got %d backups, want at most 2: %v", len(backups), backups)
	}

	info, err := os.Stat(logFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() > 64 {
		t.Errorf("active log is %d bytes, want <= 64", info.Size())
	}
}

func TestRotatingWriter_PrunesExpiredBackups(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "robota.log")

	stale := filepath.Join(dir, "robota.20200101-000000.log")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-30 * 24 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	rw, err := newRotatingWriter(logFile, &RotationConfig{MaxAge: "7d"})
	if err != nil {
		t.Fatalf("newRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("expected stale backup to be removed, stat err = %v", err)
	}
}

func TestRotatingWriter_CloseIdempotent(t *testing.T) {
	rw, err := newRotatingWriter(filepath.Join(t.TempDir(), "robota.log"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

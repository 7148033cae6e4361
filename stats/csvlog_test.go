package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCSVLoggerWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stats.csv")

	l, err := NewCSVLogger(path)
	if err != nil {
		t.Fatalf("NewCSVLogger: %v", err)
	}
	if err := l.Log(Sample{At: t0(), Factors: 1}, Rate{FactorsPerSecond: 1.5}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and append a second sample; the header must not repeat.
	l2, err := NewCSVLogger(path)
	if err != nil {
		t.Fatalf("NewCSVLogger (reopen): %v", err)
	}
	if err := l2.Log(Sample{At: t0().Add(time.Second), Factors: 2}, Rate{FactorsPerSecond: 2.0}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := l2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 rows): %q", len(lines), lines)
	}
	if lines[0] != "timestamp,factors,fps,spf" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}

func TestCSVLoggerCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "stats.csv")

	l, err := NewCSVLogger(path)
	if err != nil {
		t.Fatalf("NewCSVLogger: %v", err)
	}
	defer l.Close()

	if _, err := os.Stat(filepath.Join(dir, "nested")); err != nil {
		t.Fatalf("expected nested directory to be created: %v", err)
	}
}

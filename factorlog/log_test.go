package factorlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordAppendsLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factors.log")

	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := l.Record(7, "12345*2^9876+1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(11, "(7^100-1)^2-2"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "7 | 12345*2^9876+1" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if lines[1] != "11 | (7^100-1)^2-2" {
		t.Fatalf("line 1 = %q", lines[1])
	}
}

func TestRecordAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factors.log")

	l1, _ := Open(path)
	l1.Record(2, "term-a")
	l1.Close()

	l2, _ := Open(path)
	l2.Record(3, "term-b")
	l2.Close()

	contents, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(contents), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), lines)
	}
}

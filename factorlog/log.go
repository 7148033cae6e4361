// Package factorlog implements the append-only factor log of spec.md
// section 6.3: one record per line, "<p> | <term>". Grounded on the
// teacher's disciplined os.OpenFile usage (explicit flags, checked errors)
// seen throughout server/config.go and client/main.go's file handling.
package factorlog

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Log appends factor records to a text file, one per line.
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens (creating if necessary) the factor log at path for appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "factorlog: open")
	}
	return &Log{file: f}, nil
}

// Record appends one "<p> | <term>" line and flushes it immediately: every
// reported factor must be durable before the engine moves on, so a crash
// mid-run never silently loses a found factor.
func (l *Log) Record(p uint64, term string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := bufio.NewWriter(l.file)
	if _, err := fmt.Fprintf(w, "%d | %s\n", p, term); err != nil {
		return errors.Wrap(err, "factorlog: write record")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "factorlog: flush")
	}
	return l.file.Sync()
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

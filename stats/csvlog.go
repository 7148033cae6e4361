// CSV sidecar logging, grounded on the teacher's std/snmp.go SnmpLogger:
// header written once when the file is new or empty, one flush per sample, the output
// path split via filepath.Split so a bare filename still resolves relative
// to the current directory.
package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// CSVLogger appends one row per sample to a CSV file. NewCSVLogger writes
// the header when the file does not exist yet or is empty.
type CSVLogger struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVLogger opens (creating if necessary) the CSV file at path for
// appending. The directory component is created if it does not already
// exist, mirroring SnmpLogger's handling of a bare filename.
func NewCSVLogger(path string) (*CSVLogger, error) {
	dir, _ := filepath.Split(path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "stats: create csv directory")
		}
	}

	info, statErr := os.Stat(path)
	needsHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "stats: open csv file")
	}

	l := &CSVLogger{path: path, file: f, writer: csv.NewWriter(f)}
	if needsHeader {
		if err := l.writer.Write([]string{"timestamp", "factors", "fps", "spf"}); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "stats: write csv header")
		}
		l.writer.Flush()
	}
	return l, nil
}

// Log appends one row for sample s and its derived rate, flushing
// immediately (one flush per sample, matching SnmpLogger's per-tick flush).
func (l *CSVLogger) Log(s Sample, rate Rate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fps, spf := "", ""
	if rate.IsSecondsPerFactor {
		spf = strconv.FormatFloat(rate.SecondsPerFactor, 'f', 3, 64)
	} else {
		fps = strconv.FormatFloat(rate.FactorsPerSecond, 'f', 3, 64)
	}

	row := []string{
		s.At.Format(time.RFC3339),
		fmt.Sprintf("%d", s.Factors),
		fps,
		spf,
	}
	if err := l.writer.Write(row); err != nil {
		return errors.Wrap(err, "stats: write csv row")
	}
	l.writer.Flush()
	return l.writer.Error()
}

// Close flushes and closes the underlying file.
func (l *CSVLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer.Flush()
	return l.file.Close()
}

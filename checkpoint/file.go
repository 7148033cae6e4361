// Atomic checkpoint writes, per spec.md section 4.9 and 5: the output file
// is never visible half-written. Grounded on the teacher's own disciplined
// file handling (explicit os.OpenFile flags, checked errors at every step in
// server/config.go's config loading); realized here via os.CreateTemp in
// the target directory followed by os.Rename, the standard Go atomic-write
// idiom.
package checkpoint

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Digest computes the blake2b-256 integrity digest over a term file's
// terms, independent of header formatting, so re-saving the same bitmap
// under a different header (e.g. a higher pmin) still yields the same
// digest iff the term set is unchanged.
func Digest(lines []string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", errors.Wrap(err, "checkpoint: blake2b init")
	}
	for _, l := range lines {
		if _, err := io.WriteString(h, l); err != nil {
			return "", errors.Wrap(err, "checkpoint: blake2b write")
		}
		if _, err := h.Write([]byte{'\n'}); err != nil {
			return "", errors.Wrap(err, "checkpoint: blake2b write")
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteAtomic writes header followed by lines to path via a temp file in
// the same directory, renamed into place only after a successful flush and
// close, so a reader never observes a partially written checkpoint. The
// digest is appended as a trailing comment line ("# digest <hex>") so
// ReadFile can verify it came back unmodified.
func WriteAtomic(path string, header Header, lines []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return errors.Wrap(err, "checkpoint: create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed away

	if err := WriteHeader(tmp, header); err != nil {
		tmp.Close()
		return errors.Wrap(err, "checkpoint: write header")
	}
	if err := WriteTerms(tmp, lines); err != nil {
		tmp.Close()
		return errors.Wrap(err, "checkpoint: write terms")
	}
	digest, err := Digest(lines)
	if err != nil {
		tmp.Close()
		return err
	}
	if _, err := fmt.Fprintf(tmp, "# digest %s\n", digest); err != nil {
		tmp.Close()
		return errors.Wrap(err, "checkpoint: write digest")
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "checkpoint: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "checkpoint: close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "checkpoint: rename into place")
	}
	return nil
}

// ReadFile parses a checkpoint written by WriteAtomic: the header, every
// term line, and (if present) the trailing digest comment, which is
// verified against the recomputed digest of the term lines.
func ReadFile(path string) (Header, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, errors.Wrap(err, "checkpoint: open")
	}
	defer f.Close()

	all, err := ReadTerms(f)
	if err != nil {
		return Header{}, nil, err
	}
	if len(all) == 0 {
		return Header{}, nil, errors.New("checkpoint: empty file")
	}

	header, err := ParseHeader(all[0])
	if err != nil {
		return Header{}, nil, err
	}

	var lines []string
	var storedDigest string
	for _, l := range all[1:] {
		if len(l) > 9 && l[:9] == "# digest " {
			storedDigest = l[9:]
			continue
		}
		lines = append(lines, l)
	}

	if storedDigest != "" {
		digest, err := Digest(lines)
		if err != nil {
			return Header{}, nil, err
		}
		if digest != storedDigest {
			return Header{}, nil, errors.Errorf("checkpoint: digest mismatch: file has %s, computed %s", storedDigest, digest)
		}
	}

	return header, lines, nil
}

// Package checkpoint implements the term-file formats and the atomic
// checkpoint write protocol of spec.md sections 4.9, 6.1, 6.2 and 6.5: ABC,
// ABCD and NewPGen header parsing/writing, and a blake2b-256 integrity
// digest over the body, replacing the teacher's unused pbkdf2 dependency
// with its sibling blake2b subpackage (both live under golang.org/x/crypto).
package checkpoint

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Format identifies which of the three header shapes a term file uses.
type Format int

const (
	FormatABC Format = iota
	FormatABCD
	FormatNewPGen
)

func (f Format) String() string {
	switch f {
	case FormatABC:
		return "ABC"
	case FormatABCD:
		return "ABCD"
	case FormatNewPGen:
		return "NewPGen"
	default:
		return "unknown"
	}
}

// Header is the parsed first line of a term file (spec.md section 6.1).
type Header struct {
	Format   Format
	Template string // ABC/ABCD only: e.g. "$a*2^$b+$c"
	Start    int64  // ABCD only: the base value deltas are added to
	Pmin     uint64 // min-prime floor already sieved
	// NewPGen-only numeric prefix fields.
	NPFlag, NPMode, NPBase, NPCode int64
}

// ParseHeader parses one of the three header shapes. ABC/ABCD headers carry
// a "// Sieved to <pmin>" trailing comment; NewPGen headers are a bare
// colon-separated numeric prefix with no such comment.
func ParseHeader(line string) (Header, error) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "ABCD "):
		return parseABCLike(line, FormatABCD)
	case strings.HasPrefix(line, "ABC "):
		return parseABCLike(line, FormatABC)
	default:
		return parseNewPGen(line)
	}
}

func parseABCLike(line string, format Format) (Header, error) {
	rest := strings.TrimPrefix(line, format.String()+" ")
	idx := strings.Index(rest, "//")
	var templatePart, commentPart string
	if idx >= 0 {
		templatePart = strings.TrimSpace(rest[:idx])
		commentPart = strings.TrimSpace(rest[idx+2:])
	} else {
		templatePart = strings.TrimSpace(rest)
	}

	h := Header{Format: format}

	if format == FormatABCD {
		fields := strings.Fields(templatePart)
		if len(fields) < 2 {
			return Header{}, errors.Errorf("checkpoint: ABCD header missing start value: %q", line)
		}
		h.Template = strings.Join(fields[:len(fields)-1], " ")
		start, err := strconv.ParseInt(strings.Trim(fields[len(fields)-1], "[]"), 10, 64)
		if err != nil {
			return Header{}, errors.Wrapf(err, "checkpoint: ABCD start value %q", fields[len(fields)-1])
		}
		h.Start = start
	} else {
		h.Template = templatePart
	}

	if commentPart != "" {
		pmin, err := parseSievedTo(commentPart)
		if err != nil {
			return Header{}, err
		}
		h.Pmin = pmin
	}
	return h, nil
}

func parseSievedTo(comment string) (uint64, error) {
	const marker = "Sieved to"
	idx := strings.Index(comment, marker)
	if idx < 0 {
		return 0, nil
	}
	numStr := strings.TrimSpace(comment[idx+len(marker):])
	numStr = strings.Fields(numStr)[0]
	pmin, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "checkpoint: Sieved to value %q", numStr)
	}
	return pmin, nil
}

func parseNewPGen(line string) (Header, error) {
	parts := strings.Split(line, ":")
	if len(parts) != 5 {
		return Header{}, errors.Errorf("checkpoint: not a recognised header: %q", line)
	}
	nums := make([]int64, 5)
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return Header{}, errors.Wrapf(err, "checkpoint: NewPGen field %d %q", i, p)
		}
		nums[i] = n
	}
	return Header{
		Format: FormatNewPGen,
		Pmin:   uint64(nums[0]),
		NPFlag: nums[1],
		NPMode: nums[2],
		NPBase: nums[3],
		NPCode: nums[4],
	}, nil
}

// WriteHeader writes h's single header line, matching the shape ParseHeader
// accepts.
func WriteHeader(w io.Writer, h Header) error {
	var line string
	switch h.Format {
	case FormatABC:
		line = fmt.Sprintf("ABC %s // Sieved to %d", h.Template, h.Pmin)
	case FormatABCD:
		line = fmt.Sprintf("ABCD %s [%d] // Sieved to %d", h.Template, h.Start, h.Pmin)
	case FormatNewPGen:
		line = fmt.Sprintf("%d:%d:%d:%d:%d", h.Pmin, h.NPFlag, h.NPMode, h.NPBase, h.NPCode)
	default:
		return errors.Errorf("checkpoint: unknown format %v", h.Format)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// ReadTerms reads every remaining line after the header as a raw integer
// tuple line (family-specific interpretation of the template's placeholders
// is the caller's responsibility; this package only owns the header and the
// line-oriented framing).
func ReadTerms(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "checkpoint: read terms")
	}
	return lines, nil
}

// WriteTerms writes one term line per entry, in order.
func WriteTerms(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := fmt.Fprintln(bw, l); err != nil {
			return errors.Wrap(err, "checkpoint: write terms")
		}
	}
	return bw.Flush()
}

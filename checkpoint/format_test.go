package checkpoint

import (
	"io"
	"testing"
)

func TestParseHeaderABC(t *testing.T) {
	h, err := ParseHeader("ABC $a*2^$b+$c // Sieved to 1000000")
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Format != FormatABC {
		t.Fatalf("Format = %v, want ABC", h.Format)
	}
	if h.Template != "$a*2^$b+$c" {
		t.Fatalf("Template = %q", h.Template)
	}
	if h.Pmin != 1000000 {
		t.Fatalf("Pmin = %d, want 1000000", h.Pmin)
	}
}

func TestParseHeaderABCD(t *testing.T) {
	h, err := ParseHeader("ABCD $a*2^$b+1 [100] // Sieved to 500")
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Format != FormatABCD {
		t.Fatalf("Format = %v, want ABCD", h.Format)
	}
	if h.Start != 100 {
		t.Fatalf("Start = %d, want 100", h.Start)
	}
	if h.Pmin != 500 {
		t.Fatalf("Pmin = %d, want 500", h.Pmin)
	}
}

func TestParseHeaderNewPGen(t *testing.T) {
	h, err := ParseHeader("12345:0:2:2:1")
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Format != FormatNewPGen {
		t.Fatalf("Format = %v, want NewPGen", h.Format)
	}
	if h.Pmin != 12345 || h.NPMode != 2 || h.NPBase != 2 || h.NPCode != 1 {
		t.Fatalf("unexpected fields: %+v", h)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	cases := []Header{
		{Format: FormatABC, Template: "$a*3^$b-1", Pmin: 42},
		{Format: FormatABCD, Template: "$a*2^$b+1", Start: 7, Pmin: 99},
		{Format: FormatNewPGen, Pmin: 10, NPFlag: 0, NPMode: 1, NPBase: 3, NPCode: 2},
	}
	for _, want := range cases {
		var buf stringWriter
		if err := WriteHeader(&buf, want); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		got, err := ParseHeader(buf.String())
		if err != nil {
			t.Fatalf("ParseHeader(%q): %v", buf.String(), err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}

func TestReadWriteTermsRoundTrip(t *testing.T) {
	lines := []string{"3 5 1", "7 11 1", "9 13 1"}
	var buf stringWriter
	if err := WriteTerms(&buf, lines); err != nil {
		t.Fatalf("WriteTerms: %v", err)
	}
	got, err := ReadTerms(&buf)
	if err != nil {
		t.Fatalf("ReadTerms: %v", err)
	}
	if len(got) != len(lines) {
		t.Fatalf("got %d lines, want %d", len(got), len(lines))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], lines[i])
		}
	}
}

// stringWriter is a minimal io.Writer/io.Reader double for round-trip tests
// that avoids pulling in bytes.Buffer just to exercise string plumbing.
type stringWriter struct{ s string }

func (w *stringWriter) Write(p []byte) (int, error) {
	w.s += string(p)
	return len(p), nil
}
func (w *stringWriter) String() string { return w.s }
func (w *stringWriter) Read(p []byte) (int, error) {
	n := copy(p, w.s)
	w.s = w.s[n:]
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

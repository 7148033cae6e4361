// Package family defines the FamilySieve trait (spec.md section 4.4): the
// per-family predicate every concrete term family (Carol/Kynea, generic
// k*b^n+c, Twin) implements. The Driver only ever talks to this interface;
// there is no virtual-dispatch App/Worker hierarchy, per the design note in
// spec.md section 9 replacing the source's class hierarchy with a single
// capability set.
package family

// FactorEvent is the tuple (p, coord) emitted by a family predicate and
// consumed by the bitmap and the factor logger, per the glossary.
type FactorEvent struct {
	P     uint64
	Coord int64
	// Term is the printable form of the divided term, e.g.
	// "12345*2^9876+1", filled in lazily by the family on request so the
	// hot predicate path never formats strings it might discard.
	Term func() string
}

// Sieve is the capability set every term family implements.
type Sieve interface {
	// Name identifies the family for checkpoint headers and logging.
	Name() string

	// OnPrimeChunk applies every hit it finds to the family's own bitmap
	// via TermBitmap.ReportFactor and returns only the events that
	// actually caused a 1->0 transition (BW2): a factor already cleared by
	// an earlier prime is never reported twice. May batch primes
	// internally in lanes of four if SupportsLane4 is true.
	OnPrimeChunk(primes []uint64) []FactorEvent

	// SupportsLane4 declares whether OnPrimeChunk can process primes in
	// batches of four (a Vec4Modulus capability query), replacing the
	// source's "not implemented" runtime-abort stubs: the driver never
	// calls an unsupported entry point.
	SupportsLane4() bool

	// VerifyFactor independently recomputes the family's evaluation at
	// coord modulo p and asserts it is zero. Every reported factor is
	// verified before being recorded (spec.md section 4.4, section 8).
	VerifyFactor(p uint64, coord int64) error

	// SingleWorkerThreshold is the prime above which the family's bitmap
	// writes take the coarse mutex (spec.md section 4.3); below it the
	// driver must guarantee only one worker is active.
	SingleWorkerThreshold() uint64

	// RemainingTerms reports how many candidate terms are still set.
	RemainingTerms() uint64

	// WriteTerms emits one line per term still remaining, in the family's
	// own line format (the shape LoadTerms reads back). The lines do not
	// carry the largest prime fully tested; the checkpoint header the
	// driver writes around them does.
	WriteTerms(w TermWriter, largestPrime uint64) error

	// ApplyPrefactored parses one line of an external factor file and
	// clears the corresponding bit if present, reporting whether it did.
	ApplyPrefactored(factorLine string) (bool, error)

	// LoadTerms reconstructs the bitmap from a checkpoint's remaining-terms
	// lines, the inverse of WriteTerms: every coordinate named by a line
	// stays a candidate, everything else is treated as already factored
	// (spec.md section 6.2/6.5's round-trip contract).
	LoadTerms(lines []string) error

	// RebuildNeeded reports whether the family wants FamilyState rebuilt at
	// the current largest-prime-tested boundary (spec.md section 4.8's
	// rebuild trigger).
	RebuildNeeded(largestPrimeTested uint64) bool

	// Rebuild reconstructs any family-specific tables for the current
	// largest-prime-tested boundary.
	Rebuild(largestPrimeTested uint64)
}

// TermWriter is the narrow io.Writer-shaped sink WriteTerms emits to; kept
// as its own interface so test doubles don't need a full os.File.
type TermWriter interface {
	WriteString(s string) (int, error)
}

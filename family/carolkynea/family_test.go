package carolkynea

import (
	"testing"
)

func TestEliminatesDegenerateN1(t *testing.T) {
	_, records := New(2, 1, 10)
	if len(records) == 0 {
		t.Fatal("expected n=1, base<=4 to be eliminated as degenerate")
	}
}

func TestOnPrimeChunkFindsVerifiableFactors(t *testing.T) {
	f, _ := New(2, 1, 30)

	// Sieve a modest range of primes; every factor event the family emits
	// must independently verify.
	primes := []uint64{3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}
	events := f.OnPrimeChunk(primes)

	if len(events) == 0 {
		t.Fatal("expected at least one factor in n in [1,30] for base 2")
	}
	for _, e := range events {
		if err := f.VerifyFactor(e.P, e.Coord); err != nil {
			t.Fatalf("VerifyFactor failed for p=%d coord=%d: %v", e.P, e.Coord, err)
		}
		if e.Term() == "" {
			t.Fatal("expected a non-empty term string")
		}
	}
}

func TestOnPrimeChunkReportsEachFactorOnce(t *testing.T) {
	f, _ := New(2, 1, 30)
	primes := []uint64{3, 5, 7, 11, 13}
	first := f.OnPrimeChunk(primes)
	second := f.OnPrimeChunk(primes)
	if len(second) != 0 {
		t.Fatalf("expected no repeated factor events on a second pass over the same primes, got %d", len(second))
	}
	_ = first
}

func TestRemainingTermsDecreasesMonotonically(t *testing.T) {
	f, _ := New(2, 1, 30)
	before := f.RemainingTerms()
	f.OnPrimeChunk([]uint64{3, 5, 7, 11, 13, 17, 19, 23, 29, 31})
	after := f.RemainingTerms()
	if after > before {
		t.Fatalf("RemainingTerms increased: before=%d after=%d", before, after)
	}
}

func TestSkipsPrimesDividingBase(t *testing.T) {
	f, _ := New(2, 1, 10)
	// 2 divides the base; must not panic or spuriously report.
	events := f.OnPrimeChunk([]uint64{2})
	if len(events) != 0 {
		t.Fatalf("expected no events for a prime dividing the base, got %d", len(events))
	}
}

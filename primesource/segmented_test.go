package primesource

import "testing"

func TestNextChunkMatchesKnownPrimes(t *testing.T) {
	want := []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}
	s := New(2)
	got := s.NextChunk(len(want))
	if len(got) != len(want) {
		t.Fatalf("got %d primes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("prime[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNextChunkAscendingAcrossSegments(t *testing.T) {
	s := New(2)
	s.segmentSize = 32 // force many segment boundaries
	primes := s.NextChunk(500)
	for i := 1; i < len(primes); i++ {
		if primes[i] <= primes[i-1] {
			t.Fatalf("not strictly ascending at %d: %d <= %d", i, primes[i], primes[i-1])
		}
	}
	// Spot check against a couple of well-known primes in range.
	seen := map[uint64]bool{}
	for _, p := range primes {
		seen[p] = true
	}
	for _, want := range []uint64{97, 997} {
		if !seen[want] {
			t.Fatalf("expected %d among first 500 primes", want)
		}
	}
}

func TestSkipToRepositions(t *testing.T) {
	s := New(2)
	s.SkipTo(100)
	got := s.NextChunk(3)
	for _, p := range got {
		if p < 100 {
			t.Fatalf("prime %d below SkipTo floor 100", p)
		}
	}
	if got[0] != 101 {
		t.Fatalf("first prime >= 100 = %d, want 101", got[0])
	}
}

func TestNoCompositesLeakThrough(t *testing.T) {
	s := New(2)
	primes := s.NextChunk(1000)
	isPrime := func(n uint64) bool {
		if n < 2 {
			return false
		}
		for p := uint64(2); p*p <= n; p++ {
			if n%p == 0 {
				return false
			}
		}
		return true
	}
	for _, p := range primes {
		if !isPrime(p) {
			t.Fatalf("%d is not prime", p)
		}
	}
}

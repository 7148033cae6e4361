// Package primesource implements the segmented sieve of Eratosthenes
// described in spec.md section 4.7: the in-core stand-in for the original's
// external primesieve dependency, which spec.md's Non-goals explicitly
// exclude. No teacher analogue exists (kcptun has no number-theoretic
// component); this package is built directly from the spec's
// "segmented sieve, NextChunk(n)/SkipTo(floor)" contract.
package primesource

import "math"

const defaultSegmentSize = 1 << 16

// Source generates primes in strictly ascending order via a segmented sieve,
// reusing one base-prime list (up to sqrt of the current segment ceiling)
// across segments.
type Source struct {
	segmentSize int
	low         uint64 // inclusive floor of the next segment to sieve
	base        []uint64
	baseLimit   uint64 // base is complete for sieving segments below baseLimit^2

	pending []uint64 // primes found in the current segment, not yet drained
}

// New builds a Source that starts emitting primes at or after floor.
func New(floor uint64) *Source {
	if floor < 2 {
		floor = 2
	}
	return &Source{
		segmentSize: defaultSegmentSize,
		low:         floor,
		base:        []uint64{2, 3, 5, 7},
		baseLimit:   7,
	}
}

// SkipTo discards any buffered primes below floor and repositions the
// source so the next NextChunk starts sieving from floor, per spec.md
// section 4.7's resume contract (restarting a checkpoint at a saved
// largest-prime-tested boundary).
func (s *Source) SkipTo(floor uint64) {
	if floor < 2 {
		floor = 2
	}
	s.low = floor
	s.pending = nil
}

// NextChunk returns up to n primes at or after the source's current
// position, sieving additional segments as needed.
func (s *Source) NextChunk(n int) []uint64 {
	out := make([]uint64, 0, n)
	for len(out) < n {
		if len(s.pending) == 0 {
			s.sieveNextSegment()
			if len(s.pending) == 0 {
				// Only possible if segmentSize is absurdly small; guard
				// against an infinite loop by growing it once.
				s.segmentSize *= 2
				continue
			}
		}
		take := n - len(out)
		if take > len(s.pending) {
			take = len(s.pending)
		}
		out = append(out, s.pending[:take]...)
		s.pending = s.pending[take:]
	}
	return out
}

// sieveNextSegment sieves [s.low, s.low+segmentSize) and appends every prime
// found to s.pending, advancing s.low past the segment.
func (s *Source) sieveNextSegment() {
	lo := s.low
	hi := lo + uint64(s.segmentSize)

	s.ensureBasePrimes(hi)

	isComposite := make([]bool, hi-lo)
	for _, p := range s.base {
		if p*p >= hi {
			break
		}
		start := ((lo + p - 1) / p) * p
		if start < p*p {
			start = p * p
		}
		for m := start; m < hi; m += p {
			isComposite[m-lo] = true
		}
	}

	for v := lo; v < hi; v++ {
		if v < 2 {
			continue
		}
		if !isComposite[v-lo] {
			s.pending = append(s.pending, v)
		}
	}
	s.low = hi
}

// ensureBasePrimes grows s.base (by trial division, which only runs for the
// small set of primes up to sqrt(hi)) until it covers every prime up to
// sqrt(hi).
func (s *Source) ensureBasePrimes(hi uint64) {
	limit := uint64(math.Sqrt(float64(hi))) + 1
	if limit <= s.baseLimit {
		return
	}
	cand := s.baseLimit + 1
	if cand%2 == 0 {
		cand++
	}
	for ; cand <= limit; cand += 2 {
		if isPrimeTrial(cand, s.base) {
			s.base = append(s.base, cand)
		}
	}
	s.baseLimit = limit
}

func isPrimeTrial(n uint64, known []uint64) bool {
	for _, p := range known {
		if p*p > n {
			break
		}
		if n%p == 0 {
			return false
		}
	}
	return true
}

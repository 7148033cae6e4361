// Package kbnc implements the generic single-sequence k*b^n+c family
// (spec.md section 3, "family-specific predicates"), covering Sierpinski/
// Riesel-shaped searches such as 27*2^n-1. Grounded on
// original_source/sierpinski_riesel/CisOneWithMultipleSequencesHelper.cpp
// for the discrete-log search shape, specialised here to a single k (one
// sequence), using the shared babygiant.Engine rather than a bespoke walk.
package kbnc

import (
	"fmt"

	"github.com/mtsieve/mtsieve/algebraic"
	"github.com/mtsieve/mtsieve/babygiant"
	"github.com/mtsieve/mtsieve/family"
	"github.com/mtsieve/mtsieve/montgomery"
	"github.com/mtsieve/mtsieve/termbitmap"
)

// SingleWorkerThreshold is the prime above which bitmap writes take the
// coarse mutex (spec.md section 4.3).
const SingleWorkerThreshold = 1 << 20

// HashMax bounds the baby-step table size handed to babygiant.Engine.
const HashMax = 1 << 16

// Family implements family.Sieve for k*b^n+c over n in [MinN, MaxN].
type Family struct {
	k, b uint64
	c    int64
	minN, maxN int64

	bitmap *termbitmap.Bitmap
	engine *babygiant.Engine
}

// New builds a Family for k*b^n+c, n in [minN, maxN]. Its algebraic
// pre-sieve step only detects whether k is a perfect power and, if so,
// returns one record saying so (Coord -1); it clears no terms.
func New(k, b uint64, c int64, minN, maxN int64) (*Family, []algebraic.Record) {
	bm := termbitmap.New(maxN - minN + 1)
	f := &Family{k: k, b: b, c: c, minN: minN, maxN: maxN, bitmap: bm, engine: babygiant.New(b)}

	var records []algebraic.Record
	if isPow, _, _ := algebraic.EliminateKBNPerfectPowerK(k); isPow {
		// The perfect-power split itself is family/base-specific (requires
		// knowing whether b is also a matching power); record the
		// detection but leave elimination to a future refinement, per
		// spec.md section 4.11's note that b = r^a detection is the
		// family's own responsibility.
		records = append(records, algebraic.Record{Coord: -1, Reason: fmt.Sprintf("k=%d is a perfect power", k)})
	}
	return f, records
}

func (f *Family) coord(n int64) int64 { return n - f.minN }

func (f *Family) decode(coord int64) int64 { return f.minN + coord }

// Name identifies the family for checkpoint headers and logging.
func (f *Family) Name() string {
	sign := "+"
	c := f.c
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%d*%d^n%s%d", f.k, f.b, sign, c)
}

// SupportsLane4 declares no 4-lane batching for this family: each prime
// runs its own baby-step/giant-step search with a table built for that
// prime, which does not benefit from 4-wide residue batching the way direct
// exponentiation families do.
func (f *Family) SupportsLane4() bool { return false }

// OnPrimeChunk runs the baby-step/giant-step search for each prime in the
// chunk and reports every hit through the shared bitmap.
func (f *Family) OnPrimeChunk(primes []uint64) []family.FactorEvent {
	var events []family.FactorEvent

	for _, p := range primes {
		// When p divides b or k, b^n (for n>=1) or k*b^n respectively
		// collapses to a constant residue: k*b^n+c is then either
		// identically ≡ c (mod p) for every n, or never zero. No discrete
		// log is needed; handle both degenerate cases directly rather
		// than feeding them to the baby-step/giant-step engine, which
		// assumes b is invertible mod p.
		if f.b%p == 0 || f.k%p == 0 {
			if f.c%int64(p) != 0 {
				continue
			}
			for n := f.minN; n <= f.maxN; n++ {
				events = append(events, f.reportHit(p, n)...)
			}
			continue
		}

		seq := babygiant.Sequence{
			NMin: f.minN,
			NMax: f.maxN,
			TargetResidue: func(m montgomery.Modulus) uint64 {
				// k*b^n+c ≡ 0 (mod p)  <=>  b^n ≡ -c/k (mod p).
				kRes := m.ToResidue(f.k % p)
				kInv := modInverse(kRes, m, p)
				negC := negMod(f.c, p)
				return m.Mul(m.ToResidue(negC), kInv)
			},
		}

		hits := f.engine.Search(p, []babygiant.Sequence{seq}, HashMax, nil)
		for _, h := range hits {
			if h.N < f.minN || h.N > f.maxN {
				continue
			}
			events = append(events, f.reportHit(p, h.N)...)
		}
	}

	return events
}

// reportHit verifies the candidate hit, then clears the bit for n if still
// set, returning a one-element slice with the resulting FactorEvent (or nil
// if verification failed or the bit was already clear, per BW2: no
// duplicate reports for the same transition). Verifying before clearing
// keeps a bad hit from being recorded behind an already-cleared term
// (spec.md section 4.4).
func (f *Family) reportHit(p uint64, n int64) []family.FactorEvent {
	coord := f.coord(n)
	if f.VerifyFactor(p, coord) != nil {
		return nil
	}
	if !f.bitmap.ReportFactor(p, coord, SingleWorkerThreshold) {
		return nil
	}
	capturedP, capturedN := p, n
	return []family.FactorEvent{{
		P:     capturedP,
		Coord: coord,
		Term:  func() string { return f.termString(capturedN) },
	}}
}

func modInverse(resA uint64, m montgomery.Modulus, p uint64) uint64 {
	return m.Pow(resA, p-2)
}

func negMod(c int64, p uint64) uint64 {
	r := ((-c) % int64(p) + int64(p)) % int64(p)
	return uint64(r)
}

func (f *Family) termString(n int64) string {
	sign := "+"
	c := f.c
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%d*%d^%d%s%d", f.k, f.b, n, sign, c)
}

// VerifyFactor independently recomputes k*b^n+c modulo p and asserts it is
// zero, per spec.md section 4.4 and 8.
func (f *Family) VerifyFactor(p uint64, coord int64) error {
	n := f.decode(coord)
	m := montgomery.NewModulus(p)
	resBase := m.ToResidue(f.b % p)
	bn := m.Pow(resBase, modN(n, p))
	term := m.Mul(m.ToResidue(f.k%p), bn)
	val := m.Add(term, m.ToResidue(negMod(-f.c, p)))
	if val != 0 {
		return fmt.Errorf("kbnc: verify failed at p=%d n=%d: residue=%d", p, n, val)
	}
	return nil
}

// modN returns n as an exponent for Pow. Pow's square-and-multiply cost is
// only O(log n), so there is no need to reduce the exponent mod p-1 (doing
// so would also be wrong whenever p | b, where the multiplicative order
// argument underlying Fermat's little theorem does not apply).
func modN(n int64, p uint64) uint64 {
	if n < 0 {
		n = 0
	}
	return uint64(n)
}

// SingleWorkerThreshold is the prime above which bitmap writes take the
// coarse mutex (spec.md section 4.3).
func (f *Family) SingleWorkerThreshold() uint64 { return SingleWorkerThreshold }

// RemainingTerms reports how many candidate terms are still set.
func (f *Family) RemainingTerms() uint64 { return f.bitmap.TermCount() }

// WriteTerms emits every remaining n as a bare "<n>" line (the absolute
// exponent, not a delta), the shape LoadTerms reads back.
func (f *Family) WriteTerms(w family.TermWriter, largestPrime uint64) error {
	for coord := int64(0); coord < f.bitmap.Len(); coord++ {
		if !f.bitmap.Test(coord) {
			continue
		}
		if _, err := w.WriteString(fmt.Sprintf("%d\n", f.decode(coord))); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPrefactored parses one line of an external factor file ("<p> <n>")
// and clears the corresponding bit if present.
func (f *Family) ApplyPrefactored(factorLine string) (bool, error) {
	var p uint64
	var n int64
	if _, err := fmt.Sscanf(factorLine, "%d %d", &p, &n); err != nil {
		return false, err
	}
	return f.bitmap.ReportFactor(p, f.coord(n), SingleWorkerThreshold), nil
}

// LoadTerms reconstructs the bitmap from a checkpoint's remaining-terms
// lines (each a bare "<n>", the shape WriteTerms emits): every n present in
// lines stays a candidate, everything else is treated as already factored.
func (f *Family) LoadTerms(lines []string) error {
	present := make(map[int64]bool, len(lines))
	for _, line := range lines {
		var n int64
		if _, err := fmt.Sscanf(line, "%d", &n); err != nil {
			return err
		}
		present[f.coord(n)] = true
	}
	f.bitmap.RestoreRemaining(present)
	return nil
}

// RebuildNeeded reports false: the babygiant engine builds its tables fresh
// per prime already, so there is no persistent table to rebuild.
func (f *Family) RebuildNeeded(largestPrimeTested uint64) bool { return false }

// Rebuild is a no-op for this family.
func (f *Family) Rebuild(largestPrimeTested uint64) {}

// Package carolkynea implements the combined Carol/Kynea family predicate:
// Carol numbers (b^n-1)^2-2 and Kynea numbers (b^n+1)^2-2 for a fixed base
// b, sieved together since both reduce to the same quadratic-residue-of-2
// test. Grounded directly on
// original_source/carol_kynea/CarolKyneaWorker.cpp (TestMegaPrimeChunk,
// FindRoot, DiscreteLog): per spec.md section 9's design note, this family
// uses direct Montgomery exponentiation rather than the shared babygiant
// engine, since the source's own worker does the same (a dedicated
// order-of-b walk, not the multi-sequence baby/giant table).
package carolkynea

import (
	"fmt"

	"github.com/mtsieve/mtsieve/algebraic"
	"github.com/mtsieve/mtsieve/family"
	"github.com/mtsieve/mtsieve/montgomery"
	"github.com/mtsieve/mtsieve/termbitmap"
)

// kind distinguishes which of the two numbers a coordinate names.
type kind int

const (
	kindCarol kind = iota // (b^n-1)^2-2
	kindKynea
)

// SingleWorkerThreshold is the prime above which bitmap writes must take the
// coarse mutex (spec.md section 4.3); below it the driver guarantees only
// one worker is live for this family.
const SingleWorkerThreshold = 1 << 20

// Family implements family.Sieve for the combined Carol/Kynea search over
// n in [MinN, MaxN] at a fixed base.
type Family struct {
	base       uint64
	minN, maxN int64

	bitmap *termbitmap.Bitmap
}

// New builds a Family over n in [minN, maxN] for the given base, after
// applying the algebraic pre-sieve elimination of spec.md section 4.11
// (n=1, base<=4 is a known-degenerate case). The second return value holds
// the records produced by that pass.
func New(base uint64, minN, maxN int64) (*Family, []algebraic.Record) {
	span := (maxN - minN + 1) * 2 // two kinds per n
	bm := termbitmap.New(span)
	f := &Family{base: base, minN: minN, maxN: maxN, bitmap: bm}

	records := algebraic.EliminateCarolKynea(base, minN, func(n int64) bool {
		cleared := false
		if bm.ReportFactor(0, f.coord(kindCarol, n), SingleWorkerThreshold) {
			cleared = true
		}
		if bm.ReportFactor(0, f.coord(kindKynea, n), SingleWorkerThreshold) {
			cleared = true
		}
		return cleared
	})
	return f, records
}

func (f *Family) coord(k kind, n int64) int64 {
	return (n-f.minN)*2 + int64(k)
}

func (f *Family) decode(coord int64) (kind, int64) {
	n := f.minN + coord/2
	k := kind(coord % 2)
	return k, n
}

// Name identifies the family for checkpoint headers and logging.
func (f *Family) Name() string { return "CarolKynea" }

// SupportsLane4 declares no 4-lane fast path; the per-prime quadratic
// residue test and Tonelli-Shanks root search do not vectorize cleanly.
func (f *Family) SupportsLane4() bool { return false }

// OnPrimeChunk implements the per-prime search of
// CarolKyneaWorker::TestMegaPrimeChunk/DiscreteLog: skip primes dividing the
// base, skip primes where 2 is not a quadratic residue, find the two square
// roots of 2, then scan n directly (Montgomery exponentiation, no baby-step
// table) for b^n matching one of the four target residues.
func (f *Family) OnPrimeChunk(primes []uint64) []family.FactorEvent {
	var events []family.FactorEvent

	for _, p := range primes {
		if f.base%p == 0 {
			continue
		}
		root1, ok := montgomery.SqrtModP(2, p)
		if !ok {
			continue
		}

		m := montgomery.NewModulus(p)
		resRoot1 := m.ToResidue(root1)
		resRoot2 := m.Sub(m.ToResidue(0), resRoot1) // -root1 mod p

		one := m.One()
		targets := [4]uint64{
			m.Sub(resRoot1, one), // Kynea, root1
			m.Sub(resRoot2, one), // Kynea, root2
			m.Add(resRoot1, one), // Carol, root1
			m.Add(resRoot2, one), // Carol, root2
		}
		targetKind := [4]kind{kindKynea, kindKynea, kindCarol, kindCarol}

		resBase := m.ToResidue(f.base % p)
		// Precompute b^minN mod p by direct exponentiation, then step by
		// one multiplication per n (the "direct Montgomery exponentiation"
		// path: no baby/giant tables for this family).
		cur := m.Pow(resBase, modN(f.minN, p))

		for n := f.minN; n <= f.maxN; n++ {
			for i, t := range targets {
				if cur == t {
					k := targetKind[i]
					coord := f.coord(k, n)
					// Verify before clearing: a bit cleared ahead of
					// verification would hide a bad hit behind an already-
					// cleared term (spec.md section 4.4).
					if f.VerifyFactor(p, coord) != nil {
						continue
					}
					if f.bitmap.ReportFactor(p, coord, SingleWorkerThreshold) {
						capturedP, capturedN, capturedKind := p, n, k
						events = append(events, family.FactorEvent{
							P:     capturedP,
							Coord: coord,
							Term:  func() string { return f.termString(capturedKind, capturedN) },
						})
					}
				}
			}
			cur = m.Mul(cur, resBase)
		}
	}

	return events
}

// modN reduces an exponent n into [0, p-1) via Fermat's little theorem (the
// multiplicative order of any residue divides p-1), since n may be large
// relative to p.
func modN(n int64, p uint64) uint64 {
	if n < 0 {
		n = 0
	}
	if p <= 1 {
		return uint64(n)
	}
	return uint64(n) % (p - 1)
}

func (f *Family) termString(k kind, n int64) string {
	if k == kindCarol {
		return fmt.Sprintf("(%d^%d-1)^2-2", f.base, n)
	}
	return fmt.Sprintf("(%d^%d+1)^2-2", f.base, n)
}

// VerifyFactor independently recomputes the family's evaluation at coord
// modulo p and asserts it is zero, per spec.md section 4.4 and 8.
func (f *Family) VerifyFactor(p uint64, coord int64) error {
	k, n := f.decode(coord)
	m := montgomery.NewModulus(p)
	resBase := m.ToResidue(f.base % p)
	bn := m.Pow(resBase, modN(n, p))

	var val uint64
	if k == kindCarol {
		t := m.Sub(bn, m.One())
		val = m.Sub(m.Mul(t, t), m.ToResidue(2%p))
	} else {
		t := m.Add(bn, m.One())
		val = m.Sub(m.Mul(t, t), m.ToResidue(2%p))
	}
	if val != 0 {
		return fmt.Errorf("carolkynea: verify failed at p=%d n=%d kind=%d: residue=%d", p, n, k, val)
	}
	return nil
}

// SingleWorkerThreshold is the prime above which bitmap writes take the
// coarse mutex (spec.md section 4.3).
func (f *Family) SingleWorkerThreshold() uint64 { return SingleWorkerThreshold }

// RemainingTerms reports how many candidate terms are still set.
func (f *Family) RemainingTerms() uint64 { return f.bitmap.TermCount() }

// WriteTerms emits every remaining (kind, n) pair as a "<kind> <n>" line
// (kind 0 is Carol, 1 is Kynea), the shape LoadTerms reads back.
func (f *Family) WriteTerms(w family.TermWriter, largestPrime uint64) error {
	for coord := int64(0); coord < f.bitmap.Len(); coord++ {
		if !f.bitmap.Test(coord) {
			continue
		}
		k, n := f.decode(coord)
		if _, err := w.WriteString(fmt.Sprintf("%d %d\n", k, n)); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPrefactored parses one line of an external factor file ("<p> <kind>
// <n>") and clears the corresponding bit if present.
func (f *Family) ApplyPrefactored(factorLine string) (bool, error) {
	var p uint64
	var k int
	var n int64
	if _, err := fmt.Sscanf(factorLine, "%d %d %d", &p, &k, &n); err != nil {
		return false, err
	}
	return f.bitmap.ReportFactor(p, f.coord(kind(k), n), SingleWorkerThreshold), nil
}

// LoadTerms reconstructs the bitmap from a checkpoint's remaining-terms
// lines (each "<kind> <n>", the shape WriteTerms emits): every coordinate
// present in lines stays a candidate, everything else is treated as already
// factored.
func (f *Family) LoadTerms(lines []string) error {
	present := make(map[int64]bool, len(lines))
	for _, line := range lines {
		var k int
		var n int64
		if _, err := fmt.Sscanf(line, "%d %d", &k, &n); err != nil {
			return err
		}
		present[f.coord(kind(k), n)] = true
	}
	f.bitmap.RestoreRemaining(present)
	return nil
}

// RebuildNeeded reports false: this family carries no tables that need
// periodic reconstruction (unlike babygiant-backed families).
func (f *Family) RebuildNeeded(largestPrimeTested uint64) bool { return false }

// Rebuild is a no-op for this family.
func (f *Family) Rebuild(largestPrimeTested uint64) {}

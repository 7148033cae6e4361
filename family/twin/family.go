// Package twin implements the k*b^n±1 family for a range of k at a fixed
// base and fixed n, tracking the plus and minus forms in one bitmap.
// Grounded on original_source/twin/TwinWorker.cpp's TestSmallB: for a fixed
// n, b^n mod p is one constant per prime, so every k with k ≡ ∓(b^n)^-1
// (mod p) is found by striding through the k range rather than by a
// discrete-log search.
package twin

import (
	"fmt"

	"github.com/mtsieve/mtsieve/family"
	"github.com/mtsieve/mtsieve/montgomery"
	"github.com/mtsieve/mtsieve/termbitmap"
)

// SingleWorkerThreshold is the prime above which bitmap writes take the
// coarse mutex (spec.md section 4.3).
const SingleWorkerThreshold = 1 << 20

const (
	signMinus = 0 // k*b^n-1
	signPlus  = 1 // k*b^n+1
)

// Family implements family.Sieve for k*b^n±1, k in [MinK, MaxK], fixed n.
type Family struct {
	base uint64
	n    int64
	minK, maxK int64

	bitmap *termbitmap.Bitmap
}

// New builds a Family over k in [minK, maxK] for the given base and fixed n.
func New(base uint64, n int64, minK, maxK int64) *Family {
	span := (maxK - minK + 1) * 2
	return &Family{base: base, n: n, minK: minK, maxK: maxK, bitmap: termbitmap.New(span)}
}

func (f *Family) coord(sign int, k int64) int64 {
	return (k-f.minK)*2 + int64(sign)
}

func (f *Family) decode(coord int64) (int, int64) {
	k := f.minK + coord/2
	return int(coord % 2), k
}

// Name identifies the family for checkpoint headers and logging.
func (f *Family) Name() string {
	return fmt.Sprintf("twin k*%d^%d+-1, k in [%d,%d]", f.base, f.n, f.minK, f.maxK)
}

// SupportsLane4 declares no 4-lane batching: bn/bnInv are each computed once
// per prime, not once per k, so there is no per-lane mulmod to batch.
func (f *Family) SupportsLane4() bool { return false }

// OnPrimeChunk computes bn = b^n mod p once per prime, then strides through
// the k range reporting every k matching either sign's residue class.
func (f *Family) OnPrimeChunk(primes []uint64) []family.FactorEvent {
	var events []family.FactorEvent

	for _, p := range primes {
		if f.base%p == 0 {
			continue
		}
		m := montgomery.NewModulus(p)
		resBase := m.ToResidue(f.base % p)
		bn := m.Pow(resBase, uint64(f.n))
		if bn == 0 {
			continue
		}
		bnInv := m.Pow(bn, p-2) // b^n inverse, via Fermat
		bnInvOrdinary := m.FromResidue(bnInv)

		// k*b^n+1 ≡ 0 (mod p)  <=>  k ≡ -(b^n)^-1 (mod p)
		kPlusResidue := (p - bnInvOrdinary) % p
		// k*b^n-1 ≡ 0 (mod p)  <=>  k ≡ (b^n)^-1 (mod p)
		kMinusResidue := bnInvOrdinary

		events = append(events, f.strideReport(p, signPlus, kPlusResidue)...)
		events = append(events, f.strideReport(p, signMinus, kMinusResidue)...)
	}

	return events
}

// strideReport finds the first k >= f.minK congruent to residue (mod p) and
// reports every matching k up to f.maxK. Each k is cleared individually
// (rather than via ReportFactorStrided) so only the k's actually causing a
// 1->0 transition at this p are returned, per BW2 — a shared
// ReportFactorStrided call cannot distinguish "cleared just now" from
// "already clear from an earlier prime".
func (f *Family) strideReport(p uint64, sign int, residue uint64) []family.FactorEvent {
	if f.maxK < f.minK {
		return nil
	}
	firstK := firstInRange(f.minK, f.maxK, int64(p), int64(residue))
	if firstK < f.minK {
		return nil
	}

	var events []family.FactorEvent
	for k := firstK; k <= f.maxK; k += int64(p) {
		coord := f.coord(sign, k)
		// Verify before clearing: an unverified clear would hide a bad hit
		// behind an already-cleared term (spec.md section 4.4).
		if f.VerifyFactor(p, coord) != nil {
			continue
		}
		if f.bitmap.ReportFactor(p, coord, SingleWorkerThreshold) {
			capturedP, capturedK, capturedSign := p, k, sign
			events = append(events, family.FactorEvent{
				P:     capturedP,
				Coord: coord,
				Term:  func() string { return f.termString(capturedSign, capturedK) },
			})
		}
	}
	return events
}

// firstInRange returns the smallest k >= lo with k mod modulus == residue,
// capped to return a value > hi if no such k exists within [lo, hi].
func firstInRange(lo, hi, modulus, residue int64) int64 {
	residue = ((residue % modulus) + modulus) % modulus
	rem := ((lo % modulus) + modulus) % modulus
	delta := residue - rem
	if delta < 0 {
		delta += modulus
	}
	k := lo + delta
	if k > hi {
		return hi + 1
	}
	return k
}

func (f *Family) termString(sign int, k int64) string {
	op := "-"
	if sign == signPlus {
		op = "+"
	}
	return fmt.Sprintf("%d*%d^%d%s1", k, f.base, f.n, op)
}

// VerifyFactor independently recomputes k*b^n±1 modulo p and asserts it is
// zero, per spec.md section 4.4 and 8.
func (f *Family) VerifyFactor(p uint64, coord int64) error {
	sign, k := f.decode(coord)
	m := montgomery.NewModulus(p)
	resBase := m.ToResidue(f.base % p)
	bn := m.Pow(resBase, uint64(f.n))
	term := m.Mul(m.ToResidue(uint64(k)%p), bn)
	var val uint64
	if sign == signPlus {
		val = m.Add(term, m.One())
	} else {
		val = m.Sub(term, m.One())
	}
	if val != 0 {
		return fmt.Errorf("twin: verify failed at p=%d k=%d sign=%d: residue=%d", p, k, sign, val)
	}
	return nil
}

// SingleWorkerThreshold is the prime above which bitmap writes take the
// coarse mutex (spec.md section 4.3).
func (f *Family) SingleWorkerThreshold() uint64 { return SingleWorkerThreshold }

// RemainingTerms reports how many candidate (k, sign) terms are still set.
func (f *Family) RemainingTerms() uint64 { return f.bitmap.TermCount() }

// WriteTerms emits every remaining (sign, k) pair.
func (f *Family) WriteTerms(w family.TermWriter, largestPrime uint64) error {
	for coord := int64(0); coord < f.bitmap.Len(); coord++ {
		if !f.bitmap.Test(coord) {
			continue
		}
		sign, k := f.decode(coord)
		if _, err := w.WriteString(fmt.Sprintf("%d %d\n", sign, k)); err != nil {
			return err
		}
	}
	return nil
}

// ApplyPrefactored parses one line of an external factor file ("<p> <sign>
// <k>") and clears the corresponding bit if present.
func (f *Family) ApplyPrefactored(factorLine string) (bool, error) {
	var p uint64
	var sign int
	var k int64
	if _, err := fmt.Sscanf(factorLine, "%d %d %d", &p, &sign, &k); err != nil {
		return false, err
	}
	return f.bitmap.ReportFactor(p, f.coord(sign, k), SingleWorkerThreshold), nil
}

// LoadTerms reconstructs the bitmap from a checkpoint's remaining-terms
// lines (each "<sign> <k>", the shape WriteTerms emits): every (sign, k)
// present in lines stays a candidate, everything else is treated as
// already factored.
func (f *Family) LoadTerms(lines []string) error {
	present := make(map[int64]bool, len(lines))
	for _, line := range lines {
		var sign int
		var k int64
		if _, err := fmt.Sscanf(line, "%d %d", &sign, &k); err != nil {
			return err
		}
		present[f.coord(sign, k)] = true
	}
	f.bitmap.RestoreRemaining(present)
	return nil
}

// RebuildNeeded reports false: this family has no tables to rebuild.
func (f *Family) RebuildNeeded(largestPrimeTested uint64) bool { return false }

// Rebuild is a no-op for this family.
func (f *Family) Rebuild(largestPrimeTested uint64) {}

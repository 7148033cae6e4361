// Package babygiant implements the generic baby-step/giant-step discrete-log
// search described in spec.md section 4.5, used by the Sierpinski/Riesel-
// shaped family/kbnc (family/carolkynea and family/twin do not use it). The
// work-estimate formula and order-detection repeat handling
// are grounded on
// original_source/sierpinski_riesel/CisOneWithMultipleSequencesHelper.cpp's
// RateQ/EstimateWork.
package babygiant

import (
	"math"

	"github.com/mtsieve/mtsieve/hashtable"
	"github.com/mtsieve/mtsieve/montgomery"
)

// Work-weight constants ported from CisOneWithMultipleSequencesHelper.cpp.
const (
	babyWork    = 1.1
	giantWork   = 1.0
	expWork     = 0.5
	subseqWork  = 1.0
)

// Sequence is one k*b^n+c-shaped search: n ranges over [nmin, nmax] with
// step 1 (callers restrict to a residue class by pre-filtering nmin/nmax),
// and TargetResidue(p) returns the Montgomery residue whose discrete log
// against b (mod p) is sought.
type Sequence struct {
	NMin, NMax     int64
	TargetResidue  func(m montgomery.Modulus) uint64
	// KCCore and HasKCCore feed the Legendre/Jacobi pre-filter (spec.md
	// section 4.5): sequences with |c|=1 can be skipped for a prime when
	// no solution is possible.
	KCCore uint64
	HasKCCore bool
}

// Hit is one discrete-log solution: n = NMin + i*m + j for giant step i
// (counted from 0) and baby step j, before any family-specific offset is
// added. The step size Q is always 1.
type Hit struct {
	SeqIndex int
	N        int64
}

// Engine runs the baby-step/giant-step search for a prime p against a fixed
// base b across multiple sequences sharing that base.
type Engine struct {
	B uint64
}

// New builds an Engine for base b.
func New(b uint64) *Engine { return &Engine{B: b} }

// chooseQM returns the baby-step count m and the giant-step count for the
// given range and number of sequences s, with the step size Q fixed at 1:
// m = round(sqrt(giantStepFactor*range/s)), capped at hashMax, and enough
// giant steps that m*giantSteps covers the range. No other Q is scored and
// no work estimate is consulted here.
func chooseQM(rangeN int64, s int, hashMax uint32) (m int64, giantSteps int64) {
	if s < 1 {
		s = 1
	}
	const giantStepFactor = 2.0
	m = int64(math.Round(math.Sqrt(giantStepFactor * float64(rangeN) / float64(s))))
	if m < 1 {
		m = 1
	}
	if uint32(m) > hashMax {
		m = int64(hashMax)
	}
	giantSteps = (rangeN + m - 1) / m
	if giantSteps < 1 {
		giantSteps = 1
	}
	return m, giantSteps
}

// EstimateWork mirrors EstimateWork() in the original source: the predicted
// cost of sieving s sequences over rangeN values of n with baby-step count m
// and giantSteps giant steps.
func EstimateWork(m, giantSteps int64, s int) float64 {
	return babyWork*float64(m) + giantWork*float64(s)*float64(giantSteps) + subseqWork*float64(s)
}

// Search runs the baby-step/giant-step discrete log for prime p across all
// given sequences sharing base b, returning every (sequence, n) hit. hashMax
// bounds the baby-step table (the family picks a hashtable tier sized to
// this bound). jacobiFilter, if non-nil, is consulted before building any
// tables for each sequence whose HasKCCore is set (the Legendre/Jacobi
// pre-filter of spec.md section 4.5): if it returns false the sequence is
// skipped for this prime. Sequences without HasKCCore are never filtered.
func (e *Engine) Search(p uint64, sequences []Sequence, hashMax uint32, jacobiFilter func(seq Sequence, p uint64) bool) []Hit {
	m := montgomery.NewModulus(p)

	// rB = b in Montgomery form (the baby-step multiplier); bInv = b^-1 mod
	// p, whose residue rBInv drives the giant steps.
	rB := m.ToResidue(e.B % p)
	bInv := modInverse(e.B, p)
	rBInv := m.ToResidue(bInv)

	var hits []Hit
	maxRange := int64(0)
	for _, seq := range sequences {
		r := seq.NMax - seq.NMin + 1
		if r > maxRange {
			maxRange = r
		}
	}
	if maxRange <= 0 {
		return nil
	}

	active := make([]int, 0, len(sequences))
	for i, seq := range sequences {
		if jacobiFilter != nil && seq.HasKCCore && !jacobiFilter(seq, p) {
			continue
		}
		active = append(active, i)
	}
	if len(active) == 0 {
		return nil
	}

	baM, giantSteps := chooseQM(maxRange, len(active), hashMax)

	table := hashtable.New(uint32(baM))
	table.Clear()

	// Baby steps: residues of rB^j for j in [0, baM). Insertions happen
	// strictly before giant-step lookups (the ordering contract). While
	// building the table, watch for the starting residue (m.One())
	// reappearing: that means ord_p(b) <= baM, so the table is periodic
	// with period order and every n congruent mod order shares a residue
	// (spec.md section 4.5's order-detection repeat-emission case).
	order := int64(0)
	cur := m.One()
	for j := int64(0); j < baM; j++ {
		table.Insert(cur, uint32(j))
		cur = m.Mul(cur, rB)
		if order == 0 && cur == m.One() {
			order = j + 1
		}
	}

	// giantStride = rBInv^m, applied once per giant step.
	giantStride := m.Pow(rBInv, uint64(baM))

	for _, idx := range active {
		seq := sequences[idx]
		// Shift the target by b^-NMin so a solution n is found as
		// n - NMin = i*baM + j.
		target := m.Mul(seq.TargetResidue(m), m.Pow(rBInv, uint64(seq.NMin)))
		rangeN := seq.NMax - seq.NMin + 1
		if rangeN <= 0 {
			continue
		}

		if order > 0 {
			// The baby table covers a full period of the cyclic subgroup
			// b generates, so a single lookup characterizes every n in
			// range: emit n0 + k*order for k = 0, 1, ... up to range,
			// where n0 is the smallest in-range n congruent to the hit.
			j := table.Lookup(target)
			if j != hashtable.NotFound32 {
				n0 := seq.NMin + (int64(j) % order)
				for n0 < seq.NMin {
					n0 += order
				}
				for n := n0; n <= seq.NMax; n += order {
					hits = append(hits, Hit{SeqIndex: idx, N: n})
				}
			}
			continue
		}

		cur := target
		for i := int64(0); i <= giantSteps; i++ {
			if j := table.Lookup(cur); j != hashtable.NotFound32 {
				n := seq.NMin + int64(j) + i*baM
				if n >= seq.NMin && n <= seq.NMax {
					hits = append(hits, Hit{SeqIndex: idx, N: n})
				}
			}
			cur = m.Mul(cur, giantStride)
		}
	}

	return hits
}

// modInverse computes a^-1 mod p for prime p via Fermat's little theorem
// (a^(p-2) mod p), using plain big-step modular exponentiation since this
// runs once per prime, not in the hot per-term loop.
func modInverse(a, p uint64) uint64 {
	m := montgomery.NewModulus(p)
	r := m.ToResidue(a % p)
	inv := m.Pow(r, p-2)
	return m.FromResidue(inv)
}

package babygiant

import (
	"testing"

	"github.com/mtsieve/mtsieve/montgomery"
)

func TestChooseQMRangeCovered(t *testing.T) {
	m, giantSteps := chooseQM(10000, 1, 4096)
	if m < 1 || m > 4096 {
		t.Fatalf("m=%d out of bounds", m)
	}
	if m*giantSteps < 10000 {
		t.Fatalf("m*giantSteps=%d does not cover range 10000", m*giantSteps)
	}
}

func TestEstimateWorkMonotonicInM(t *testing.T) {
	small := EstimateWork(10, 100, 1)
	large := EstimateWork(1000, 100, 1)
	if large <= small {
		t.Fatalf("expected work to grow with m: small=%f large=%f", small, large)
	}
}

// TestSearchFindsPlantedHit builds a tiny k*b^n+c-shaped sequence where n0 is
// known in advance, and checks Search recovers it via the baby/giant tables.
func TestSearchFindsPlantedHit(t *testing.T) {
	const p = 1_000_003
	const b = 2
	const plantedN = 37

	mod := montgomery.NewModulus(p)
	bResidue := mod.ToResidue(b)
	target := mod.Pow(bResidue, plantedN)

	seq := Sequence{
		NMin: 0,
		NMax: 200,
		TargetResidue: func(m montgomery.Modulus) uint64 {
			return target
		},
	}

	e := New(b)
	hits := e.Search(p, []Sequence{seq}, 64, nil)

	found := false
	for _, h := range hits {
		if h.N == plantedN {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected to find planted n=%d, got hits=%v", plantedN, hits)
	}
}

func TestSearchEmptySequencesReturnsNil(t *testing.T) {
	e := New(2)
	hits := e.Search(101, nil, 16, nil)
	if hits != nil {
		t.Fatalf("expected nil hits for no sequences, got %v", hits)
	}
}

func TestSearchJacobiFilterSkipsSequence(t *testing.T) {
	const p = 1_000_003
	called := false
	seq := Sequence{
		NMin:      0,
		NMax:      10,
		HasKCCore: true,
		KCCore:    5,
		TargetResidue: func(m montgomery.Modulus) uint64 {
			return m.One()
		},
	}
	e := New(2)
	hits := e.Search(p, []Sequence{seq}, 16, func(s Sequence, p uint64) bool {
		called = true
		return false
	})
	if !called {
		t.Fatal("expected jacobiFilter to be consulted")
	}
	if hits != nil {
		t.Fatalf("expected no hits when filter rejects the sequence, got %v", hits)
	}
}

package montgomery

// Vec4Modulus packs four independent Modulus values so the engine can sieve
// four primes per lane, per spec.md section 4.1. Lanes never share state or
// carry a cross-lane data dependency; a portable (non-ISA-specific)
// implementation is all this module provides, per the design note replacing
// the source's x86 FPU/AVX mulmod intrinsics with a Vec4ModArith capability.
type Vec4Modulus [4]Modulus

// NewVec4Modulus builds the per-lane Montgomery constants for four primes.
func NewVec4Modulus(p [4]uint64) Vec4Modulus {
	var v Vec4Modulus
	for i := 0; i < 4; i++ {
		v[i] = NewModulus(p[i])
	}
	return v
}

// Add applies Modulus.Add independently in each lane.
func (v Vec4Modulus) Add(a, b [4]uint64) (out [4]uint64) {
	for i := 0; i < 4; i++ {
		out[i] = v[i].Add(a[i], b[i])
	}
	return
}

// Sub applies Modulus.Sub independently in each lane.
func (v Vec4Modulus) Sub(a, b [4]uint64) (out [4]uint64) {
	for i := 0; i < 4; i++ {
		out[i] = v[i].Sub(a[i], b[i])
	}
	return
}

// Mul applies Modulus.Mul independently in each lane.
func (v Vec4Modulus) Mul(a, b [4]uint64) (out [4]uint64) {
	for i := 0; i < 4; i++ {
		out[i] = v[i].Mul(a[i], b[i])
	}
	return
}

// Pow applies Modulus.Pow independently in each lane, all lanes raised to
// the same exponent (the common case: four primes testing the same term).
func (v Vec4Modulus) Pow(a [4]uint64, e uint64) (out [4]uint64) {
	for i := 0; i < 4; i++ {
		out[i] = v[i].Pow(a[i], e)
	}
	return
}

// ToResidue applies Modulus.ToResidue independently in each lane.
func (v Vec4Modulus) ToResidue(n [4]uint64) (out [4]uint64) {
	for i := 0; i < 4; i++ {
		out[i] = v[i].ToResidue(n[i])
	}
	return
}

// FromResidue applies Modulus.FromResidue independently in each lane.
func (v Vec4Modulus) FromResidue(r [4]uint64) (out [4]uint64) {
	for i := 0; i < 4; i++ {
		out[i] = v[i].FromResidue(r[i])
	}
	return
}

// AtLeastOneEqual is the fast pre-check before the four scalar comparisons
// that report factors: true if any lane's residue a equals its bPlus or
// bMinus counterpart.
func (v Vec4Modulus) AtLeastOneEqual(a, bPlus, bMinus [4]uint64) bool {
	for i := 0; i < 4; i++ {
		if a[i] == bPlus[i] || a[i] == bMinus[i] {
			return true
		}
	}
	return false
}

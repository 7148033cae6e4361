package montgomery

// SqrtModP returns an x with x^2 ≡ a (mod p), or false if a is not a
// quadratic residue mod p. Ported from
// original_source/carol_kynea/CarolKyneaWorker.cpp's FindRoot: a fast path
// for p ≡ 3 (mod 4) (and more generally p ≡ 7 (mod 8) when a = 2, the
// Carol/Kynea family's only use case) via a^((p+1)/4), falling back to the
// general Tonelli-Shanks loop over the 2-adic decomposition of p-1.
func SqrtModP(a int64, p uint64) (uint64, bool) {
	if Legendre(a, p) != 1 {
		return 0, false
	}

	m := NewModulus(p)
	aMod := uint64(((a % int64(p)) + int64(p)) % int64(p))
	resA := m.ToResidue(aMod)

	if p%4 == 3 {
		return m.FromResidue(m.Pow(resA, (p+1)/4)), true
	}

	// Tonelli-Shanks: write p-1 = t * 2^s with t odd.
	t := p - 1
	s := uint64(0)
	for t%2 == 0 {
		s++
		t /= 2
	}

	// Find a quadratic non-residue d.
	var d uint64 = 3
	for Legendre(int64(d), p) != -1 {
		d++
	}
	resD := m.ToResidue(d)
	resD = m.Pow(resD, t)

	resAT := m.Pow(resA, t)
	resPM1 := m.ToResidue(p - 1)

	var mExp uint64
	for i := uint64(0); i < s; i++ {
		var res uint64
		if mExp == 0 {
			res = m.One()
		} else {
			res = m.Pow(resD, mExp)
		}
		res = m.Mul(res, resAT)
		shift := s - 1 - i
		res = m.Pow(res, uint64(1)<<shift)
		if res == resPM1 {
			mExp += uint64(1) << i
		}
	}

	var res uint64
	if mExp == 0 {
		res = m.One()
	} else {
		res = m.Pow(resD, mExp/2)
	}
	resHalf := m.Pow(resA, (t+1)/2)
	root := m.Mul(res, resHalf)
	return m.FromResidue(root), true
}

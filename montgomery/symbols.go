package montgomery

// Jacobi returns the Jacobi symbol (a/p), or 0 if gcd(a,p) != 1. Ported from
// original_source/core/inline.h's jacobi(), same branch structure.
func Jacobi(a int64, p uint64) int32 {
	var x, y uint64
	var sign int32

	if a < 0 {
		x = uint64(-a)
		if p%4 == 1 {
			sign = 1
		} else {
			sign = -1
		}
	} else {
		x = uint64(a)
		sign = 1
	}

	for y = p; x > 0; x %= y {
		for ; x%2 == 0; x /= 2 {
			if y%8 == 3 || y%8 == 5 {
				sign = -sign
			}
		}

		x, y = y, x

		if x%4 == 3 && y%4 == 3 {
			sign = -sign
		}
	}

	if y == 1 {
		return sign
	}
	return 0
}

// Legendre returns the Legendre symbol (a/p) where gcd(a,p) = 1 and p is an
// odd prime. Behavior is undefined if gcd(a,p) != 1, matching
// original_source/core/inline.h's legendre().
func Legendre(a int64, p uint64) int32 {
	var sign int32
	if a < 0 {
		a = -a
		if p%4 == 1 {
			sign = 1
		} else {
			sign = -1
		}
	} else {
		sign = 1
	}

	y := uint64(a)
	for ; y%2 == 0; y /= 2 {
		if p%8 == 3 || p%8 == 5 {
			sign = -sign
		}
	}

	if p%4 == 3 && y%4 == 3 {
		sign = -sign
	}

	for x := p % y; x > 0; x %= y {
		for ; x%2 == 0; x /= 2 {
			if y%8 == 3 || y%8 == 5 {
				sign = -sign
			}
		}

		x, y = y, x

		if x%4 == 3 && y%4 == 3 {
			sign = -sign
		}
	}

	return sign
}

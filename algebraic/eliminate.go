// Package algebraic implements the pre-sieve algebraic elimination pass of
// spec.md section 4.11: clearing bits that are provably composite by
// polynomial identity rather than by prime trial, before sieving starts.
package algebraic

// Record is the "reason" emitted for each term removed by algebra, so
// downstream consumers (the factor log) see a unified reason stream
// alongside prime-trial factor events.
type Record struct {
	Coord  int64
	Reason string
}

// Gcd64 is the same Euclidean gcd used throughout the original source
// (original_source/core/inline.h's gcd64), used below to detect common
// divisors between x and y in the x^x +/- y^y family.
func Gcd64(a, b uint64) uint64 {
	for b > 0 {
		a, b = b, a%b
	}
	return a
}

// EliminateXYYX clears (x,y) pairs of the x^x +/- y^y family that are
// provably composite by algebra: a common divisor of x and y factors the
// whole expression, and for the minus form y >= x makes the value
// non-positive (spec.md section 4.11).
//
// Pairs with y >= x are visited only for the minus form. clear is called
// for each visited pair that test reports still set and that one of these
// rules matches; it must return whether the pair was actually cleared, so
// the returned records reflect only genuine transitions.
func EliminateXYYX(xmax, ymax int64, minus bool, test func(x, y int64) bool, clear func(x, y int64) bool) []Record {
	var out []Record
	for x := int64(2); x <= xmax; x++ {
		for y := int64(1); y <= ymax && (minus || y < x); y++ {
			if !test(x, y) {
				continue
			}
			if minus && y >= x {
				if clear(x, y) {
					out = append(out, Record{Coord: x*xmax + y, Reason: "y>=x degenerate for minus form"})
				}
				continue
			}
			if Gcd64(uint64(x), uint64(y)) > 1 {
				if clear(x, y) {
					out = append(out, Record{Coord: x*xmax + y, Reason: "gcd(x,y)>1"})
				}
				continue
			}
			if x%2 == y%2 {
				if clear(x, y) {
					out = append(out, Record{Coord: x*xmax + y, Reason: "x,y same parity: factor of 2"})
				}
				continue
			}
		}
	}
	return out
}

// EliminateCarolKynea removes the known-degenerate (n=1, base<=4) case,
// per spec.md section 4.11 and the Carol/Kynea smoke test in section 8.
func EliminateCarolKynea(base uint64, n int64, clear func(n int64) bool) []Record {
	var out []Record
	if n == 1 && base <= 4 {
		if clear(n) {
			out = append(out, Record{Coord: n, Reason: "n=1, base<=4: known-degenerate"})
		}
	}
	return out
}

// EliminateKBNPerfectPowerK reports whether k is a perfect power s^t
// (t >= 2), returning s and t when it is. It clears nothing itself: it is
// the k-side check behind the classical polynomial factorisations of a
// k*b^n +/- 1 family, and b = r^a detection is left to the family since it
// depends on the fixed base.
func EliminateKBNPerfectPowerK(k uint64) (isPerfectPower bool, base uint64, exp uint64) {
	if k < 4 {
		return false, 0, 0
	}
	for exp = 2; exp <= 63; exp++ {
		root := approxRoot(k, exp)
		for _, cand := range []uint64{root - 1, root, root + 1} {
			if cand > 1 && ipow(cand, exp) == k {
				return true, cand, exp
			}
		}
	}
	return false, 0, 0
}

func approxRoot(n, exp uint64) uint64 {
	if n == 0 {
		return 0
	}
	lo, hi := uint64(1), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if ipow(mid, exp) <= n {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func ipow(base, exp uint64) uint64 {
	result := uint64(1)
	for i := uint64(0); i < exp; i++ {
		next := result * base
		if base != 0 && next/base != result {
			return ^uint64(0) // overflow guard: not a match
		}
		result = next
	}
	return result
}

package kbnc

import "testing"

// bruteForceHits computes, for a given prime p, every n in [minN,maxN] with
// k*b^n+c ≡ 0 (mod p), used as an oracle against the engine-driven family.
func bruteForceHits(k, b uint64, c int64, minN, maxN int64, p uint64) map[int64]bool {
	hits := map[int64]bool{}
	bn := uint64(1) % p
	for n := int64(0); n <= maxN; n++ {
		if n >= minN {
			val := (int64(k%p)*int64(bn) + c) % int64(p)
			val = ((val % int64(p)) + int64(p)) % int64(p)
			if val == 0 {
				hits[n] = true
			}
		}
		bn = (bn * b) % p
	}
	return hits
}

func TestOnPrimeChunkMatchesBruteForce(t *testing.T) {
	const k, b = 27, 2
	const c = -1
	const minN, maxN = 2, 200

	f, _ := New(k, b, c, minN, maxN)
	primes := []uint64{5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53}
	events := f.OnPrimeChunk(primes)

	got := map[int64]bool{}
	for _, e := range events {
		n := f.decode(e.Coord)
		got[n] = true
		if err := f.VerifyFactor(e.P, e.Coord); err != nil {
			t.Fatalf("VerifyFactor failed for p=%d n=%d: %v", e.P, n, err)
		}
	}

	want := map[int64]bool{}
	for _, p := range primes {
		for n := range bruteForceHits(k, b, c, minN, maxN, p) {
			want[n] = true
		}
	}

	for n := range want {
		if !got[n] {
			t.Errorf("brute force found n=%d as a factor hit but engine did not", n)
		}
	}
}

func TestOnPrimeChunkEmptyWhenPDividesK(t *testing.T) {
	const k, b = 27, 2
	const c = -1
	f, _ := New(k, b, c, 2, 50)
	// p=3 divides k=27; since c=-1 is not ≡ 0 (mod 3), the term is never
	// divisible by 3 for any n, matching a brute-force scan that also
	// finds nothing.
	events := f.OnPrimeChunk([]uint64{3})
	if len(events) != 0 {
		t.Fatalf("expected no hits for p=3 dividing k with c%%p != 0, got %d", len(events))
	}
}

func TestOnPrimeChunkAllNWhenPDividesKAndC(t *testing.T) {
	const k, b = 9, 2
	const c = -3 // c is divisible by 3, same as k
	f, _ := New(k, b, c, 1, 5)
	events := f.OnPrimeChunk([]uint64{3})
	if len(events) != 5 {
		t.Fatalf("expected every n in [1,5] to report for p=3 | k and p=3 | c, got %d", len(events))
	}
}

func TestPerfectPowerKFlagged(t *testing.T) {
	_, records := New(8, 2, 1, 1, 10) // 8 = 2^3
	if len(records) == 0 {
		t.Fatal("expected k=8 (a perfect power) to be flagged by the algebraic pre-sieve")
	}
}

func TestNameFormatsSign(t *testing.T) {
	f, _ := New(27, 2, -1, 1, 10)
	if f.Name() != "27*2^n-1" {
		t.Fatalf("Name() = %q", f.Name())
	}
}

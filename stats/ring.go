// Package stats implements the rate-tracking ring buffer of spec.md section
// 4.10: a fixed-capacity history of (timestamp, factor_count) samples used
// to derive a factors-per-second or seconds-per-factor rate and to trip the
// RateBelowTarget interrupt when a user-supplied target is violated.
package stats

import "time"

// Sample is one (timestamp, cumulative factor count) observation.
type Sample struct {
	At      time.Time
	Factors uint64
}

// Ring is a fixed-capacity circular buffer of Samples, oldest evicted first.
type Ring struct {
	samples []Sample
	cap     int
	head    int // index of the next slot to write
	size    int // number of valid samples currently stored
}

// NewRing allocates a Ring holding at most capacity samples.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{samples: make([]Sample, capacity), cap: capacity}
}

// Add appends a sample, evicting the oldest once the ring is full.
func (r *Ring) Add(s Sample) {
	r.samples[r.head] = s
	r.head = (r.head + 1) % r.cap
	if r.size < r.cap {
		r.size++
	}
}

// Len returns the number of samples currently stored.
func (r *Ring) Len() int { return r.size }

// Oldest returns the oldest stored sample and true, or the zero Sample and
// false if the ring is empty.
func (r *Ring) Oldest() (Sample, bool) {
	if r.size == 0 {
		return Sample{}, false
	}
	idx := (r.head - r.size + r.cap) % r.cap
	return r.samples[idx], true
}

// Newest returns the most recently added sample and true, or the zero
// Sample and false if the ring is empty.
func (r *Ring) Newest() (Sample, bool) {
	if r.size == 0 {
		return Sample{}, false
	}
	idx := (r.head - 1 + r.cap) % r.cap
	return r.samples[idx], true
}

// ordered returns every stored sample oldest-first.
func (r *Ring) ordered() []Sample {
	out := make([]Sample, 0, r.size)
	start := (r.head - r.size + r.cap) % r.cap
	for i := 0; i < r.size; i++ {
		out = append(out, r.samples[(start+i)%r.cap])
	}
	return out
}

// Rate is the derived throughput: either factors-per-second (when the
// measured rate is at least 1/s) or seconds-per-factor (below that),
// per spec.md section 4.10.
type Rate struct {
	FactorsPerSecond float64
	IsSecondsPerFactor bool
	SecondsPerFactor float64
}

// DeriveRate computes the rate over the ring's current window. minWindow is
// the minimum duration (spec's minutes_for_spf, already converted to a
// time.Duration) the tail window must span when falling back to
// seconds-per-factor; if the stored history doesn't yet span minWindow,
// ok is false (not enough data to judge the rate yet).
func DeriveRate(r *Ring, minWindow time.Duration) (Rate, bool) {
	oldest, ok1 := r.Oldest()
	newest, ok2 := r.Newest()
	if !ok1 || !ok2 || !newest.At.After(oldest.At) {
		return Rate{}, false
	}

	elapsed := newest.At.Sub(oldest.At)
	factorDelta := int64(newest.Factors) - int64(oldest.Factors)
	if factorDelta < 0 {
		factorDelta = 0
	}

	fps := float64(factorDelta) / elapsed.Seconds()
	if fps >= 1.0 {
		return Rate{FactorsPerSecond: fps}, true
	}

	if elapsed < minWindow {
		return Rate{}, false
	}
	if factorDelta == 0 {
		return Rate{IsSecondsPerFactor: true, SecondsPerFactor: elapsed.Seconds()}, true
	}
	return Rate{
		IsSecondsPerFactor: true,
		SecondsPerFactor:   elapsed.Seconds() / float64(factorDelta),
	}, true
}

// BelowTarget reports whether the derived rate violates a user-supplied
// target, per spec.md section 4.10: targetFPS is the minimum acceptable
// factors-per-second (use 0 to disable), targetSPF is the maximum
// acceptable seconds-per-factor (use 0 to disable). Only the target in the
// rate's own unit is checked: a factors-per-second rate against targetFPS,
// a seconds-per-factor rate against targetSPF (the -4/-5 CLI flags are
// mutually exclusive).
func BelowTarget(rate Rate, targetFPS, targetSPF float64) bool {
	if !rate.IsSecondsPerFactor {
		return targetFPS > 0 && rate.FactorsPerSecond < targetFPS
	}
	return targetSPF > 0 && rate.SecondsPerFactor > targetSPF
}

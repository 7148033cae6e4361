package driver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtsieve/mtsieve/checkpoint"
	"github.com/mtsieve/mtsieve/family"
	"github.com/mtsieve/mtsieve/mtsieveerr"
)

// fakeFamily is a test double satisfying family.Sieve so driver behavior can
// be exercised without a real term family.
type fakeFamily struct {
	events       func(primes []uint64) []family.FactorEvent
	verifyErr    error
	writeTermsN  int
}

func (f *fakeFamily) Name() string { return "fake" }

func (f *fakeFamily) OnPrimeChunk(primes []uint64) []family.FactorEvent {
	if f.events == nil {
		return nil
	}
	return f.events(primes)
}

func (f *fakeFamily) SupportsLane4() bool { return false }

func (f *fakeFamily) VerifyFactor(p uint64, coord int64) error { return f.verifyErr }

func (f *fakeFamily) SingleWorkerThreshold() uint64 { return 1 << 20 }

func (f *fakeFamily) RemainingTerms() uint64 { return 0 }

func (f *fakeFamily) WriteTerms(w family.TermWriter, largestPrime uint64) error {
	f.writeTermsN++
	return nil
}

func (f *fakeFamily) ApplyPrefactored(factorLine string) (bool, error) { return false, nil }

func (f *fakeFamily) LoadTerms(lines []string) error { return nil }

func (f *fakeFamily) RebuildNeeded(largestPrimeTested uint64) bool { return false }

func (f *fakeFamily) Rebuild(largestPrimeTested uint64) {}

func testConfig(t *testing.T, extra func(*Config)) Config {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Pmin:           2,
		Pmax:           200000,
		ChunkSize:      256,
		NumWorkers:     1,
		RingCapacity:   64,
		CheckpointPath: filepath.Join(dir, "checkpoint.txt"),
		Header:         checkpoint.Header{Format: checkpoint.FormatABCD, Template: "$a*$b^$c$d", Start: 1},
		FactorLogPath:  filepath.Join(dir, "factors.log"),
	}
	if extra != nil {
		extra(&cfg)
	}
	return cfg
}

// TestRateBelowTargetInterruptsCleanly covers scenario 4: a family that
// never reports a factor trips the seconds-per-factor target and the driver
// exits with RateBelowTarget (exit code 0), having written a checkpoint.
func TestRateBelowTargetInterruptsCleanly(t *testing.T) {
	fam := &fakeFamily{}
	cfg := testConfig(t, func(c *Config) {
		c.StatsEvery = time.Millisecond
		c.MinutesForSPF = time.Millisecond
		c.TargetSPF = 1e-6 // impossibly strict: any measured gap violates it
	})

	d, err := New(cfg, fam)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runErr := d.Run(ctx)
	if runErr == nil {
		t.Fatal("expected RateBelowTarget error, got nil")
	}
	var ce *mtsieveerr.CoreError
	if !errors.As(runErr, &ce) {
		t.Fatalf("expected a *mtsieveerr.CoreError, got %T: %v", runErr, runErr)
	}
	if ce.Kind != mtsieveerr.RateBelowTarget {
		t.Fatalf("expected RateBelowTarget, got %v", ce.Kind)
	}
	if mtsieveerr.ExitCode(runErr) != 0 {
		t.Fatalf("RateBelowTarget should map to exit code 0, got %d", mtsieveerr.ExitCode(runErr))
	}
	if fam.writeTermsN == 0 {
		t.Fatal("expected a final checkpoint to be written")
	}
}

// TestVerifyFailureIsFatal covers scenario 6: a family that reports a factor
// VerifyFactor disagrees with must abort the run with VerifyFailure, and the
// bad event must never reach the factor log.
func TestVerifyFailureIsFatal(t *testing.T) {
	reported := false
	fam := &fakeFamily{
		events: func(primes []uint64) []family.FactorEvent {
			if reported || len(primes) == 0 {
				return nil
			}
			reported = true
			return []family.FactorEvent{{
				P:     primes[0],
				Coord: 0,
				Term:  func() string { return "bogus*term+1" },
			}}
		},
		verifyErr: errors.New("does not divide"),
	}
	cfg := testConfig(t, func(c *Config) {
		c.Pmax = 10000
	})

	d, err := New(cfg, fam)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runErr := d.Run(ctx)
	if runErr == nil {
		t.Fatal("expected VerifyFailure error, got nil")
	}
	var ce *mtsieveerr.CoreError
	if !errors.As(runErr, &ce) {
		t.Fatalf("expected a *mtsieveerr.CoreError, got %T: %v", runErr, runErr)
	}
	if ce.Kind != mtsieveerr.VerifyFailure {
		t.Fatalf("expected VerifyFailure, got %v", ce.Kind)
	}
	if mtsieveerr.ExitCode(runErr) != 1 {
		t.Fatalf("VerifyFailure should map to exit code 1, got %d", mtsieveerr.ExitCode(runErr))
	}
	if fam.writeTermsN != 0 {
		t.Fatal("expected no checkpoint to be written after a fatal verify failure")
	}
}

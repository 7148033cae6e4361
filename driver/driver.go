// Package driver implements the main sieve loop of spec.md section 4.8: it
// owns the PrimeSource, WorkerPool, FactorLog, Checkpoint, and Stats, and
// drives them through one run from pmin to pmax (or until interrupted).
// Grounded on the teacher's scoped-acquisition idiom in server/main.go and
// client/main.go: a single entry point with a defer chain that joins the
// workers and closes the logs on every exit path, and writes the final
// checkpoint only on a clean finish or a clean interrupt.
package driver

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/mtsieve/mtsieve/checkpoint"
	"github.com/mtsieve/mtsieve/factorlog"
	"github.com/mtsieve/mtsieve/family"
	"github.com/mtsieve/mtsieve/mtsieveerr"
	"github.com/mtsieve/mtsieve/primesource"
	"github.com/mtsieve/mtsieve/stats"
	"github.com/mtsieve/mtsieve/worker"
)

// Config configures one Driver run.
type Config struct {
	Pmin, Pmax    uint64
	ChunkSize     int
	NumWorkers    int
	CheckpointEvery time.Duration
	StatsEvery      time.Duration
	TargetFPS       float64 // -4: minimum acceptable factors/second, 0 disables
	TargetSPF       float64 // -5: maximum acceptable seconds/factor, 0 disables
	MinutesForSPF   time.Duration // -6
	RingCapacity    int

	CheckpointPath string
	Header         checkpoint.Header

	FactorLogPath string
	CSVStatsPath  string
}

// Driver owns one sieve run's components and coordinates them per spec.md
// section 4.8's main loop.
type Driver struct {
	cfg    Config
	fam    family.Sieve
	source *primesource.Source
	pool   *worker.Pool
	flog   *factorlog.Log
	csv    *stats.CSVLogger
	ring   *stats.Ring

	largestTested uint64
	lastCheckpoint time.Time
	lastStats      time.Time
	factorsFound   uint64 // atomic: total factors verified and logged so far

	// lowThresholdMu serializes every chunk at or below the family's
	// single-worker threshold (spec.md section 4.3/4.5): the bitmap's
	// lock-free fast path below threshold is only safe if the driver
	// actually guarantees a single active writer there, regardless of how
	// many worker goroutines the pool spins up.
	lowThresholdMu sync.Mutex
}

// New builds a Driver for the given family, starting its PrimeSource at
// cfg.Pmin.
func New(cfg Config, fam family.Sieve) (*Driver, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 64
	}
	if cfg.MinutesForSPF <= 0 {
		cfg.MinutesForSPF = time.Minute
	}

	flog, err := factorlog.Open(cfg.FactorLogPath)
	if err != nil {
		return nil, mtsieveerr.Wrap(mtsieveerr.IoError, err, "open factor log")
	}

	var csv *stats.CSVLogger
	if cfg.CSVStatsPath != "" {
		csv, err = stats.NewCSVLogger(cfg.CSVStatsPath)
		if err != nil {
			flog.Close()
			return nil, mtsieveerr.Wrap(mtsieveerr.IoError, err, "open csv stats log")
		}
	}

	d := &Driver{
		cfg:    cfg,
		fam:    fam,
		source: primesource.New(cfg.Pmin),
		flog:   flog,
		csv:    csv,
		ring:   stats.NewRing(cfg.RingCapacity),
		largestTested: cfg.Pmin,
	}
	d.pool = worker.New(cfg.NumWorkers, d.processChunk)
	return d, nil
}

// Run executes the main loop until pmax is reached, a fatal error occurs,
// or ctx is cancelled (spec.md section 4.8's pseudocode). Its teardown defer
// writes a final checkpoint only when shouldCheckpointOnExit allows it. A
// panic on Run's own goroutine is recovered and returned as VerifyFailure,
// so no checkpoint follows it; panics inside worker goroutines (where the
// family predicate runs) are not recovered here.
func (d *Driver) Run(ctx context.Context) (err error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = mtsieveerr.Wrap(mtsieveerr.VerifyFailure, errors.Errorf("panic: %v", r), "driver: recovered from panic")
		}
		if shouldCheckpointOnExit(err) {
			if closeErr := d.writeFinalCheckpoint(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
		d.flog.Close()
		if d.csv != nil {
			d.csv.Close()
		}
	}()

	chunks := make(chan worker.Chunk)
	dispatchErrCh := make(chan error, 1)
	go func() {
		dispatchErrCh <- d.dispatchLoop(runCtx, chunks)
	}()

	runErr := d.pool.Run(runCtx, chunks)
	dispatchErr := <-dispatchErrCh
	if runErr != nil {
		return runErr
	}
	return dispatchErr
}

// dispatchLoop feeds chunks to the pool in ascending prime order, applying
// the periodic checkpoint/stats/rate-target checks, and closes chunks when
// pmax is reached or the run is otherwise done.
func (d *Driver) dispatchLoop(ctx context.Context, chunks chan<- worker.Chunk) error {
	defer close(chunks)

	seq := uint64(0)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if d.largestTested >= d.cfg.Pmax {
			return nil
		}

		primes := d.source.NextChunk(d.cfg.ChunkSize)
		if len(primes) == 0 {
			return nil
		}
		select {
		case chunks <- worker.Chunk{Seq: seq, Primes: primes}:
			seq++
		case <-ctx.Done():
			return nil
		}

		if d.fam.RebuildNeeded(d.largestTested) {
			d.fam.Rebuild(d.largestTested)
		}

		if wm, ok := d.pool.Watermark(); ok {
			d.largestTested = wm
		}

		now := time.Now()
		if d.cfg.CheckpointEvery > 0 && now.Sub(d.lastCheckpoint) >= d.cfg.CheckpointEvery {
			if err := d.writeCheckpoint(d.largestTested); err != nil {
				return err
			}
			d.lastCheckpoint = now
		}
		if d.cfg.StatsEvery > 0 && now.Sub(d.lastStats) >= d.cfg.StatsEvery {
			if interrupted := d.sampleStats(now); interrupted {
				return mtsieveerr.New(mtsieveerr.RateBelowTarget, "rate below target")
			}
			d.lastStats = now
		}
	}
}

// shouldCheckpointOnExit reports whether Run's teardown defer should write a
// final checkpoint. Spec.md section 7's IoError contract ("no partial
// checkpoint written") and the fatal-verify-failure scenario ("the output
// terms file must not be updated") forbid a checkpoint after a fatal error;
// only a clean completion (nil) or a clean interrupt (RateBelowTarget,
// UserInterrupt) still checkpoints.
func shouldCheckpointOnExit(err error) bool {
	if err == nil {
		return true
	}
	var ce *mtsieveerr.CoreError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case mtsieveerr.RateBelowTarget, mtsieveerr.UserInterrupt:
			return true
		}
	}
	return false
}

// processChunk runs the family predicate over one chunk of primes, verifies
// every reported factor, and logs it. A verification failure is fatal per
// spec.md section 7. Chunks at or below the family's single-worker
// threshold are serialized through lowThresholdMu (spec.md section 4.3): the
// bitmap's lock-free path there assumes a single writer, which otherwise
// only holds when cfg.NumWorkers is 1.
func (d *Driver) processChunk(ctx context.Context, primes []uint64) error {
	if len(primes) > 0 && primes[len(primes)-1] <= d.fam.SingleWorkerThreshold() {
		d.lowThresholdMu.Lock()
		defer d.lowThresholdMu.Unlock()
	}

	events := d.fam.OnPrimeChunk(primes)
	for _, e := range events {
		if err := d.fam.VerifyFactor(e.P, e.Coord); err != nil {
			return mtsieveerr.Wrap(mtsieveerr.VerifyFailure, err, "verify_factor disagreed with a reported factor")
		}
		if err := d.flog.Record(e.P, e.Term()); err != nil {
			return mtsieveerr.Wrap(mtsieveerr.IoError, err, "record factor")
		}
		atomic.AddUint64(&d.factorsFound, 1)
	}
	if len(primes) > 0 {
		d.ring.Add(stats.Sample{At: time.Now(), Factors: atomic.LoadUint64(&d.factorsFound)})
	}
	return nil
}

// sampleStats derives the current rate and reports whether it violates the
// user's target (spec.md section 4.10); RateBelowTarget is a clean
// interrupt, not a fatal error.
func (d *Driver) sampleStats(now time.Time) bool {
	rate, ok := stats.DeriveRate(d.ring, d.cfg.MinutesForSPF)
	if d.csv != nil && ok {
		sample := stats.Sample{At: now, Factors: atomic.LoadUint64(&d.factorsFound)}
		if err := d.csv.Log(sample, rate); err != nil {
			log.Printf("stats: csv log: %v", err)
		}
	}
	if !ok {
		return false
	}
	return stats.BelowTarget(rate, d.cfg.TargetFPS, d.cfg.TargetSPF)
}

func (d *Driver) writeCheckpoint(largestPrime uint64) error {
	header := d.cfg.Header
	header.Pmin = largestPrime
	var collector lineCollector
	if err := d.fam.WriteTerms(&collector, largestPrime); err != nil {
		return mtsieveerr.Wrap(mtsieveerr.IoError, err, "collect terms for checkpoint")
	}
	if err := checkpoint.WriteAtomic(d.cfg.CheckpointPath, header, collector.lines); err != nil {
		return mtsieveerr.Wrap(mtsieveerr.IoError, err, "write checkpoint")
	}
	return nil
}

func (d *Driver) writeFinalCheckpoint() error {
	return d.writeCheckpoint(d.largestTested)
}

// lineCollector adapts an in-memory []string into the family.TermWriter
// interface so WriteTerms can be driven without an intermediate file.
type lineCollector struct {
	lines []string
}

func (lc *lineCollector) WriteString(s string) (int, error) {
	lc.lines = append(lc.lines, trimNewline(s))
	return len(s), nil
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}

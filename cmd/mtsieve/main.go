package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/mtsieve/mtsieve/checkpoint"
	"github.com/mtsieve/mtsieve/driver"
	"github.com/mtsieve/mtsieve/mtsieveerr"
	"github.com/mtsieve/mtsieve/sieveconfig"
)

// VERSION is injected by buildflags, following the teacher's own
// SELFBUILD convention in client/main.go and server/main.go.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "mtsieve"
	myApp.Usage = "parallel prime-factor sieve for k*b^n+c-shaped families"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{Name: "family, F", Value: "kbnc", Usage: "term family: carolkynea, kbnc, twin"},
		cli.Uint64Flag{Name: "p", Usage: "pmin: floor to start sieving from"},
		cli.Uint64Flag{Name: "P", Usage: "pmax: sieve until this prime is reached"},
		cli.StringFlag{Name: "i", Usage: "input terms file (resume)"},
		cli.StringFlag{Name: "o", Usage: "output terms file (checkpoint target)"},
		cli.StringFlag{Name: "O", Usage: "factor log output file"},
		cli.StringFlag{Name: "I", Usage: "input factors file (apply prefactored and continue)"},
		cli.BoolFlag{Name: "A", Usage: "apply prefactored factors then exit"},
		cli.Float64Flag{Name: "4", Usage: "target factors/second; interrupt if rate falls below it"},
		cli.Float64Flag{Name: "5", Usage: "target seconds/factor; interrupt if rate rises above it"},
		cli.IntFlag{Name: "6", Value: 1, Usage: "minutes_for_spf: minimum window before trusting an s/f rate"},
		cli.Uint64Flag{Name: "base", Usage: "b in k*b^n+c"},
		cli.Uint64Flag{Name: "k", Value: 1, Usage: "k in k*b^n+c"},
		cli.IntFlag{Name: "c", Value: -1, Usage: "c in k*b^n+c (+1 or -1)"},
		cli.Int64Flag{Name: "minn", Usage: "minimum n (or the fixed n for the twin family)"},
		cli.Int64Flag{Name: "maxn", Usage: "maximum n"},
		cli.Int64Flag{Name: "mink", Usage: "minimum k (twin family)"},
		cli.Int64Flag{Name: "maxk", Usage: "maximum k (twin family)"},
		cli.IntFlag{Name: "workers", Usage: "worker count, 0 = runtime.NumCPU()"},
		cli.IntFlag{Name: "chunksize", Value: 1024, Usage: "primes per dispatched chunk"},
		cli.IntFlag{Name: "checkpointsec", Value: 3600, Usage: "checkpoint interval in seconds"},
		cli.IntFlag{Name: "statssec", Value: 10, Usage: "stats sampling interval in seconds"},
		cli.StringFlag{Name: "log", Usage: "redirect log output to this file"},
		cli.StringFlag{Name: "csvstats", Usage: "append periodic rate samples to this CSV file"},
		cli.StringFlag{Name: "c", Usage: "config from json file, which will override the command from shell"},
		cli.BoolFlag{Name: "quiet", Usage: "suppress non-fatal console warnings"},
	}
	myApp.Action = run

	if err := myApp.Run(os.Args); err != nil {
		log.Printf("%+v\n", err)
		os.Exit(mtsieveerr.ExitCode(err))
	}
}

func run(c *cli.Context) error {
	cfg := sieveconfig.Config{
		Family:        c.String("family"),
		Pmin:          c.Uint64("p"),
		Pmax:          c.Uint64("P"),
		InputTerms:    c.String("i"),
		OutputTerms:   c.String("o"),
		FactorFile:    c.String("O"),
		InputFactors:  c.String("I"),
		ApplyAndExit:  c.Bool("A"),
		TargetFPS:     c.Float64("4"),
		TargetSPF:     c.Float64("5"),
		MinutesForSPF: c.Int("6"),
		Base:          c.Uint64("base"),
		K:             c.Uint64("k"),
		C:             int64(c.Int("c")),
		MinN:          c.Int64("minn"),
		MaxN:          c.Int64("maxn"),
		MinK:          c.Int64("mink"),
		MaxK:          c.Int64("maxk"),
		ChunkSize:     c.Int("chunksize"),
		NumWorkers:    c.Int("workers"),
		CheckpointSec: c.Int("checkpointsec"),
		StatsSec:      c.Int("statssec"),
		Log:           c.String("log"),
		CSVStats:      c.String("csvstats"),
		Quiet:         c.Bool("quiet"),
	}

	// "-c" overrides the shell-derived flags, same precedence as
	// client/main.go's parseJSONConfig call.
	if c.String("c") != "" {
		if err := sieveconfig.ParseJSON(&cfg, c.String("c")); err != nil {
			return mtsieveerr.Wrap(mtsieveerr.ConfigError, err, "load json config")
		}
	}

	if cfg.Log != "" {
		f, err := os.OpenFile(cfg.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return mtsieveerr.Wrap(mtsieveerr.IoError, err, "open log file")
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Quiet {
		sieveconfig.Warn(&cfg)
	}

	fam, err := buildFamily(&cfg)
	if err != nil {
		return err
	}

	if cfg.InputTerms != "" {
		if err := resumeFromCheckpoint(&cfg, fam); err != nil {
			return err
		}
	}
	if cfg.InputFactors != "" {
		if err := applyPrefactored(&cfg, fam); err != nil {
			return err
		}
		if cfg.ApplyAndExit {
			return nil
		}
	}

	log.Println("version:", VERSION)
	log.Println("family:", fam.Name())
	log.Println("pmin:", cfg.Pmin, "pmax:", cfg.Pmax)

	dcfg := driver.Config{
		Pmin:            cfg.Pmin,
		Pmax:            cfg.Pmax,
		ChunkSize:       cfg.ChunkSize,
		NumWorkers:      cfg.NumWorkers,
		CheckpointEvery: time.Duration(cfg.CheckpointSec) * time.Second,
		StatsEvery:      time.Duration(cfg.StatsSec) * time.Second,
		TargetFPS:       cfg.TargetFPS,
		TargetSPF:       cfg.TargetSPF,
		MinutesForSPF:   time.Duration(cfg.MinutesForSPF) * time.Minute,
		CheckpointPath:  cfg.OutputTerms,
		Header:          checkpointHeader(&cfg, fam.Name()),
		FactorLogPath:   cfg.FactorFile,
		CSVStatsPath:    cfg.CSVStats,
	}

	d, err := driver.New(dcfg, fam)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		return err
	}
	log.Println("done: largest prime tested", cfg.Pmax)
	return nil
}

func resumeFromCheckpoint(cfg *sieveconfig.Config, fam interface {
	Name() string
	ApplyPrefactored(string) (bool, error)
	LoadTerms(lines []string) error
}) error {
	header, lines, err := checkpoint.ReadFile(cfg.InputTerms)
	if err != nil {
		return mtsieveerr.Wrap(mtsieveerr.ParseError, err, "read input terms file")
	}
	if want := checkpointHeader(cfg, fam.Name()).Template; header.Template != want {
		return mtsieveerr.New(mtsieveerr.ParseError, "input terms file is for %q, but the command line selects %q", header.Template, want)
	}
	if header.Pmin > cfg.Pmin {
		cfg.Pmin = header.Pmin
	}
	// Rebuild the bitmap from exactly the terms the checkpoint still lists
	// as candidates; everything else is already factored (spec.md section
	// 6.2/6.5's round-trip contract).
	if err := fam.LoadTerms(lines); err != nil {
		return mtsieveerr.Wrap(mtsieveerr.ParseError, err, "reload checkpoint terms into bitmap")
	}
	return nil
}

func applyPrefactored(cfg *sieveconfig.Config, fam interface {
	ApplyPrefactored(string) (bool, error)
}) error {
	f, err := os.Open(cfg.InputFactors)
	if err != nil {
		return mtsieveerr.Wrap(mtsieveerr.IoError, err, "open input factors file")
	}
	defer f.Close()

	lines, err := checkpoint.ReadTerms(f)
	if err != nil {
		return mtsieveerr.Wrap(mtsieveerr.ParseError, err, "read input factors file")
	}
	applied := 0
	for _, line := range lines {
		ok, err := fam.ApplyPrefactored(line)
		if err != nil {
			return mtsieveerr.Wrap(mtsieveerr.ParseError, err, "apply prefactored line")
		}
		if ok {
			applied++
		}
	}
	log.Println("applied", applied, "prefactored factors out of", len(lines))
	return nil
}

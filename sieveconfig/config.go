// Package sieveconfig holds the CLI-flag-shaped Config struct and its
// optional JSON-file override, grounded on server/config.go's
// parseJSONConfig (encoding/json + os.Open, no substitution needed — the
// teacher itself is bare stdlib here) and client/main.go's two-phase
// "flags first, -c overrides" precedence.
package sieveconfig

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Config mirrors the CLI surface of spec.md section 6.4 plus the family
// selection parameters needed to build a concrete family.Sieve.
type Config struct {
	// Common sieve flags (spec.md section 6.4).
	Pmin          uint64  `json:"pmin"`
	Pmax          uint64  `json:"pmax"`
	InputTerms    string  `json:"input_terms"`
	OutputTerms   string  `json:"output_terms"`
	FactorFile    string  `json:"factor_file"`
	InputFactors  string  `json:"input_factors"`
	ApplyAndExit  bool    `json:"apply_and_exit"`
	TargetFPS     float64 `json:"target_fps"`
	TargetSPF     float64 `json:"target_spf"`
	MinutesForSPF int     `json:"minutes_for_spf"`

	// Family selection.
	Family string `json:"family"` // "carolkynea", "kbnc", "twin"
	Base   uint64 `json:"base"`
	K      uint64 `json:"k"`
	C      int64  `json:"c"`
	MinN   int64  `json:"minn"`
	MaxN   int64  `json:"maxn"`
	MinK   int64  `json:"mink"`
	MaxK   int64  `json:"maxk"`

	// Engine tuning.
	ChunkSize     int `json:"chunk_size"`
	NumWorkers    int `json:"num_workers"`
	RingCapacity  int `json:"ring_capacity"`
	CheckpointSec int `json:"checkpoint_seconds"`
	StatsSec      int `json:"stats_seconds"`

	// Ambient.
	Log      string `json:"log"`
	CSVStats string `json:"csvstats"`
	Quiet    bool   `json:"quiet"`
}

// ParseJSON overrides cfg's fields from the JSON file at path, exactly the
// precedence rule client/main.go applies for its own "-c" flag: flags are
// read into the Config first, then the JSON file (if named) is decoded on
// top of it.
func ParseJSON(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "sieveconfig: open config file")
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return errors.Wrap(err, "sieveconfig: decode config file")
	}
	return nil
}

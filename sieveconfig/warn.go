package sieveconfig

import "github.com/fatih/color"

// Warn prints non-fatal advisories the way client/main.go's QPP/scavenger
// checks do (color.Red for something the user should notice but that
// doesn't abort the run).
func Warn(cfg *Config) {
	if cfg.TargetFPS > 0 && cfg.TargetSPF > 0 {
		// Validate already rejects this combination as a ConfigError; this
		// branch only fires when Warn is called ahead of Validate.
		color.Red("WARNING: both -4 and -5 targets are set; each is checked only against a rate measured in its own unit.")
	}
	if cfg.MinutesForSPF <= 0 && cfg.TargetSPF > 0 {
		color.Yellow("WARNING: -5 target set without -6 minutes_for_spf; defaulting to 1 minute.")
	}
	if cfg.NumWorkers > 0 && cfg.CheckpointSec > 0 && cfg.CheckpointSec < 5 {
		color.Yellow("WARNING: checkpoint_seconds %d is very frequent; this may slow the sieve.", cfg.CheckpointSec)
	}
}

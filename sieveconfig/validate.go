package sieveconfig

import "github.com/mtsieve/mtsieve/mtsieveerr"

// Validate checks the startup invariants whose violation is a fatal
// ConfigError: pmin < pmax (when pmax is set), nmin <= nmax, kmin <= kmax,
// at most one of the -4/-5 rate targets, a known family, and the required
// output terms and factor file paths. It does not check a format flag.
func (c *Config) Validate() error {
	if c.Pmax != 0 && c.Pmin >= c.Pmax {
		return mtsieveerr.New(mtsieveerr.ConfigError, "pmin (%d) must be less than pmax (%d)", c.Pmin, c.Pmax)
	}
	if c.MinN > c.MaxN {
		return mtsieveerr.New(mtsieveerr.ConfigError, "nmin (%d) must be <= nmax (%d)", c.MinN, c.MaxN)
	}
	if c.MinK > c.MaxK {
		return mtsieveerr.New(mtsieveerr.ConfigError, "kmin (%d) must be <= kmax (%d)", c.MinK, c.MaxK)
	}
	if c.TargetFPS > 0 && c.TargetSPF > 0 {
		return mtsieveerr.New(mtsieveerr.ConfigError, "only one of -4 (f/s target) and -5 (s/f target) may be set")
	}
	switch c.Family {
	case "carolkynea", "kbnc", "twin":
	case "":
		return mtsieveerr.New(mtsieveerr.ConfigError, "missing required parameter: family")
	default:
		return mtsieveerr.New(mtsieveerr.ConfigError, "unknown family %q", c.Family)
	}
	if c.OutputTerms == "" {
		return mtsieveerr.New(mtsieveerr.ConfigError, "missing required parameter: output_terms (-o)")
	}
	if c.FactorFile == "" {
		return mtsieveerr.New(mtsieveerr.ConfigError, "missing required parameter: factor_file (-O)")
	}
	return nil
}

package main

import (
	"fmt"
	"log"

	"github.com/mtsieve/mtsieve/algebraic"
	"github.com/mtsieve/mtsieve/checkpoint"
	"github.com/mtsieve/mtsieve/family"
	"github.com/mtsieve/mtsieve/family/carolkynea"
	"github.com/mtsieve/mtsieve/family/kbnc"
	"github.com/mtsieve/mtsieve/family/twin"
	"github.com/mtsieve/mtsieve/mtsieveerr"
	"github.com/mtsieve/mtsieve/sieveconfig"
)

// checkpointHeader builds the ABC-shaped header written at each checkpoint
// (spec.md section 6.1/6.2): the template names the family and its k, b and
// c, so resumeFromCheckpoint can reject an input terms file whose template
// differs from the one the current flags produce.
func checkpointHeader(cfg *sieveconfig.Config, familyName string) checkpoint.Header {
	return checkpoint.Header{
		Format:   checkpoint.FormatABC,
		Template: fmt.Sprintf("%s k=%d b=%d c=%d", familyName, cfg.K, cfg.Base, cfg.C),
	}
}

// buildFamily constructs the concrete family.Sieve named by cfg.Family,
// logging every algebraic-elimination record produced during setup (spec.md
// section 4.11: "the elimination step must emit an algebraic-factor record
// for each removed term so downstream consumers see a unified reason
// stream" — here that consumer is the startup log).
func buildFamily(cfg *sieveconfig.Config) (family.Sieve, error) {
	switch cfg.Family {
	case "carolkynea":
		f, records := carolkynea.New(cfg.Base, cfg.MinN, cfg.MaxN)
		logAlgebraicRecords(records)
		return f, nil
	case "kbnc":
		f, records := kbnc.New(cfg.K, cfg.Base, cfg.C, cfg.MinN, cfg.MaxN)
		logAlgebraicRecords(records)
		return f, nil
	case "twin":
		// Twin has a single fixed n (only k ranges); it reuses the MinN
		// field as that fixed exponent rather than adding a dedicated flag.
		return twin.New(cfg.Base, cfg.MinN, cfg.MinK, cfg.MaxK), nil
	default:
		return nil, mtsieveerr.New(mtsieveerr.ConfigError, "unknown family %q", cfg.Family)
	}
}

func logAlgebraicRecords(records []algebraic.Record) {
	for _, r := range records {
		log.Printf("algebraic elimination: coord=%d reason=%s", r.Coord, r.Reason)
	}
}

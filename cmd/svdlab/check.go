package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/config"
	"github.com/yyyoichi/svdlab/internal/property"
	"github.com/yyyoichi/svdlab/internal/svd"
)

func checkCmd(ctx context.Context, cfg *config.Config, args []string) error {
	fs, f := newFlags("check", cfg)
	if err := f.parse(fs, args); err != nil {
		return err
	}
	l, err := f.lab()
	if err != nil {
		return err
	}
	s, err := svdlab.NewSession(ctx, l)
	if err != nil {
		return err
	}
	res := s.Result()

	// the Eckart–Young identity needs every exact triplet
	dec := res.Decomposition
	if l.Method() == svd.Randomized || dec.Rank() < len(res.Spectrum) {
		log.Debug().Stringer("method", l.Method()).Msg("Refactorizing with thin SVD for the checks")
		if dec, err = svd.New(svd.Thin).Exec(res.Noisy); err != nil {
			return err
		}
	}

	checks, err := property.RunAll(res.Clean, res.Noisy, dec, property.Options{Rank: l.Rank(), Seed: l.Seed()})
	if err != nil {
		return err
	}
	return printChecks(os.Stdout, checks)
}

// printChecks writes one line per check and returns errChecksFailed when any
// of them failed.
func printChecks(w io.Writer, checks []property.Check) error {
	fmt.Fprintln(w, "=== Property Checks ===")
	for _, c := range checks {
		fmt.Fprintln(w, c)
	}
	if !property.Passed(checks) {
		log.Error().Int("checks", len(checks)).Msg("Property checks failed")
		return errChecksFailed
	}
	log.Info().Int("checks", len(checks)).Msg("All property checks passed")
	return nil
}

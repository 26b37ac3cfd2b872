package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/config"
	"github.com/yyyoichi/svdlab/internal/store"
	"github.com/yyyoichi/svdlab/internal/svd"
)

func sweepCmd(ctx context.Context, cfg *config.Config, args []string) error {
	fs, f := newFlags("sweep", cfg)
	sigmas := fs.String("sigmas", "0.05,0.1,0.15,0.2,0.3", "comma separated noise levels")
	methods := fs.String("methods", "thin,randomized", "comma separated svd methods")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	if err := f.parse(fs, args); err != nil {
		return err
	}

	noise, err := parseFloats(*sigmas)
	if err != nil {
		return err
	}
	ms, err := parseMethods(*methods)
	if err != nil {
		return err
	}
	m, n := cfg.Dims()
	if limit := min(m, n); cfg.Rank > limit {
		log.Warn().Int("rank", cfg.Rank).Int("limit", limit).Msg("Rank exceeds min(m, n) - clamping")
		cfg.Rank = limit
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	cache := svd.NewCache(svd.DefaultCacheSize)
	for _, method := range ms {
		for _, sigma := range noise {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := f.lab(svdlab.WithMethod(method), svdlab.WithNoise(sigma), svdlab.WithCache(cache))
			if err != nil {
				return err
			}
			res, err := l.Run(ctx)
			if err != nil {
				return err
			}
			id, err := db.InsertRun(store.Run{
				Signal:   l.Signal(),
				Rows:     m,
				Cols:     n,
				Method:   method.String(),
				Sigma:    sigma,
				Seed:     l.Seed(),
				TrueRank: res.TrueRank,
			})
			if err != nil {
				return err
			}
			if err := db.InsertReports(id, res.Reports); err != nil {
				return err
			}
			best, err := db.BestRank(id)
			if err != nil {
				return err
			}
			log.Info().
				Int64("run", id).
				Stringer("method", method).
				Float64("sigma", sigma).
				Int("best_rank", best.Rank).
				Float64("err_clean", best.ErrClean).
				Int("gavish_donoho", res.Estimates.GavishDonoho).
				Msg("Stored sweep")
			fmt.Printf("%-10s σ=%-6.3g best %s\n", method, sigma, best)
		}
	}
	log.Info().Str("db", cfg.DBPath).Int("runs", len(ms)*len(noise)).Msg("Sweep finished")
	return nil
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid noise level %q: %w", field, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no noise levels in %q", s)
	}
	return out, nil
}

func parseMethods(s string) ([]svd.Method, error) {
	var out []svd.Method
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		m, err := svd.ParseMethod(field)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no methods in %q", s)
	}
	return out, nil
}

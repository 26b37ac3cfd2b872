package svdlab

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"github.com/yyyoichi/svdlab/internal/rank"
	"github.com/yyyoichi/svdlab/internal/signal"
	"github.com/yyyoichi/svdlab/internal/svd"
	"gonum.org/v1/gonum/mat"
)

// Session keeps the matrices and the factorization of one configuration so
// that changing the truncation rank costs a reconstruction, not a new SVD.
type Session struct {
	lab    *Lab
	result Result
	input  metrics.Input
}

// NewSession builds the clean and noisy matrices and factorizes the noisy
// one. The factorization goes through the lab's cache.
func NewSession(ctx context.Context, l *Lab) (*Session, error) {
	clean, trueRank, err := l.clean()
	if err != nil {
		return nil, err
	}
	log.Debug().Str("signal", l.Signal()).Int("rows", l.m).Int("cols", l.n).Int("true_rank", trueRank).Msg("Built clean signal")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	noisy, noise, err := signal.AddNoise(clean, l.sigma, signal.NewSource(l.seed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	log.Debug().Float64("sigma", l.sigma).Float64("noise_norm", metrics.Frobenius(noise)).Msg("Added noise")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spectrum, err := svd.Values(noisy)
	if err != nil {
		return nil, err
	}
	key := svd.Key(l.method, l.maxRank, l.Signal(), l.m, l.n, l.sigma, l.seed)
	dec, err := l.cache.Exec(key, l.decomposer(), noisy)
	if err != nil {
		return nil, err
	}
	log.Debug().Stringer("method", l.method).Int("triplets", dec.Rank()).Msg("Factorized")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, n := noisy.Dims()
	s := &Session{
		lab: l,
		result: Result{
			Clean:         clean,
			Noisy:         noisy,
			Noise:         noise,
			TrueRank:      trueRank,
			Spectrum:      spectrum,
			Decomposition: dec,
			Tolerance:     metrics.Tolerance(spectrum, m, n),
			NumericalRank: metrics.NumericalRank(spectrum, m, n),
			Estimates:     rank.Estimate(spectrum, m, n, l.sigma),
		},
		input: metrics.Input{Clean: clean, Noisy: noisy, Noise: noise, Spectrum: spectrum},
	}
	return s, nil
}

func (l *Lab) clean() (*mat.Dense, int, error) {
	if l.signalRank > 0 {
		a, err := signal.Random(l.m, l.n, l.signalRank, signal.NewSource(^l.seed))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		return a, l.signalRank, nil
	}
	size := max(l.m, l.n)
	a, r, err := signal.Preset(l.preset, size)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	if l.m == size && l.n == size {
		return a, r, nil
	}
	return mat.DenseCopyOf(a.Slice(0, l.m, 0, l.n)), min(r, l.m, l.n), nil
}

func (l *Lab) decomposer() *svd.Decomposer {
	return svd.New(l.method,
		svd.WithRank(l.maxRank),
		svd.WithSource(signal.NewSource(l.seed+1)),
	)
}

// At returns the report and the rank-k approximation. k above min(m, n)
// fails with ErrRankTooLarge; k above the number of triplets a truncated
// factorization holds fails with svd.ErrRankOutOfRange.
func (s *Session) At(k int) (metrics.Report, *mat.Dense, error) {
	return metrics.Evaluate(s.result.Decomposition, s.input, k)
}

// Sweep evaluates every rank from 1 to the lab's MaxRank.
func (s *Session) Sweep(ctx context.Context) ([]metrics.Report, error) {
	return metrics.Sweep(ctx, s.result.Decomposition, s.input, s.lab.maxRank)
}

// Run truncates the session's factorization to the lab's rank k and sweeps
// every rank up to MaxRank. The matrices and the factorization are reused.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	k := s.lab.k
	rep, approx, err := s.At(k)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("rank", k).Float64("err_clean", rep.ErrClean).Msg("Truncated")

	reports, err := s.Sweep(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("ranks", len(reports)).Msg("Swept")

	r := s.Result()
	r.Approx = approx
	r.Report = rep
	r.Reports = reports
	return r, nil
}

// Result returns a copy of the session's matrices and estimates. Approx,
// Report and Reports are left empty.
func (s *Session) Result() *Result {
	r := s.result
	return &r
}

// Lab returns the configuration the session was built from.
func (s *Session) Lab() *Lab { return s.lab }

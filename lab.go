// Package svdlab builds a noisy low-rank matrix, factorizes it, truncates the
// factorization to rank k and measures how close the approximation comes to
// the clean signal. By the Eckart–Young–Mirsky theorem the truncated SVD is
// the best rank-k approximation in the Frobenius and spectral norms.
package svdlab

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"github.com/yyyoichi/svdlab/internal/rank"
	"github.com/yyyoichi/svdlab/internal/signal"
	"github.com/yyyoichi/svdlab/internal/svd"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrRankTooLarge reports a rank above min(m, n).
	ErrRankTooLarge  = svd.ErrRankTooLarge
	ErrInvalidOption = errors.New("invalid option")
)

// Defaults used by New.
const (
	DefaultSize    = 60
	DefaultNoise   = 0.15
	DefaultSeed    = 2026
	DefaultRank    = 3
	DefaultMaxRank = 20
)

// Run is a convenience function that creates a Lab and calls its Run method.
func Run(ctx context.Context, opts ...Option) (*Result, error) {
	l, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return l.Run(ctx)
}

type Lab struct {
	m, n       int
	preset     string
	signalRank int
	sigma      float64
	seed       uint64
	method     svd.Method
	k          int
	maxRank    int
	cache      *svd.Cache
}

// New initializes a lab. Without options it reproduces the three-peaks demo:
// a 60×60 surface, σ = 0.15, seed 2026, thin SVD truncated at k = 3.
func New(opts ...Option) (*Lab, error) {
	l := new(Lab)
	if err := l.init(opts...); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lab) init(opts ...Option) error {
	l.m, l.n = DefaultSize, DefaultSize
	l.preset = signal.DefaultPreset
	l.sigma = DefaultNoise
	l.seed = DefaultSeed
	l.method = svd.Thin
	l.k = DefaultRank
	l.maxRank = DefaultMaxRank
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return err
		}
	}
	limit := min(l.m, l.n)
	if l.k > limit {
		return fmt.Errorf("%w: k=%d, min(m, n)=%d", ErrRankTooLarge, l.k, limit)
	}
	if l.signalRank > limit {
		return fmt.Errorf("%w: signal rank=%d, min(m, n)=%d", ErrRankTooLarge, l.signalRank, limit)
	}
	if l.maxRank > limit {
		log.Warn().Int("max_rank", l.maxRank).Int("limit", limit).Msg("Sweep rank exceeds min(m, n) - clamping")
		l.maxRank = limit
	}
	l.maxRank = max(l.maxRank, l.k)
	if l.cache == nil {
		l.cache = svd.NewCache(svd.DefaultCacheSize)
	}
	return nil
}

func (l *Lab) Dims() (m, n int) { return l.m, l.n }
func (l *Lab) Rank() int { return l.k }
func (l *Lab) MaxRank() int { return l.maxRank }
func (l *Lab) Noise() float64 { return l.sigma }
func (l *Lab) Seed() uint64 { return l.seed }
func (l *Lab) Method() svd.Method { return l.method }
func (l *Lab) Cache() *svd.Cache { return l.cache }

// Signal names the clean matrix, a preset name or "random-r<rank>".
func (l *Lab) Signal() string {
	if l.signalRank > 0 {
		return fmt.Sprintf("random-r%d", l.signalRank)
	}
	return l.preset
}

// Result holds every intermediate of one pipeline run.
type Result struct {
	Clean *mat.Dense
	Noisy *mat.Dense
	Noise *mat.Dense
	// TrueRank is the rank of Clean by construction.
	TrueRank int

	// Spectrum holds all singular values of Noisy, also for truncated and
	// randomized methods.
	Spectrum      []float64
	Decomposition *svd.Decomposition
	// Tolerance is max(m, n)·ε·σ_max and NumericalRank the number of
	// singular values above it.
	Tolerance     float64
	NumericalRank int

	Approx    *mat.Dense
	Report    metrics.Report
	Reports   []metrics.Report
	Estimates rank.Estimates
}

// Run executes the pipeline:
//  1. builds the clean low-rank matrix.
//  2. adds Gaussian noise.
//  3. factorizes the noisy matrix with the configured method.
//  4. truncates to rank k.
//  5. measures the error of rank k and of every rank up to MaxRank.
//
// The context is checked between stages and during the sweep.
func (l *Lab) Run(ctx context.Context) (*Result, error) {
	s, err := NewSession(ctx, l)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

package svdlab

import (
	"fmt"

	"github.com/yyyoichi/svdlab/internal/signal"
	"github.com/yyyoichi/svdlab/internal/svd"
)

type Option func(*Lab) error

// WithSize sets the matrix shape to m rows and n columns. Preset surfaces are
// square; a preset with m != n is sampled at max(m, n) and cropped.
func WithSize(m, n int) Option {
	return func(l *Lab) error {
		if m < 1 || n < 1 {
			return fmt.Errorf("%w: size %dx%d", ErrInvalidOption, m, n)
		}
		l.m, l.n = m, n
		return nil
	}
}

// WithPreset selects a named Gaussian-peak surface as the clean signal.
// See signal.Presets for the names.
func WithPreset(name string) Option {
	return func(l *Lab) error {
		if _, _, err := signal.Preset(name, 1); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		l.preset = name
		l.signalRank = 0
		return nil
	}
}

// WithRandom replaces the preset with a random Gaussian matrix of exact rank
// r.
func WithRandom(r int) Option {
	return func(l *Lab) error {
		if r < 1 {
			return fmt.Errorf("%w: signal rank %d", ErrInvalidOption, r)
		}
		l.signalRank = r
		return nil
	}
}

// WithNoise sets the standard deviation of the additive Gaussian noise.
func WithNoise(sigma float64) Option {
	return func(l *Lab) error {
		if sigma < 0 {
			return fmt.Errorf("%w: noise %v", ErrInvalidOption, sigma)
		}
		l.sigma = sigma
		return nil
	}
}

// WithSeed fixes the random source. The same seed reproduces the same noise,
// random signal and randomized factorization.
func WithSeed(seed uint64) Option {
	return func(l *Lab) error {
		l.seed = seed
		return nil
	}
}

// WithMethod selects the factorization.
func WithMethod(m svd.Method) Option {
	return func(l *Lab) error {
		if _, err := svd.ParseMethod(m.String()); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOption, err)
		}
		l.method = m
		return nil
	}
}

// WithRank sets the truncation rank k. A k above min(m, n) is rejected by
// New with ErrRankTooLarge.
func WithRank(k int) Option {
	return func(l *Lab) error {
		if k < 1 {
			return fmt.Errorf("%w: rank %d", ErrInvalidOption, k)
		}
		l.k = k
		return nil
	}
}

// WithMaxRank bounds the error-vs-rank sweep. Values above min(m, n) are
// clamped.
func WithMaxRank(r int) Option {
	return func(l *Lab) error {
		if r < 1 {
			return fmt.Errorf("%w: max rank %d", ErrInvalidOption, r)
		}
		l.maxRank = r
		return nil
	}
}

// WithCache shares a factorization cache between labs.
func WithCache(c *svd.Cache) Option {
	return func(l *Lab) error {
		l.cache = c
		return nil
	}
}

// Package signal builds clean low-rank test matrices and their noisy
// observations.
package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrUnknownPreset = errors.New("unknown signal preset")
	ErrRankTooLarge  = errors.New("rank exceeds min(m, n)")
	ErrInvalidShape  = errors.New("invalid matrix shape")
	ErrNegativeNoise = errors.New("noise standard deviation must be non-negative")
)

// Peak is a separable Gaussian bump Amp * exp(-((x-CX)² + (y-CY)²)).
// Because exp(-(x-CX)²) * exp(-(y-CY)²) is an outer product, every peak
// contributes a rank-1 term.
type Peak struct {
	Amp, CX, CY float64
}

// Surface samples the sum of peaks on a size×size meshgrid spanning
// [-half, half] in both directions. x runs along columns and y along rows.
func Surface(size int, half float64, peaks []Peak) (*mat.Dense, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size=%d", ErrInvalidShape, size)
	}
	axis := linspace(-half, half, size)
	z := mat.NewDense(size, size, nil)
	// Build each peak as col(y) * row(x)ᵀ to keep the rank structure exact.
	for _, p := range peaks {
		gx := make([]float64, size)
		gy := make([]float64, size)
		for i, v := range axis {
			gx[i] = math.Exp(-(v - p.CX) * (v - p.CX))
			gy[i] = math.Exp(-(v - p.CY) * (v - p.CY))
		}
		var outer mat.Dense
		outer.Outer(p.Amp, mat.NewVecDense(size, gy), mat.NewVecDense(size, gx))
		z.Add(z, &outer)
	}
	return z, nil
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

type preset struct {
	half  float64
	peaks []Peak
}

var presets = map[string]preset{
	"three-peaks": {half: 2.5, peaks: []Peak{{1, 0, 0}, {0.7, 1.5, 1.5}, {0.5, -1, 1}}},
	"two-peaks":   {half: 2, peaks: []Peak{{1, 0, 0}, {0.5, 1, 1}}},
	"ridge":       {half: 2, peaks: []Peak{{1, 0, 0}, {0.6, 1.2, 1.2}, {0.4, -1.2, 1.2}}},
}

const DefaultPreset = "three-peaks"

func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset samples a named surface at the given size and returns its rank.
// Peaks sharing a row center collapse into one rank-1 term, as do peaks
// sharing a column center, so the rank is the smaller count of distinct
// centers.
func Preset(name string, size int) (*mat.Dense, int, error) {
	p, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q (have %s)", ErrUnknownPreset, name, strings.Join(Presets(), ", "))
	}
	z, err := Surface(size, p.half, p.peaks)
	if err != nil {
		return nil, 0, err
	}
	return z, min(rankOf(p.peaks), size), nil
}

func rankOf(peaks []Peak) int {
	xs := make(map[float64]struct{})
	ys := make(map[float64]struct{})
	for _, p := range peaks {
		xs[p.CX] = struct{}{}
		ys[p.CY] = struct{}{}
	}
	return min(len(xs), len(ys))
}

// Random returns L * R for Gaussian m×rank and rank×n factors, a matrix of
// exact rank `rank` with probability one.
func Random(m, n, rank int, src rand.Source) (*mat.Dense, error) {
	if m < 1 || n < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidShape, m, n)
	}
	if rank < 1 || rank > min(m, n) {
		return nil, fmt.Errorf("%w: rank=%d, min(m, n)=%d", ErrRankTooLarge, rank, min(m, n))
	}
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	fill := func(r, c int) *mat.Dense {
		data := make([]float64, r*c)
		for i := range data {
			data[i] = dist.Rand()
		}
		return mat.NewDense(r, c, data)
	}
	var a mat.Dense
	a.Mul(fill(m, rank), fill(rank, n))
	// Scale so entries are O(1) regardless of rank.
	a.Scale(1/math.Sqrt(float64(rank)), &a)
	return &a, nil
}

// AddNoise returns clean + N and N, where N has i.i.d. N(0, sigma²) entries.
func AddNoise(clean mat.Matrix, sigma float64, src rand.Source) (noisy, noise *mat.Dense, err error) {
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, nil, fmt.Errorf("%w: sigma=%v", ErrNegativeNoise, sigma)
	}
	r, c := clean.Dims()
	data := make([]float64, r*c)
	if sigma > 0 {
		dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
		for i := range data {
			data[i] = dist.Rand()
		}
	}
	noise = mat.NewDense(r, c, data)
	noisy = new(mat.Dense)
	noisy.Add(clean, noise)
	return noisy, noise, nil
}

// NewSource returns a deterministic PCG source for seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

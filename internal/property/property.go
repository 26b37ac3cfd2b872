// Package property checks the linear-algebra identities a truncated SVD must
// satisfy: invariance of singular values under rotations, idempotence of the
// rank-k projection, the Eckart–Young error identity and linear growth of the
// reconstruction error with the noise level.
package property

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/yyyoichi/svdlab/internal/metrics"
	"github.com/yyyoichi/svdlab/internal/signal"
	"github.com/yyyoichi/svdlab/internal/svd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Check is the outcome of one property. Value is compared against Tolerance
// by the property's own rule; Pass records the verdict.
type Check struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Tolerance float64 `json:"tolerance"`
	Pass      bool    `json:"pass"`
	Detail    string  `json:"detail,omitempty"`
}

func (c Check) String() string {
	status := "PASS"
	if !c.Pass {
		status = "FAIL"
	}
	s := fmt.Sprintf("[%s] %-24s value=%.3e tol=%.3e", status, c.Name, c.Value, c.Tolerance)
	if c.Detail != "" {
		s += " " + c.Detail
	}
	return s
}

// tolerance scales machine epsilon by the problem size and magnitude.
func tolerance(m, n int, scale float64) float64 {
	return 100 * float64(max(m, n)) * metrics.Epsilon * math.Max(scale, 1)
}

// RandomOrthogonal returns the Q factor of an n×n Gaussian matrix.
func RandomOrthogonal(n int, src rand.Source) *mat.Dense {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, n*n)
	for i := range data {
		data[i] = dist.Rand()
	}
	var qr mat.QR
	qr.Factorize(mat.NewDense(n, n, data))
	var q mat.Dense
	qr.QTo(&q)
	return &q
}

// RotationInvariance compares the spectrum of Q·A·P with that of A for random
// orthogonal Q and P.
func RotationInvariance(a mat.Matrix, src rand.Source) (Check, error) {
	m, n := a.Dims()
	q := RandomOrthogonal(m, src)
	p := RandomOrthogonal(n, src)
	var rotated mat.Dense
	rotated.Product(q, a, p)

	before, err := svd.New(svd.Thin).Exec(a)
	if err != nil {
		return Check{}, err
	}
	after, err := svd.New(svd.Thin).Exec(&rotated)
	if err != nil {
		return Check{}, err
	}
	var worst float64
	for i := range before.S {
		worst = math.Max(worst, math.Abs(before.S[i]-after.S[i]))
	}
	scale := 0.0
	if len(before.S) > 0 {
		scale = before.S[0]
	}
	tol := tolerance(m, n, scale)
	return Check{
		Name:      "rotation_invariance",
		Value:     worst,
		Tolerance: tol,
		Pass:      worst <= tol,
		Detail:    fmt.Sprintf("max|σ(QAP)-σ(A)| over %d values", len(before.S)),
	}, nil
}

// ProjectionIdempotence truncates A_k to rank k again and measures how far the
// result moved, relative to ‖A_k‖_F. It also checks P_k² = P_k for the
// projector P_k = U_k·U_kᵀ and reports the larger of both deviations.
func ProjectionIdempotence(dec *svd.Decomposition, k int) (Check, error) {
	ak, err := dec.Reconstruct(k)
	if err != nil {
		return Check{}, err
	}
	again, err := svd.New(svd.Truncated, svd.WithRank(k)).Exec(ak)
	if err != nil {
		return Check{}, err
	}
	akk, err := again.Reconstruct(k)
	if err != nil {
		return Check{}, err
	}
	drift := metrics.Relative(ak, akk)

	p, err := dec.Projector(k)
	if err != nil {
		return Check{}, err
	}
	var pp mat.Dense
	pp.Mul(p, p)
	projDrift := metrics.FrobeniusDiff(&pp, p)

	m, n := dec.Dims()
	value := math.Max(drift, projDrift)
	tol := tolerance(m, n, 1)
	return Check{
		Name:      "projection_idempotence",
		Value:     value,
		Tolerance: tol,
		Pass:      value <= tol,
		Detail:    fmt.Sprintf("k=%d truncation=%.2e projector=%.2e", k, drift, projDrift),
	}, nil
}

// EckartYoung verifies ‖A - A_k‖_F = sqrt(Σ_{i>k} σ_i²) and
// ‖A - A_k‖_2 = σ_{k+1}. dec must hold the whole spectrum of a.
func EckartYoung(a mat.Matrix, dec *svd.Decomposition, k int) (Check, error) {
	ak, err := dec.Reconstruct(k)
	if err != nil {
		return Check{}, err
	}
	var diff mat.Dense
	diff.Sub(a, ak)
	fro := math.Abs(metrics.Frobenius(&diff) - metrics.TailEnergy(dec.S, k))
	spec := math.Abs(metrics.Spectral(&diff) - metrics.TailSpectral(dec.S, k))

	m, n := dec.Dims()
	value := math.Max(fro, spec)
	tol := tolerance(m, n, dec.S[0])
	return Check{
		Name:      "eckart_young",
		Value:     value,
		Tolerance: tol,
		Pass:      value <= tol,
		Detail:    fmt.Sprintf("k=%d frobenius=%.2e spectral=%.2e", k, fro, spec),
	}, nil
}

// NoiseScaling decomposes clean + σN for every sigma with the same noise
// draw N and fits ‖L - A_k‖_F against σ. The error of a rank-k truncation
// grows linearly in σ while k is at least the rank of clean and σ stays
// below its k-th singular value, so the fit must explain most of the
// variance with a positive slope.
func NoiseScaling(clean mat.Matrix, sigmas []float64, k int, seed uint64) (Check, error) {
	if len(sigmas) < 3 {
		return Check{}, fmt.Errorf("need at least 3 noise levels, got %d", len(sigmas))
	}
	_, unit, err := signal.AddNoise(clean, 1, signal.NewSource(seed))
	if err != nil {
		return Check{}, err
	}
	errs := make([]float64, len(sigmas))
	for i, sigma := range sigmas {
		var noisy mat.Dense
		noisy.Scale(sigma, unit)
		noisy.Add(clean, &noisy)
		dec, err := svd.New(svd.Truncated, svd.WithRank(k)).Exec(&noisy)
		if err != nil {
			return Check{}, err
		}
		approx, err := dec.Reconstruct(k)
		if err != nil {
			return Check{}, err
		}
		errs[i] = metrics.FrobeniusDiff(clean, approx)
	}
	alpha, beta := stat.LinearRegression(sigmas, errs, nil, false)
	r2 := stat.RSquared(sigmas, errs, nil, alpha, beta)
	const minR2 = 0.95
	return Check{
		Name:      "noise_scaling",
		Value:     r2,
		Tolerance: minR2,
		Pass:      r2 >= minR2 && beta > 0,
		Detail:    fmt.Sprintf("err ≈ %.3f + %.3f·σ over %d levels", alpha, beta, len(sigmas)),
	}, nil
}

// Options controls RunAll.
type Options struct {
	Rank int
	// Sigmas are the noise levels of NoiseScaling. When empty they are
	// chosen by DefaultSigmas.
	Sigmas []float64
	Seed   uint64
}

// DefaultSigmas picks noise levels whose largest noise singular value,
// about σ(√m + √n), stays below a quarter of the k-th singular value of
// clean (or of its last nonzero one when clean has lower rank).
func DefaultSigmas(clean mat.Matrix, k int) ([]float64, error) {
	s, err := svd.Values(clean)
	if err != nil {
		return nil, err
	}
	m, n := clean.Dims()
	r := min(k, metrics.NumericalRank(s, m, n))
	if r < 1 {
		return nil, fmt.Errorf("clean matrix has no nonzero singular value")
	}
	top := s[r-1] / (math.Sqrt(float64(m)) + math.Sqrt(float64(n)))
	fractions := []float64{0.05, 0.1, 0.15, 0.2, 0.25}
	sigmas := make([]float64, len(fractions))
	for i, f := range fractions {
		sigmas[i] = f * top
	}
	return sigmas, nil
}

// RunAll evaluates every property on the clean signal and its
// decomposition.
func RunAll(clean, noisy mat.Matrix, dec *svd.Decomposition, opts Options) ([]Check, error) {
	if len(opts.Sigmas) == 0 {
		sigmas, err := DefaultSigmas(clean, opts.Rank)
		if err != nil {
			return nil, err
		}
		opts.Sigmas = sigmas
	}
	var checks []Check
	steps := []func() (Check, error){
		func() (Check, error) { return RotationInvariance(noisy, signal.NewSource(opts.Seed)) },
		func() (Check, error) { return ProjectionIdempotence(dec, opts.Rank) },
		func() (Check, error) { return EckartYoung(noisy, dec, opts.Rank) },
		func() (Check, error) { return NoiseScaling(clean, opts.Sigmas, opts.Rank, opts.Seed) },
	}
	for _, step := range steps {
		c, err := step()
		if err != nil {
			return checks, err
		}
		checks = append(checks, c)
	}
	return checks, nil
}

// Passed reports whether every check passed.
func Passed(checks []Check) bool {
	for _, c := range checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

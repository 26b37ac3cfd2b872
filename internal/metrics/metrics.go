package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Epsilon is the float64 machine epsilon, 2^-52.
var Epsilon = math.Nextafter(1, 2) - 1

// Frobenius returns ‖a‖_F. Empty matrices have norm zero.
func Frobenius(a mat.Matrix) float64 {
	if r, c := a.Dims(); r == 0 || c == 0 {
		return 0
	}
	return mat.Norm(a, 2)
}

// FrobeniusDiff returns ‖a - b‖_F.
func FrobeniusDiff(a, b mat.Matrix) float64 {
	var d mat.Dense
	d.Sub(a, b)
	return Frobenius(&d)
}

// Relative returns ‖ref - approx‖_F / ‖ref‖_F. The denominator is floored at
// Epsilon so an all-zero reference yields the absolute error scaled up
// rather than a division by zero.
func Relative(ref, approx mat.Matrix) float64 {
	return FrobeniusDiff(ref, approx) / math.Max(Frobenius(ref), Epsilon)
}

// MSE returns the mean squared entrywise difference.
func MSE(a, b mat.Matrix) float64 {
	r, c := a.Dims()
	if r*c == 0 {
		return 0
	}
	d := FrobeniusDiff(a, b)
	return d * d / float64(r*c)
}

// Spectral returns the operator 2-norm, the largest singular value.
func Spectral(a mat.Matrix) float64 {
	var s mat.SVD
	if ok := s.Factorize(a, mat.SVDNone); !ok {
		return math.NaN()
	}
	v := s.Values(nil)
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// Gain is the percentage of the noise energy removed by the approximation:
// 100 * (1 - err/‖N‖_F).
func Gain(err, noiseNorm float64) float64 {
	if noiseNorm <= Epsilon {
		return 0
	}
	return 100 * (1 - err/noiseNorm)
}

// TailEnergy is sqrt(Σ_{i>k} σ_i²), which by Eckart–Young–Mirsky equals the
// Frobenius error of the best rank-k approximation.
func TailEnergy(s []float64, k int) float64 {
	var sum float64
	for i := max(k, 0); i < len(s); i++ {
		sum += s[i] * s[i]
	}
	return math.Sqrt(sum)
}

// TailSpectral is σ_{k+1}, the spectral error of the best rank-k
// approximation.
func TailSpectral(s []float64, k int) float64 {
	if k < 0 || k >= len(s) {
		return 0
	}
	return s[k]
}

// Tolerance is the singular value cutoff max(m, n) * ε * σ_max used by
// LAPACK-style rank decisions.
func Tolerance(s []float64, m, n int) float64 {
	if len(s) == 0 {
		return 0
	}
	return float64(max(m, n)) * Epsilon * s[0]
}

// NumericalRank counts the singular values above Tolerance.
func NumericalRank(s []float64, m, n int) int {
	tol := Tolerance(s, m, n)
	var k int
	for _, v := range s {
		if v > tol {
			k++
		}
	}
	return k
}

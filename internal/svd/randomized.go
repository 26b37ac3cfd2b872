package svd

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// randomized computes a rank-k SVD with the randomized range finder of
// Halko, Martinsson and Tropp:
//
//  1. sample Y = A * Ω with a Gaussian n×l test matrix, l = k + oversample,
//  2. sharpen the range with q power iterations (A * Aᵀ)^q,
//  3. orthonormalize Y into Q,
//  4. factorize the small l×n matrix B = Qᵀ * A and lift U = Q * U_B.
func randomized(a mat.Matrix, k, oversample, powerIter int, src rand.Source) (*Decomposition, error) {
	m, n := a.Dims()
	l := min(k+max(oversample, 0), min(m, n))

	var y mat.Dense
	y.Mul(a, gaussian(n, l, src))
	q := orthonormal(&y)
	for range powerIter {
		// Re-orthonormalize after every product to keep the small singular
		// directions from being lost to rounding.
		var z mat.Dense
		z.Mul(a.T(), q)
		qz := orthonormal(&z)
		y.Mul(a, qz)
		q = orthonormal(&y)
	}

	var b mat.Dense
	b.Mul(q.T(), a)
	var small mat.SVD
	if ok := small.Factorize(&b, mat.SVDThin); !ok {
		return nil, ErrFactorize
	}
	var ub, v mat.Dense
	small.UTo(&ub)
	small.VTo(&v)
	var u mat.Dense
	u.Mul(q, &ub)

	dec := &Decomposition{
		U:      &u,
		S:      small.Values(nil),
		V:      &v,
		m:      m,
		n:      n,
		method: Randomized,
	}
	return dec.truncate(k), nil
}

// orthonormal returns the thin Q factor of y (r×c, r >= c).
func orthonormal(y *mat.Dense) *mat.Dense {
	r, c := y.Dims()
	var qr mat.QR
	qr.Factorize(y)
	var q mat.Dense
	qr.QTo(&q)
	return mat.DenseCopyOf(q.Slice(0, r, 0, c))
}

func gaussian(r, c int, src rand.Source) *mat.Dense {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(r, c, data)
}

package svd

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Decomposition holds A ≈ U * diag(S) * Vᵀ with S in descending order.
// U and V have at least len(S) columns; a full decomposition keeps the
// complete orthogonal bases.
type Decomposition struct {
	U *mat.Dense
	S []float64
	V *mat.Dense

	m, n   int
	method Method
}

func (d *Decomposition) Dims() (m, n int) { return d.m, d.n }

// Rank returns the number of singular triplets held, which is min(m, n)
// unless the decomposition was truncated.
func (d *Decomposition) Rank() int { return len(d.S) }

func (d *Decomposition) Method() Method { return d.method }

func (d *Decomposition) Values() []float64 {
	s := make([]float64, len(d.S))
	copy(s, d.S)
	return s
}

func (d *Decomposition) checkK(k int) error {
	if k > min(d.m, d.n) {
		return fmt.Errorf("%w: k=%d, min(m, n)=%d", ErrRankTooLarge, k, min(d.m, d.n))
	}
	if k < 1 || k > len(d.S) {
		return fmt.Errorf("%w: k=%d, available=%d", ErrRankOutOfRange, k, len(d.S))
	}
	return nil
}

// Reconstruct returns the rank-k approximation U_k * Σ_k * V_kᵀ.
func (d *Decomposition) Reconstruct(k int) (*mat.Dense, error) {
	if err := d.checkK(k); err != nil {
		return nil, err
	}
	// Scale the columns of U_k by σ instead of building the diagonal Σ.
	us := mat.DenseCopyOf(d.U.Slice(0, d.m, 0, k))
	us.Apply(func(_, j int, v float64) float64 { return v * d.S[j] }, us)
	var res mat.Dense
	res.Mul(us, d.V.Slice(0, d.n, 0, k).T())
	return &res, nil
}

// Projector returns the orthogonal projector U_k * U_kᵀ onto the span of the
// leading k left singular vectors.
func (d *Decomposition) Projector(k int) (*mat.Dense, error) {
	if err := d.checkK(k); err != nil {
		return nil, err
	}
	uk := d.U.Slice(0, d.m, 0, k)
	var p mat.Dense
	p.Mul(uk, uk.T())
	return &p, nil
}

// Energy returns the cumulative fraction of Σσ² captured by the leading
// 1..r singular values.
func (d *Decomposition) Energy() []float64 {
	return CumulativeEnergy(d.S)
}

func CumulativeEnergy(s []float64) []float64 {
	energy := make([]float64, len(s))
	var total float64
	for _, v := range s {
		total += v * v
	}
	var acc float64
	for i, v := range s {
		acc += v * v
		if total == 0 {
			energy[i] = 1
			continue
		}
		energy[i] = acc / total
	}
	return energy
}

func (d *Decomposition) truncate(k int) *Decomposition {
	return &Decomposition{
		U:      mat.DenseCopyOf(d.U.Slice(0, d.m, 0, k)),
		S:      append([]float64(nil), d.S[:k]...),
		V:      mat.DenseCopyOf(d.V.Slice(0, d.n, 0, k)),
		m:      d.m,
		n:      d.n,
		method: d.method,
	}
}

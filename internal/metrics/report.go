package metrics

import (
	"context"
	"fmt"

	"github.com/yyyoichi/svdlab/internal/svd"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Report summarizes a rank-k approximation A_k of the noisy matrix.
type Report struct {
	Rank int `json:"rank"`
	// Energy is the fraction of Σσ² kept by the first Rank values.
	Energy float64 `json:"energy"`
	// ErrClean is ‖L - A_k‖_F against the clean signal L.
	ErrClean float64 `json:"err_clean"`
	// ErrNoisy is ‖A - A_k‖_F against the decomposed matrix.
	ErrNoisy float64 `json:"err_noisy"`
	RelClean float64 `json:"rel_clean"`
	MSE      float64 `json:"mse"`
	Gain     float64 `json:"gain"`
	// TailBound is the Eckart–Young value sqrt(Σ_{i>k} σ_i²).
	TailBound float64 `json:"tail_bound"`
}

func (r Report) String() string {
	return fmt.Sprintf("Rank: %2d | Energy: %6.2f%% | Fro-Error: %.6f | MSE: %.6f | Gain: %6.2f%%",
		r.Rank, r.Energy*100, r.ErrClean, r.MSE, r.Gain)
}

// Input bundles the matrices a report is computed against. Noise may be nil
// when it is unknown, in which case Gain is left at zero. Spectrum holds all
// singular values of Noisy; when nil the decomposition's own values are
// used, which undercounts Energy and TailBound for truncated factorizations.
type Input struct {
	Clean    mat.Matrix
	Noisy    mat.Matrix
	Noise    mat.Matrix
	Spectrum []float64
}

func (in Input) spectrum(dec *svd.Decomposition) []float64 {
	if in.Spectrum != nil {
		return in.Spectrum
	}
	return dec.S
}

// Evaluate builds the report for a single rank.
func Evaluate(dec *svd.Decomposition, in Input, k int) (Report, *mat.Dense, error) {
	approx, err := dec.Reconstruct(k)
	if err != nil {
		return Report{}, nil, err
	}
	s := in.spectrum(dec)
	rep := Report{
		Rank:      k,
		Energy:    svd.CumulativeEnergy(s)[min(k, len(s))-1],
		ErrNoisy:  FrobeniusDiff(in.Noisy, approx),
		TailBound: TailEnergy(s, k),
	}
	if in.Clean != nil {
		rep.ErrClean = FrobeniusDiff(in.Clean, approx)
		rep.RelClean = Relative(in.Clean, approx)
		rep.MSE = MSE(in.Clean, approx)
	}
	if in.Noise != nil {
		rep.Gain = Gain(rep.ErrClean, Frobenius(in.Noise))
	}
	return rep, approx, nil
}

// Sweep evaluates ranks 1..maxRank concurrently. The result is ordered by
// rank.
func Sweep(ctx context.Context, dec *svd.Decomposition, in Input, maxRank int) ([]Report, error) {
	maxRank = min(maxRank, dec.Rank())
	if maxRank < 1 {
		return nil, nil
	}
	reports := make([]Report, maxRank)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for k := 1; k <= maxRank; k++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, _, err := Evaluate(dec, in, k)
			if err != nil {
				return err
			}
			reports[k-1] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Best returns the report with the smallest error against the clean signal.
func Best(reports []Report) (Report, bool) {
	if len(reports) == 0 {
		return Report{}, false
	}
	best := reports[0]
	for _, r := range reports[1:] {
		if r.ErrClean < best.ErrClean {
			best = r
		}
	}
	return best, true
}

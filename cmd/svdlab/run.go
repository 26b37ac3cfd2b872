package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/config"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"github.com/yyyoichi/svdlab/internal/rank"
)

// Summary is the JSON form of a run. Matrices are left out.
type Summary struct {
	Signal        string           `json:"signal"`
	Rows          int              `json:"rows"`
	Cols          int              `json:"cols"`
	Noise         float64          `json:"noise"`
	Seed          uint64           `json:"seed"`
	Method        string           `json:"method"`
	Rank          int              `json:"rank"`
	TrueRank      int              `json:"true_rank"`
	NumericalRank int              `json:"numerical_rank"`
	Tolerance     float64          `json:"tolerance"`
	Spectrum      []float64        `json:"spectrum"`
	Report        metrics.Report   `json:"report"`
	Reports       []metrics.Report `json:"reports"`
	Estimates     rank.Estimates   `json:"estimates"`
}

func newSummary(l *svdlab.Lab, res *svdlab.Result) Summary {
	m, n := l.Dims()
	return Summary{
		Signal:        l.Signal(),
		Rows:          m,
		Cols:          n,
		Noise:         l.Noise(),
		Seed:          l.Seed(),
		Method:        l.Method().String(),
		Rank:          l.Rank(),
		TrueRank:      res.TrueRank,
		NumericalRank: res.NumericalRank,
		Tolerance:     res.Tolerance,
		Spectrum:      res.Spectrum,
		Report:        res.Report,
		Reports:       res.Reports,
		Estimates:     res.Estimates,
	}
}

func runCmd(ctx context.Context, cfg *config.Config, args []string) error {
	fs, f := newFlags("run", cfg)
	asJSON := fs.Bool("json", false, "print the summary as JSON instead of text")
	noPlots := fs.Bool("no-plots", false, "skip writing plots")
	if err := f.parse(fs, args); err != nil {
		return err
	}

	l, err := f.lab()
	if err != nil {
		return err
	}
	res, err := l.Run(ctx)
	if err != nil {
		return err
	}
	if !*noPlots {
		if err := writeOutputs(cfg.OutDir, l, res); err != nil {
			return err
		}
	}
	if *asJSON {
		b, err := sonic.ConfigDefault.MarshalIndent(newSummary(l, res), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(b))
		return err
	}
	printSummary(os.Stdout, l, res)
	return nil
}

// printSummary writes the aligned text report of one run.
func printSummary(w io.Writer, l *svdlab.Lab, res *svdlab.Result) {
	m, n := l.Dims()
	k := l.Rank()
	rep := res.Report

	fmt.Fprintln(w, "=== SVD Low-Rank Approximation ===")
	fmt.Fprintf(w, "%-18s %s (%dx%d, true rank %d)\n", "Signal:", l.Signal(), m, n, res.TrueRank)
	fmt.Fprintf(w, "%-18s %.4g\n", "Noise σ:", l.Noise())
	fmt.Fprintf(w, "%-18s %d\n", "Seed:", l.Seed())
	fmt.Fprintf(w, "%-18s %s\n", "Method:", l.Method())
	fmt.Fprintf(w, "%-18s %d (tolerance %.3e)\n", "Numerical rank:", res.NumericalRank, res.Tolerance)
	fmt.Fprintf(w, "%-18s %s\n", "Top σ:", formatValues(res.Spectrum, 6))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "--- Rank %d ---\n", k)
	fmt.Fprintf(w, "%-18s %.2f%%\n", "Energy kept:", rep.Energy*100)
	fmt.Fprintf(w, "%-18s %.6f\n", "‖L - A_k‖_F:", rep.ErrClean)
	fmt.Fprintf(w, "%-18s %.6f\n", "‖A - A_k‖_F:", rep.ErrNoisy)
	fmt.Fprintf(w, "%-18s %.6f\n", "Tail bound:", rep.TailBound)
	fmt.Fprintf(w, "%-18s %.4f\n", "Relative error:", rep.RelClean)
	fmt.Fprintf(w, "%-18s %.6f\n", "MSE:", rep.MSE)
	fmt.Fprintf(w, "%-18s %.2f%%\n", "Noise reduction:", rep.Gain)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "--- Rank estimates ---")
	fmt.Fprintf(w, "%-18s %d\n", "Gavish-Donoho:", res.Estimates.GavishDonoho)
	fmt.Fprintf(w, "%-18s %d\n", "GD (unknown σ):", res.Estimates.GavishDonohoUnknown)
	fmt.Fprintf(w, "%-18s %d\n", "90% energy:", res.Estimates.Energy90)
	fmt.Fprintf(w, "%-18s %d\n", "k-means:", res.Estimates.KMeans)

	if best, ok := metrics.Best(res.Reports); ok {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "--- Sweep 1..%d ---\n", len(res.Reports))
		for _, r := range res.Reports {
			marker := " "
			if r.Rank == best.Rank {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %s\n", marker, r)
		}
		log.Debug().Int("best_rank", best.Rank).Float64("err_clean", best.ErrClean).Msg("Best rank")
	}
}

func formatValues(s []float64, n int) string {
	var out string
	for i, v := range s[:min(n, len(s))] {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.4g", v)
	}
	if len(s) > n {
		out += " ..."
	}
	return out
}

package plot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/yyyoichi/svdlab/internal/metrics"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	keptColor    = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	droppedColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

// Spectrum draws the singular values on a log axis. The first k values are
// drawn in red; a dashed line marks the cutoff between σ_k and σ_{k+1}.
// Values at or below zero cannot be shown on a log axis and are raised to
// the numerical tolerance of the spectrum.
func Spectrum(s []float64, k int) (*gplot.Plot, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: empty spectrum", ErrEmpty)
	}
	floor := math.Max(s[0]*metrics.Epsilon, math.SmallestNonzeroFloat64)
	kept := make(plotter.XYs, 0, k)
	dropped := make(plotter.XYs, 0, len(s))
	for i, v := range s {
		pt := plotter.XY{X: float64(i + 1), Y: math.Max(v, floor)}
		if i < k {
			kept = append(kept, pt)
		} else {
			dropped = append(dropped, pt)
		}
	}

	p := gplot.New()
	p.Title.Text = fmt.Sprintf("Singular values (k=%d)", k)
	p.X.Label.Text = "index"
	p.Y.Label.Text = "σ"
	p.Y.Scale = gplot.LogScale{}
	p.Y.Tick.Marker = gplot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		name  string
		xys   plotter.XYs
		color color.Color
	}{
		{"retained", kept, keptColor},
		{"discarded", dropped, droppedColor},
	} {
		if len(series.xys) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(series.xys)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = series.color
		sc.GlyphStyle.Radius = vg.Points(2.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(series.name, sc)
	}

	if k > 0 && k < len(s) {
		cut := math.Sqrt(math.Max(s[k-1], floor) * math.Max(s[k], floor))
		line, err := plotter.NewLine(plotter.XYs{{X: 1, Y: cut}, {X: float64(len(s)), Y: cut}})
		if err != nil {
			return nil, err
		}
		line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		line.LineStyle.Color = plotutil.Color(2)
		p.Add(line)
		p.Legend.Add("cutoff", line)
	}
	p.Legend.Top = true
	return p, nil
}

// ErrorCurve draws the Frobenius error of each rank against the clean and the
// noisy matrix, together with the Eckart–Young tail sqrt(Σ_{i>k} σ_i²).
func ErrorCurve(reports []metrics.Report) (*gplot.Plot, error) {
	if len(reports) == 0 {
		return nil, fmt.Errorf("%w: no reports", ErrEmpty)
	}
	clean := make(plotter.XYs, len(reports))
	noisy := make(plotter.XYs, len(reports))
	tail := make(plotter.XYs, len(reports))
	for i, r := range reports {
		x := float64(r.Rank)
		clean[i] = plotter.XY{X: x, Y: r.ErrClean}
		noisy[i] = plotter.XY{X: x, Y: r.ErrNoisy}
		tail[i] = plotter.XY{X: x, Y: r.TailBound}
	}

	p := gplot.New()
	p.Title.Text = "Reconstruction error vs rank"
	p.X.Label.Text = "rank k"
	p.Y.Label.Text = "‖·‖_F"
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLinePoints(p,
		"‖L - A_k‖", clean,
		"‖A - A_k‖", noisy,
		"tail bound", tail,
	); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}

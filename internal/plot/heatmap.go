// Package plot renders matrices, spectra and error curves to PNG.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrEmpty = errors.New("nothing to plot")

// Colors is the number of palette entries used by heat maps.
const Colors = 64

// grid adapts a matrix to plotter.GridXYZ. Row 0 is drawn at the top, as an
// image would be.
type grid struct {
	m    mat.Matrix
	rows int
	cols int
}

func (g grid) Dims() (c, r int)   { return g.cols, g.rows }
func (g grid) Z(c, r int) float64 { return g.m.At(g.rows-1-r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// Range returns a symmetric color range [-lim, lim] covering every matrix, so
// panels drawn with it share one scale and zero maps to the neutral color.
func Range(ms ...mat.Matrix) (lo, hi float64) {
	var lim float64
	for _, m := range ms {
		if m == nil {
			continue
		}
		r, c := m.Dims()
		if c == 0 {
			continue
		}
		for i := range r {
			row := mat.Row(nil, i, m)
			lim = math.Max(lim, math.Max(math.Abs(floats.Min(row)), math.Abs(floats.Max(row))))
		}
	}
	if lim == 0 {
		lim = 1
	}
	return -lim, lim
}

// ColorMap returns the diverging blue-red map scaled to [lo, hi].
func ColorMap(lo, hi float64) palette.DivergingColorMap {
	cm := moreland.SmoothBlueRed()
	if hi <= lo {
		lo, hi = lo-1, lo+1
	}
	cm.SetMax(hi)
	cm.SetMin(lo)
	return cm
}

// Heatmap draws m with the color range [lo, hi].
func Heatmap(m mat.Matrix, title string, lo, hi float64) (*gplot.Plot, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrEmpty, title, r, c)
	}
	cm := ColorMap(lo, hi)
	hm := plotter.NewHeatMap(grid{m: m, rows: r, cols: c}, cm.Palette(Colors))
	hm.Min, hm.Max = cm.Min(), cm.Max()
	hm.Underflow = color.Black
	hm.Overflow = color.White
	hm.Rasterized = true

	p := gplot.New()
	p.Title.Text = title
	p.Add(hm)
	p.HideAxes()
	return p, nil
}

// Dashboard tiles panels in a single row and writes them to path as PNG.
// Every panel gets a width×height tile.
func Dashboard(path string, width, height vg.Length, panels ...*gplot.Plot) error {
	if len(panels) == 0 {
		return ErrEmpty
	}
	img := vgimg.New(width*vg.Length(len(panels)), height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(panels),
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,

		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := gplot.Align([][]*gplot.Plot{panels}, tiles, dc)
	for i, p := range panels {
		p.Draw(canvases[0][i])
	}
	return writePNG(path, vgimg.PngCanvas{Canvas: img})
}

// Package chart builds the interactive HTML report of a run with go-echarts.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/yyyoichi/svdlab/internal/metrics"
	"gonum.org/v1/gonum/mat"
)

// blue to red, matching the PNG heat maps
var surfaceColors = []string{"#3b4cc0", "#8db0fe", "#dddddd", "#f49a7b", "#b40426"}

// Input is everything the report shows.
type Input struct {
	Title   string
	Clean   mat.Matrix
	Noisy   mat.Matrix
	Approx  mat.Matrix
	S       []float64
	K       int
	Reports []metrics.Report
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     "720px",
		Height:    "520px",
	})
}

// Surface draws m as a 3D surface over (column, row). Every surface drawn
// with the same [lo, hi] shares its color and z scale.
func Surface(m mat.Matrix, title string, lo, hi float64) *charts.Surface3D {
	r, c := m.Dims()
	data := make([]opts.Chart3DData, 0, r*c)
	for i := range r {
		for j := range c {
			data = append(data, opts.Chart3DData{Value: []interface{}{j, i, m.At(i, j)}})
		}
	}
	sc := charts.NewSurface3D()
	sc.SetGlobalOptions(
		initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: surfaceColors},
		}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "column"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "row"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "z", Min: lo, Max: hi}),
	)
	sc.AddSeries(title, data, func(s *charts.SingleSeries) {
		s.Type = types.ChartSurface3D
	})
	return sc
}

func ranks(n int) []string {
	x := make([]string, n)
	for i := range x {
		x[i] = strconv.Itoa(i + 1)
	}
	return x
}

// Spectrum draws the singular values on a log axis. Zeros are raised to the
// numerical floor of the spectrum so the axis stays finite.
func Spectrum(s []float64, k int) *charts.Line {
	floor := math.SmallestNonzeroFloat64
	if len(s) > 0 {
		floor = math.Max(s[0]*metrics.Epsilon, floor)
	}
	kept := make([]opts.LineData, len(s))
	dropped := make([]opts.LineData, len(s))
	for i, v := range s {
		v = math.Max(v, floor)
		// "-" leaves a gap in echarts
		kept[i], dropped[i] = opts.LineData{Value: "-"}, opts.LineData{Value: "-"}
		if i < k {
			kept[i].Value = v
		} else {
			dropped[i].Value = v
		}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("spectrum"),
		charts.WithTitleOpts(opts.Title{Title: "Singular values", Subtitle: fmt.Sprintf("k = %d", k)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "index"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "σ", Type: "log"}),
	)
	line.SetXAxis(ranks(len(s))).
		AddSeries("retained", kept).
		AddSeries("discarded", dropped)
	return line
}

// Energy draws the cumulative energy fraction of each rank in percent.
func Energy(reports []metrics.Report) *charts.Line {
	data := make([]opts.LineData, len(reports))
	for i, r := range reports {
		data[i] = opts.LineData{Value: r.Energy * 100}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("energy"),
		charts.WithTitleOpts(opts.Title{Title: "Cumulative energy"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "rank"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Min: 0, Max: 100}),
	)
	line.SetXAxis(ranks(len(reports))).AddSeries("energy", data)
	return line
}

// Errors draws the Frobenius errors of each rank against the clean and the
// noisy matrix, and the Eckart–Young tail.
func Errors(reports []metrics.Report) *charts.Line {
	clean := make([]opts.LineData, len(reports))
	noisy := make([]opts.LineData, len(reports))
	tail := make([]opts.LineData, len(reports))
	for i, r := range reports {
		clean[i] = opts.LineData{Value: r.ErrClean}
		noisy[i] = opts.LineData{Value: r.ErrNoisy}
		tail[i] = opts.LineData{Value: r.TailBound}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("errors"),
		charts.WithTitleOpts(opts.Title{Title: "Reconstruction error"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "rank"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frobenius"}),
	)
	line.SetXAxis(ranks(len(reports))).
		AddSeries("‖L - A_k‖", clean).
		AddSeries("‖A - A_k‖", noisy).
		AddSeries("tail bound", tail)
	return line
}

// Page assembles every chart of in. Missing matrices and empty series are
// skipped.
func Page(in Input) *components.Page {
	title := in.Title
	if title == "" {
		title = "svdlab"
	}
	page := components.NewPage()
	page.SetPageTitle(title)

	lo, hi := limits(in.Clean, in.Noisy, in.Approx)
	for _, s := range []struct {
		name string
		m    mat.Matrix
	}{
		{"clean", in.Clean},
		{"noisy", in.Noisy},
		{fmt.Sprintf("rank %d", in.K), in.Approx},
	} {
		if s.m == nil {
			continue
		}
		page.AddCharts(Surface(s.m, s.name, lo, hi))
	}
	if len(in.S) > 0 {
		page.AddCharts(Spectrum(in.S, in.K))
	}
	if len(in.Reports) > 0 {
		page.AddCharts(Energy(in.Reports), Errors(in.Reports))
	}
	return page
}

func limits(ms ...mat.Matrix) (lo, hi float64) {
	for _, m := range ms {
		if m == nil {
			continue
		}
		r, c := m.Dims()
		for i := range r {
			for j := range c {
				v := m.At(i, j)
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// Render writes the HTML page to w.
func Render(w io.Writer, in Input) error {
	return Page(in).Render(w)
}

// Save writes the HTML page to path.
func Save(path string, in Input) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Render(f, in)
}

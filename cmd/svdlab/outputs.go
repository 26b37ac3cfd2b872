package main

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/yyyoichi/svdlab"
	"github.com/yyyoichi/svdlab/internal/chart"
	"github.com/yyyoichi/svdlab/internal/plot"
	gplot "gonum.org/v1/plot"
)

// Output file names inside the output directory.
const (
	DashboardFile = "dashboard.png"
	SpectrumFile  = "spectrum.png"
	ErrorsFile    = "errors.png"
	RasterFile    = "approx_raster.png"
	ReportFile    = "index.html"
)

// rasterScale is the upscaling factor of the pixel-exact approximation
// image.
const rasterScale = 8

// writeOutputs renders the heat maps, the spectrum, the error curve and the
// interactive report of res into dir.
func writeOutputs(dir string, l *svdlab.Lab, res *svdlab.Result) error {
	k := l.Rank()
	lo, hi := plot.Range(res.Clean, res.Noisy, res.Approx)

	clean, err := plot.Heatmap(res.Clean, "clean", lo, hi)
	if err != nil {
		return err
	}
	noisy, err := plot.Heatmap(res.Noisy, fmt.Sprintf("noisy (σ=%.3g)", l.Noise()), lo, hi)
	if err != nil {
		return err
	}
	approx, err := plot.Heatmap(res.Approx, fmt.Sprintf("rank %d", k), lo, hi)
	if err != nil {
		return err
	}
	panels := []*gplot.Plot{clean, noisy, approx}
	if err := plot.Dashboard(filepath.Join(dir, DashboardFile), plot.Height, plot.Height, panels...); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}

	spectrum, err := plot.Spectrum(res.Spectrum, k)
	if err != nil {
		return err
	}
	if err := plot.Save(spectrum, filepath.Join(dir, SpectrumFile)); err != nil {
		return fmt.Errorf("failed to write spectrum: %w", err)
	}

	if len(res.Reports) > 0 {
		curve, err := plot.ErrorCurve(res.Reports)
		if err != nil {
			return err
		}
		if err := plot.Save(curve, filepath.Join(dir, ErrorsFile)); err != nil {
			return fmt.Errorf("failed to write error curve: %w", err)
		}
	}

	img := plot.Raster(res.Approx, lo, hi, rasterScale)
	if err := plot.SaveImage(img, filepath.Join(dir, RasterFile)); err != nil {
		return fmt.Errorf("failed to write raster: %w", err)
	}

	m, n := l.Dims()
	in := chart.Input{
		Title:   fmt.Sprintf("svdlab: %s %dx%d, σ=%.3g, k=%d", l.Signal(), m, n, l.Noise(), k),
		Clean:   res.Clean,
		Noisy:   res.Noisy,
		Approx:  res.Approx,
		S:       res.Spectrum,
		K:       k,
		Reports: res.Reports,
	}
	if err := chart.Save(filepath.Join(dir, ReportFile), in); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Info().Str("dir", dir).Msg("Wrote plots")
	return nil
}

package plot

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Default panel size for saved figures.
const (
	Width  = 5 * vg.Inch
	Height = 4 * vg.Inch
)

// Save writes p to path. The format follows the file extension.
func Save(p *gplot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SaveImage writes img to path as PNG.
func SaveImage(img image.Image, path string) error {
	return writePNG(path, writerFunc(func(w io.Writer) error { return png.Encode(w, img) }))
}

type writerFunc func(io.Writer) error

func (f writerFunc) WriteTo(w io.Writer) (int64, error) { return 0, f(w) }

func writePNG(path string, wt io.WriterTo) (err error) {
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
	if _, err := wt.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

package plot

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
)

// Raster paints one pixel per matrix entry through the color map scaled to
// [lo, hi] and enlarges the result scale times with nearest-neighbor
// sampling, so entries stay crisp squares.
func Raster(m mat.Matrix, lo, hi float64, scale int) *image.RGBA {
	r, c := m.Dims()
	cm := ColorMap(lo, hi)
	small := image.NewRGBA(image.Rect(0, 0, c, r))
	for i := range r {
		for j := range c {
			v := min(max(m.At(i, j), cm.Min()), cm.Max())
			col, err := cm.At(v)
			if err != nil {
				// NaN entries
				col = color.Black
			}
			small.Set(j, i, col)
		}
	}
	if scale <= 1 {
		return small
	}
	big := image.NewRGBA(image.Rect(0, 0, c*scale, r*scale))
	draw.NearestNeighbor.Scale(big, big.Bounds(), small, small.Bounds(), draw.Src, nil)
	return big
}

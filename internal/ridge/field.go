// Package ridge estimates the coarse ridge fields of a grayscale fingerprint:
// squared gradients, a foreground mask, a per-pixel orientation and a scalar
// ridge period. Every function is deterministic for identical input.
package ridge

import (
	"errors"
	"fmt"
	"math"

	"github.com/mcuadros/go-defaults"

	"github.com/high-horse/fingerprint-server/internal/primitives"
)

var (
	ErrEmptyImage = errors.New("ridge: empty image")
	ErrEmptyMask  = errors.New("ridge: mask has no foreground")
	ErrNoPeriod   = errors.New("ridge: ridge period cannot be estimated")
)

// Params holds the window sizes of the estimator. Windows must be odd.
type Params struct {
	MaskWindow        int     `toml:"mask_window" default:"25"`
	MaskThreshold     float64 `toml:"mask_threshold" default:"0.2"`
	OrientationWindow int     `toml:"orientation_window" default:"23"`
	PeriodTop         int     `toml:"period_top" default:"80"`
	PeriodLeft        int     `toml:"period_left" default:"80"`
	PeriodHeight      int     `toml:"period_height" default:"80"`
	PeriodWidth       int     `toml:"period_width" default:"50"`
	PeriodBlur        int     `toml:"period_blur" default:"5"`
}

func DefaultParams() Params {
	var p Params
	defaults.SetDefaults(&p)
	return p
}

// Field bundles everything the estimator derives from one image.
type Field struct {
	Gx2, Gy2, Gxy *primitives.DoubleMatrix
	Mask          *primitives.BoolMatrix
	Orientation   *primitives.DoubleMatrix

	period    float64
	hasPeriod bool
}

// Period returns the ridge period in pixels; false when the sampling region
// held too few ridges.
func (f *Field) Period() (float64, bool) { return f.period, f.hasPeriod }

// Estimate runs the full estimator over img.
func Estimate(img *primitives.DoubleMatrix, p Params) (*Field, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}
	gx2, gy2, gxy := Gradients(img)
	f := &Field{
		Gx2:         gx2,
		Gy2:         gy2,
		Gxy:         gxy,
		Mask:        Mask(gx2, gy2, p),
		Orientation: Orientations(gx2, gy2, gxy, p),
	}
	if period, err := Period(img, p); err == nil {
		f.period, f.hasPeriod = period, true
	}
	return f, nil
}

// Gradients returns gx², gy² and gx·gy of the Sobel derivatives.
func Gradients(img *primitives.DoubleMatrix) (gx2, gy2, gxy *primitives.DoubleMatrix) {
	gx, gy := sobel(img)
	gx2 = primitives.NewDoubleMatrix(img.Width, img.Height)
	gy2 = primitives.NewDoubleMatrix(img.Width, img.Height)
	gxy = primitives.NewDoubleMatrix(img.Width, img.Height)
	for i := range gx.Cells {
		gx2.Cells[i] = gx.Cells[i] * gx.Cells[i]
		gy2.Cells[i] = gy.Cells[i] * gy.Cells[i]
		gxy.Cells[i] = gx.Cells[i] * gy.Cells[i]
	}
	return gx2, gy2, gxy
}

// Mask integrates gradient magnitude over MaskWindow and keeps pixels above
// MaskThreshold of the maximum.
func Mask(gx2, gy2 *primitives.DoubleMatrix, p Params) *primitives.BoolMatrix {
	gm := primitives.NewDoubleMatrix(gx2.Width, gx2.Height)
	for i := range gm.Cells {
		gm.Cells[i] = math.Sqrt(gx2.Cells[i] + gy2.Cells[i])
	}
	integral := boxSum(gm, p.MaskWindow)
	threshold := primitives.Max(integral) * p.MaskThreshold
	return primitives.Map(integral, func(v float64) bool { return v > threshold })
}

// Orientations derives the local ridge orientation from the doubled-angle
// gradient tensor. Values lie in [π/2, 3π/2).
func Orientations(gx2, gy2, gxy *primitives.DoubleMatrix, p Params) *primitives.DoubleMatrix {
	igx := boxSum(gx2, p.OrientationWindow)
	igy := boxSum(gy2, p.OrientationWindow)
	igxy := boxSum(gxy, p.OrientationWindow)
	out := primitives.NewDoubleMatrix(gx2.Width, gx2.Height)
	for i := range out.Cells {
		igd := igx.Cells[i] - igy.Cells[i]
		igm := 2 * igxy.Cells[i]
		out.Cells[i] = (phase(igd, -igm) + math.Pi) / 2
	}
	return out
}

// Period estimates the ridge period from the spacing of row-sum maxima in a
// fixed sub-window of the image.
func Period(img *primitives.DoubleMatrix, p Params) (float64, error) {
	region := primitives.IntRect{X: p.PeriodLeft, Y: p.PeriodTop, Width: p.PeriodWidth, Height: p.PeriodHeight}
	if region.Empty() || region.Right() > img.Width || region.Bottom() > img.Height {
		return 0, fmt.Errorf("%w: sampling region %+v outside %dx%d image", ErrNoPeriod, region, img.Width, img.Height)
	}
	smoothed := boxMean(img.Crop(region), p.PeriodBlur)
	sums := make([]float64, smoothed.Height)
	for y := 0; y < smoothed.Height; y++ {
		for x := 0; x < smoothed.Width; x++ {
			sums[y] += smoothed.Get(x, y)
		}
	}
	var maxima []int
	for i := 1; i < len(sums)-1; i++ {
		if sums[i] > sums[i-1] && sums[i] >= sums[i+1] {
			maxima = append(maxima, i)
		}
	}
	if len(maxima) < 2 {
		return 0, fmt.Errorf("%w: %d maxima", ErrNoPeriod, len(maxima))
	}
	return float64(maxima[len(maxima)-1]-maxima[0]) / float64(len(maxima)-1), nil
}

// CropBounds returns the bounding box of the foreground.
func CropBounds(mask *primitives.BoolMatrix) (primitives.IntRect, error) {
	minX, minY, maxX, maxY := mask.Width, mask.Height, -1, -1
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if !mask.Get(x, y) {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return primitives.IntRect{}, ErrEmptyMask
	}
	return primitives.IntRect{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}, nil
}

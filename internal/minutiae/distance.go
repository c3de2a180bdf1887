package minutiae

import "github.com/high-horse/fingerprint-server/internal/primitives"

// chessboardDistance returns, for every pixel, the L∞ distance to the nearest
// background pixel. The mask is treated as if surrounded by a one pixel
// background border, so foreground touching the image edge gets distance 1.
func chessboardDistance(mask *primitives.BoolMatrix) *primitives.IntMatrix {
	w, h := mask.Width+2, mask.Height+2
	far := w + h
	d := primitives.NewIntMatrix(w, h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if mask.Get(x-1, y-1) {
				d.Set(x, y, far)
			}
		}
	}
	relax := func(x, y, nx, ny int) {
		if v := d.Get(nx, ny) + 1; v < d.Get(x, y) {
			d.Set(x, y, v)
		}
	}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			relax(x, y, x-1, y)
			relax(x, y, x-1, y-1)
			relax(x, y, x, y-1)
			relax(x, y, x+1, y-1)
		}
	}
	for y := h - 2; y >= 1; y-- {
		for x := w - 2; x >= 1; x-- {
			relax(x, y, x+1, y)
			relax(x, y, x+1, y+1)
			relax(x, y, x, y+1)
			relax(x, y, x-1, y+1)
		}
	}
	return d.Crop(primitives.IntRect{X: 1, Y: 1, Width: mask.Width, Height: mask.Height})
}

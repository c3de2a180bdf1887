package ridge

import (
	"math"

	"github.com/high-horse/fingerprint-server/internal/primitives"
)

// reflect101 maps an out-of-range index the way OpenCV's BORDER_REFLECT_101
// does: ...3 2 1 | 0 1 2 ... n-1 | n-2 n-3...
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// boxSum sums every size×size window centered on each pixel. size must be odd.
func boxSum(in *primitives.DoubleMatrix, size int) *primitives.DoubleMatrix {
	r := size / 2
	w, h := in.Width, in.Height
	rows := primitives.NewDoubleMatrix(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for dx := -r; dx <= r; dx++ {
				sum += in.Get(reflect101(x+dx, w), y)
			}
			rows.Set(x, y, sum)
		}
	}
	out := primitives.NewDoubleMatrix(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for dy := -r; dy <= r; dy++ {
				sum += rows.Get(x, reflect101(y+dy, h))
			}
			out.Set(x, y, sum)
		}
	}
	return out
}

// boxMean is the normalized variant of boxSum.
func boxMean(in *primitives.DoubleMatrix, size int) *primitives.DoubleMatrix {
	out := boxSum(in, size)
	area := float64(size * size)
	for i := range out.Cells {
		out.Cells[i] /= area
	}
	return out
}

// sobel computes the 3×3 Sobel derivatives along x and y.
func sobel(in *primitives.DoubleMatrix) (gx, gy *primitives.DoubleMatrix) {
	w, h := in.Width, in.Height
	gx = primitives.NewDoubleMatrix(w, h)
	gy = primitives.NewDoubleMatrix(w, h)
	at := func(x, y int) float64 { return in.Get(reflect101(x, w), reflect101(y, h)) }
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, t, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			l, r := at(x-1, y), at(x+1, y)
			bl, b, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)
			gx.Set(x, y, (tr+2*r+br)-(tl+2*l+bl))
			gy.Set(x, y, (bl+2*b+br)-(tl+2*t+tr))
		}
	}
	return gx, gy
}

// phase returns atan2(y, x) in [0, 2π).
func phase(x, y float64) float64 {
	a := math.Atan2(y, x)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

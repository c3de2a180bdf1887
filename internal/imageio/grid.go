package imageio

import (
	"image"
	"image/color"

	"github.com/high-horse/fingerprint-server/internal/primitives"
)

// ToGray converts any image to 8-bit grayscale with its origin at (0, 0).
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	if g, ok := img.(*image.Gray); ok && bounds.Min == (image.Point{}) {
		return g
	}
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// ToMatrix returns the gray levels of img as a grid of values in [0, 255].
func ToMatrix(img image.Image) *primitives.DoubleMatrix {
	gray := ToGray(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	m := primitives.NewDoubleMatrix(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, float64(gray.GrayAt(x, y).Y))
		}
	}
	return m
}

// ToBool marks every pixel brighter than threshold.
func ToBool(img image.Image, threshold uint8) *primitives.BoolMatrix {
	gray := ToGray(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	m := primitives.NewBoolMatrix(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, gray.GrayAt(x, y).Y > threshold)
		}
	}
	return m
}

// FromBool renders a binary grid as black and white.
func FromBool(m *primitives.BoolMatrix) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Get(x, y) {
				gray.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return gray
}

// Package primitives holds the small value types and dense grids shared by
// the ridge estimator, the detector and the matcher.
package primitives

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

type cell interface {
	constraints.Integer | constraints.Float | ~bool
}

// Matrix is a dense row-major grid addressed as (x, y).
type Matrix[T cell] struct {
	Width  int
	Height int
	Cells  []T
}

// DoubleMatrix holds real valued fields such as gradients and orientations.
type DoubleMatrix = Matrix[float64]

// BoolMatrix holds binary images such as masks and skeletons.
type BoolMatrix = Matrix[bool]

// IntMatrix holds integer fields such as distance transforms.
type IntMatrix = Matrix[int]

func NewMatrix[T cell](width, height int) *Matrix[T] {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("negative matrix size %dx%d", width, height))
	}
	return &Matrix[T]{Width: width, Height: height, Cells: make([]T, width*height)}
}

func NewDoubleMatrix(width, height int) *DoubleMatrix { return NewMatrix[float64](width, height) }
func NewBoolMatrix(width, height int) *BoolMatrix     { return NewMatrix[bool](width, height) }
func NewIntMatrix(width, height int) *IntMatrix       { return NewMatrix[int](width, height) }

func (m *Matrix[T]) Size() IntPoint { return IntPoint{m.Width, m.Height} }

// Empty reports whether the matrix is nil or has no cells.
func (m *Matrix[T]) Empty() bool { return m == nil || m.Width == 0 || m.Height == 0 }

func (m *Matrix[T]) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

func (m *Matrix[T]) Get(x, y int) T { return m.Cells[y*m.Width+x] }

// GetOr returns fallback for positions outside the matrix.
func (m *Matrix[T]) GetOr(x, y int, fallback T) T {
	if !m.Contains(x, y) {
		return fallback
	}
	return m.Cells[y*m.Width+x]
}

func (m *Matrix[T]) Set(x, y int, v T) { m.Cells[y*m.Width+x] = v }

func (m *Matrix[T]) Clone() *Matrix[T] {
	c := &Matrix[T]{Width: m.Width, Height: m.Height, Cells: make([]T, len(m.Cells))}
	copy(c.Cells, m.Cells)
	return c
}

// SameSize reports whether both matrices share dimensions.
func SameSize[A, B cell](a *Matrix[A], b *Matrix[B]) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// Map builds a new matrix by applying fn to every cell.
func Map[A, B cell](m *Matrix[A], fn func(A) B) *Matrix[B] {
	out := NewMatrix[B](m.Width, m.Height)
	for i, v := range m.Cells {
		out.Cells[i] = fn(v)
	}
	return out
}

// Max returns the largest cell value, or the zero value for an empty matrix.
func Max[T constraints.Integer | constraints.Float](m *Matrix[T]) T {
	var best T
	for i, v := range m.Cells {
		if i == 0 || v > best {
			best = v
		}
	}
	return best
}

// Crop copies the rectangle r out of m. r must lie inside m.
func (m *Matrix[T]) Crop(r IntRect) *Matrix[T] {
	out := NewMatrix[T](r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		copy(out.Cells[y*r.Width:(y+1)*r.Width], m.Cells[(r.Y+y)*m.Width+r.X:(r.Y+y)*m.Width+r.X+r.Width])
	}
	return out
}

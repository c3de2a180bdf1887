package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixGetSet(t *testing.T) {
	m := NewIntMatrix(3, 2)
	m.Set(2, 1, 7)
	assert.Equal(t, 7, m.Get(2, 1))
	assert.Equal(t, 7, m.Cells[5])
	assert.Equal(t, -1, m.GetOr(3, 1, -1))
	assert.Equal(t, -1, m.GetOr(0, -1, -1))
	assert.Equal(t, IntPoint{3, 2}, m.Size())
}

func TestMatrixEmpty(t *testing.T) {
	var m *BoolMatrix
	assert.True(t, m.Empty())
	assert.True(t, NewBoolMatrix(0, 5).Empty())
	assert.False(t, NewBoolMatrix(1, 1).Empty())
}

func TestMatrixCrop(t *testing.T) {
	m := NewIntMatrix(4, 4)
	for i := range m.Cells {
		m.Cells[i] = i
	}
	c := m.Crop(IntRect{X: 1, Y: 2, Width: 2, Height: 2})
	require.Equal(t, 2, c.Width)
	assert.Equal(t, []int{9, 10, 13, 14}, c.Cells)
}

func TestMapAndMax(t *testing.T) {
	m := NewDoubleMatrix(2, 2)
	m.Cells = []float64{-3, 1.5, 0, -1}
	assert.Equal(t, 1.5, Max(m))

	b := Map(m, func(v float64) bool { return v > 0 })
	assert.Equal(t, []bool{false, true, false, false}, b.Cells)
	assert.True(t, SameSize(m, b))
}

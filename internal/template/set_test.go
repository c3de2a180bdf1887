package template

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/primitives"
)

func sample() []minutiae.Minutia {
	return []minutiae.Minutia{
		{X: 10, Y: 20, Kind: minutiae.Termination, Theta: 0.5},
		{X: 13, Y: 25, Kind: minutiae.Bifurcation, Theta: -1.2},
		{X: 20, Y: 21, Kind: minutiae.Termination, Theta: math.Pi},
	}
}

func TestCentroidTruncates(t *testing.T) {
	c := Centroid(sample())
	assert.Equal(t, primitives.DoublePoint{X: 14, Y: 22}, c)
	assert.Equal(t, primitives.DoublePoint{}, Centroid(nil))
}

func TestApplyShift(t *testing.T) {
	s := New("101_1.tif", sample())
	s.ApplyShift(primitives.IntPoint{X: 5, Y: 10})

	assert.Equal(t, 5, s.Minutiae[0].X)
	assert.Equal(t, 10, s.Minutiae[0].Y)
	assert.Equal(t, primitives.DoublePoint{X: 9, Y: 12}, s.Centroid)
	assert.Equal(t, primitives.IntPoint{X: 5, Y: 10}, s.Shift)

	s.ApplyShift(primitives.IntPoint{X: 1, Y: 1})
	assert.Equal(t, primitives.IntPoint{X: 6, Y: 11}, s.Shift)
}

func TestTranslateLeavesOriginalIntact(t *testing.T) {
	s := New("a", sample())
	moved := s.Translate(3, -4)
	assert.Equal(t, 10, s.Minutiae[0].X)
	assert.Equal(t, 13, moved.Minutiae[0].X)
	assert.Equal(t, 16, moved.Minutiae[0].Y)
	assert.Equal(t, primitives.DoublePoint{X: 17, Y: 18}, moved.Centroid)
}

func TestInSquareIsInclusive(t *testing.T) {
	s := &LandmarkSet{Centroid: primitives.DoublePoint{X: 100, Y: 100}}
	assert.True(t, s.InSquare(minutiae.Minutia{X: 175, Y: 25}, 75))
	assert.False(t, s.InSquare(minutiae.Minutia{X: 176, Y: 100}, 75))
	assert.False(t, s.InSquare(minutiae.Minutia{X: 100, Y: 24}, 75))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, New("a", sample()).Validate())
	assert.ErrorIs(t, New("a", sample()[:1]).Validate(), ErrTooFewLandmarks)
	assert.Error(t, New("", sample()).Validate())

	bad := New("a", sample())
	bad.Minutiae[1].Theta = math.NaN()
	assert.Error(t, bad.Validate())
}

func TestCodecRoundTrip(t *testing.T) {
	s := New("101_1.tif", sample())
	s.GroupID = "101"
	s.ApplyShift(primitives.IntPoint{X: 2, Y: 3})

	data, err := Marshal(s)
	require.NoError(t, err)
	again, err := Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding must be deterministic")

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, s, back)

	_, err = Unmarshal([]byte{0xff, 0x00})
	assert.Error(t, err)
}

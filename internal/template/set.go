// Package template holds the per-image landmark set exchanged between the
// extractor, the stores and the matcher.
package template

import (
	"errors"
	"fmt"
	"math"

	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/primitives"
)

var ErrTooFewLandmarks = errors.New("template: too few landmarks")

// LandmarkSet is the minutiae of one image in the crop-shifted frame.
type LandmarkSet struct {
	ImageID  string                 `json:"image_id" cbor:"1,keyasint"`
	GroupID  string                 `json:"group_id,omitempty" cbor:"2,keyasint,omitempty"`
	Centroid primitives.DoublePoint `json:"centroid" cbor:"3,keyasint"`
	// Shift is the crop offset already subtracted from every coordinate.
	Shift    primitives.IntPoint `json:"shift" cbor:"4,keyasint"`
	Minutiae []minutiae.Minutia  `json:"minutiae" cbor:"5,keyasint"`
}

// New builds a set and derives its centroid.
func New(imageID string, found []minutiae.Minutia) *LandmarkSet {
	s := &LandmarkSet{ImageID: imageID, Minutiae: found}
	s.Centroid = Centroid(found)
	return s
}

// Centroid is the mean position truncated to whole pixels, (0, 0) when empty.
func Centroid(found []minutiae.Minutia) primitives.DoublePoint {
	if len(found) == 0 {
		return primitives.DoublePoint{}
	}
	var sx, sy float64
	for _, m := range found {
		sx += float64(m.X)
		sy += float64(m.Y)
	}
	n := float64(len(found))
	return primitives.DoublePoint{X: math.Trunc(sx / n), Y: math.Trunc(sy / n)}
}

// ApplyShift moves the set into a frame whose origin is offset, e.g. the
// top-left corner of the crop. Shifts accumulate.
func (s *LandmarkSet) ApplyShift(offset primitives.IntPoint) {
	for i := range s.Minutiae {
		s.Minutiae[i].X -= offset.X
		s.Minutiae[i].Y -= offset.Y
	}
	s.Centroid.X -= float64(offset.X)
	s.Centroid.Y -= float64(offset.Y)
	s.Shift = s.Shift.Plus(offset)
}

// Translate returns a copy with every position moved by (dx, dy), centroid
// included. The recorded crop shift is unchanged.
func (s *LandmarkSet) Translate(dx, dy int) *LandmarkSet {
	c := s.Clone()
	for i := range c.Minutiae {
		c.Minutiae[i].X += dx
		c.Minutiae[i].Y += dy
	}
	c.Centroid.X += float64(dx)
	c.Centroid.Y += float64(dy)
	return c
}

func (s *LandmarkSet) Clone() *LandmarkSet {
	c := *s
	c.Minutiae = append([]minutiae.Minutia(nil), s.Minutiae...)
	return &c
}

// InSquare reports whether m lies in the square of the given half-width
// around the centroid, borders included.
func (s *LandmarkSet) InSquare(m minutiae.Minutia, halfWidth float64) bool {
	return math.Abs(float64(m.X)-s.Centroid.X) <= halfWidth && math.Abs(float64(m.Y)-s.Centroid.Y) <= halfWidth
}

// Validate rejects sets that cannot take part in a comparison.
func (s *LandmarkSet) Validate() error {
	if s.ImageID == "" {
		return errors.New("template: empty image id")
	}
	if len(s.Minutiae) < 2 {
		return fmt.Errorf("%w: %s has %d", ErrTooFewLandmarks, s.ImageID, len(s.Minutiae))
	}
	for i, m := range s.Minutiae {
		if math.IsNaN(m.Theta) || math.IsInf(m.Theta, 0) {
			return fmt.Errorf("template: %s minutia %d has non-finite angle", s.ImageID, i)
		}
	}
	return nil
}

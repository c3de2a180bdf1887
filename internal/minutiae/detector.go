// Package minutiae locates ridge terminations and bifurcations on a skeleton
// and resolves each one's ridge-flow angle by walking along the skeleton.
package minutiae

import (
	"errors"
	"fmt"
	"math"

	"github.com/mcuadros/go-defaults"

	"github.com/high-horse/fingerprint-server/internal/primitives"
)

var ErrDimensionMismatch = errors.New("minutiae: mask and skeleton dimensions differ")

// Params bounds the border filter and the ridge walk.
type Params struct {
	// BorderDistance discards candidates this close to the mask edge or closer.
	BorderDistance int `toml:"border_distance" default:"10"`
	// MaxWalk stops a ridge walk once its length reaches it.
	MaxWalk float64 `toml:"max_walk" default:"20"`
	// MinWalk is the shortest walk that still resolves an angle.
	MinWalk float64 `toml:"min_walk" default:"10"`
}

func DefaultParams() Params {
	var p Params
	defaults.SetDefaults(&p)
	return p
}

// Neighbourhood encodes the 8 neighbours of (x, y) into one byte, weights
// 1..128 clockwise from the top-left. Pixels outside the image count as unset.
func Neighbourhood(skeleton *primitives.BoolMatrix, x, y int) uint8 {
	var code uint8
	for d, s := range steps {
		if skeleton.GetOr(x+s.dx, y+s.dy, false) {
			code |= 1 << d
		}
	}
	return code
}

type detector struct {
	params    Params
	codes     *primitives.Matrix[uint8]
	crossings *primitives.Matrix[uint8]
}

func newDetector(skeleton *primitives.BoolMatrix, p Params) *detector {
	d := &detector{
		params:    p,
		codes:     primitives.NewMatrix[uint8](skeleton.Width, skeleton.Height),
		crossings: primitives.NewMatrix[uint8](skeleton.Width, skeleton.Height),
	}
	for y := 0; y < skeleton.Height; y++ {
		for x := 0; x < skeleton.Width; x++ {
			code := Neighbourhood(skeleton, x, y)
			d.codes.Set(x, y, code)
			if skeleton.Get(x, y) {
				d.crossings.Set(x, y, CrossingNumbers[code])
			}
		}
	}
	return d
}

// Detect returns the resolved minutiae of skeleton, restricted to pixels well
// inside mask, in row-major order.
func Detect(mask, skeleton *primitives.BoolMatrix, p Params) ([]Minutia, error) {
	if mask.Empty() || skeleton.Empty() {
		return nil, nil
	}
	if !primitives.SameSize(mask, skeleton) {
		return nil, fmt.Errorf("%w: mask %dx%d, skeleton %dx%d",
			ErrDimensionMismatch, mask.Width, mask.Height, skeleton.Width, skeleton.Height)
	}
	d := newDetector(skeleton, p)
	distance := chessboardDistance(mask)
	var found []Minutia
	for y := 0; y < skeleton.Height; y++ {
		for x := 0; x < skeleton.Width; x++ {
			var kind Kind
			switch d.crossings.Get(x, y) {
			case 1:
				kind = Termination
			case 3:
				kind = Bifurcation
			default:
				continue
			}
			if distance.Get(x, y) <= p.BorderDistance {
				continue
			}
			if theta, ok := d.angle(x, y, kind).Value(); ok {
				found = append(found, Minutia{X: x, Y: y, Kind: kind, Theta: theta})
			}
		}
	}
	return found, nil
}

func (d *detector) angle(x, y int, kind Kind) RidgeAngle {
	if kind == Termination {
		return d.walk(x, y, noDirection).angle(d.params)
	}
	return d.bifurcationAngle(x, y)
}

func (d *detector) bifurcationAngle(x, y int) RidgeAngle {
	branches := NextDirections[d.codes.Get(x, y)][noDirection]
	if len(branches) != 3 {
		return Unresolved()
	}
	var angles [3]float64
	for i, branch := range branches {
		a, ok := d.walk(x, y, branch).angle(d.params).Value()
		if !ok {
			return Unresolved()
		}
		angles[i] = a
	}
	best := 0
	for i := 1; i < 3; i++ {
		if angleDistance(angles[i], angles[(i+1)%3]) < angleDistance(angles[best], angles[(best+1)%3]) {
			best = i
		}
	}
	return Resolved(circularMean(angles[best], angles[(best+1)%3]))
}

// trace is the final state of a ridge walk.
type trace struct {
	start, end primitives.IntPoint
	length     float64
	steps      int
}

func (t trace) angle(p Params) RidgeAngle {
	if t.length < p.MinWalk {
		return Unresolved()
	}
	return Resolved(math.Atan2(float64(t.start.Y-t.end.Y), float64(t.end.X-t.start.X)))
}

// walk follows the ridge from (x, y). previous is the direction of the last
// step, or noDirection. The walk halts as soon as any admissible neighbour is
// not a plain ridge pixel, so it never runs into another minutia.
func (d *detector) walk(x, y, previous int) trace {
	t := trace{start: primitives.IntPoint{X: x, Y: y}, end: primitives.IntPoint{X: x, Y: y}}
	for t.length < d.params.MaxWalk {
		options := NextDirections[d.codes.Get(t.end.X, t.end.Y)][previous]
		if len(options) == 0 || !d.allRidge(t.end, options) {
			break
		}
		previous = options[0]
		s := steps[previous]
		t.end.X += s.dx
		t.end.Y += s.dy
		t.length += s.length
		t.steps++
	}
	return t
}

func (d *detector) allRidge(from primitives.IntPoint, options []int) bool {
	for _, dir := range options {
		if d.crossings.GetOr(from.X+steps[dir].dx, from.Y+steps[dir].dy, 0) != 2 {
			return false
		}
	}
	return true
}

// angleDistance is the circular absolute difference of two angles in (-π, π].
func angleDistance(a, b float64) float64 {
	return math.Pi - math.Abs(math.Abs(a-b)-math.Pi)
}

func circularMean(a, b float64) float64 {
	return math.Atan2((math.Sin(a)+math.Sin(b))/2, (math.Cos(a)+math.Cos(b))/2)
}

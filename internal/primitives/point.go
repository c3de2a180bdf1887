package primitives

import "math"

// IntPoint is a pixel position.
type IntPoint struct {
	X int `json:"x" cbor:"1,keyasint"`
	Y int `json:"y" cbor:"2,keyasint"`
}

func (p IntPoint) Plus(o IntPoint) IntPoint  { return IntPoint{p.X + o.X, p.Y + o.Y} }
func (p IntPoint) Minus(o IntPoint) IntPoint { return IntPoint{p.X - o.X, p.Y - o.Y} }

// DoublePoint is a sub-pixel position.
type DoublePoint struct {
	X float64 `json:"x" cbor:"1,keyasint"`
	Y float64 `json:"y" cbor:"2,keyasint"`
}

func (p DoublePoint) Minus(o DoublePoint) DoublePoint { return DoublePoint{p.X - o.X, p.Y - o.Y} }

func (p DoublePoint) Length() float64 { return math.Hypot(p.X, p.Y) }

// IntRect is a half-open pixel rectangle [X, X+Width) × [Y, Y+Height).
type IntRect struct {
	X, Y, Width, Height int
}

func (r IntRect) Left() int   { return r.X }
func (r IntRect) Top() int    { return r.Y }
func (r IntRect) Right() int  { return r.X + r.Width }
func (r IntRect) Bottom() int { return r.Y + r.Height }

func (r IntRect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

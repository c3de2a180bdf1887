package matching

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// GlobalScore translates the gallery onto each candidate pair in turn and
// returns the best share of one-to-one agreeing landmarks, in [0, 100].
func (r *Run) GlobalScore(ctx context.Context, probe, gallery *Subject, candidates []Candidate) (float64, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	scores, err := Map(ctx, r.pool, len(candidates), func(ctx context.Context, i int) (float64, error) {
		c := candidates[i]
		a, ok := probe.Landmark(c.Probe)
		if !ok {
			return 0, fmt.Errorf("%w: probe %d in %s", ErrUnknownLandmark, c.Probe, probe.ImageID)
		}
		b, ok := gallery.Landmark(c.Gallery)
		if !ok {
			return 0, fmt.Errorf("%w: gallery %d in %s", ErrUnknownLandmark, c.Gallery, gallery.ImageID)
		}
		return r.alignedScore(probe.Landmarks, gallery.Landmarks, a.X-b.X, a.Y-b.Y), nil
	})
	if err != nil {
		return 0, err
	}
	return floats.Max(scores), nil
}

// alignedScore scores the full sets once the gallery is moved by (dx, dy).
func (r *Run) alignedScore(probe, gallery []Landmark, dx, dy int) float64 {
	maxMatches := min(len(probe), len(gallery))
	if maxMatches == 0 {
		return 0
	}
	var edges []Edge
	for _, a := range probe {
		for _, b := range gallery {
			d := math.Hypot(float64(a.X-b.X-dx), float64(a.Y-b.Y-dy))
			if d > r.params.GlobalDistance {
				continue
			}
			deg := thetaDistance(a.Theta, b.Theta) * 180 / math.Pi
			if deg > r.params.GlobalAngle {
				continue
			}
			cost := d/r.params.GlobalDistance + deg/r.params.GlobalAngle
			if a.Kind != b.Kind {
				cost += r.params.KindPenalty
			}
			edges = append(edges, Edge{Cost: cost, Left: a.ID, Right: b.ID})
		}
	}
	return float64(len(Assign(edges, maxMatches))) / float64(maxMatches) * 100
}

// thetaDistance is the circular difference of two ridge angles, in [0, π].
func thetaDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	return math.Min(d, 2*math.Pi-d)
}

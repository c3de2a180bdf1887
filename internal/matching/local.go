package matching

import (
	"context"
	"math"
)

// Candidate is a probe/gallery landmark pair whose neighbourhoods agree.
type Candidate struct {
	Probe   int     `json:"probe"`
	Gallery int     `json:"gallery"`
	Score   float64 `json:"score"`
}

// LocalCandidates compares every local probe landmark with every local gallery
// landmark and keeps the pairs scoring at least MinLocalScore. Results are in
// probe order.
func (r *Run) LocalCandidates(ctx context.Context, probe, gallery *Subject) ([]Candidate, error) {
	if len(probe.Local) == 0 || len(gallery.Local) == 0 {
		return nil, nil
	}
	// metrics from each gallery landmark to the rest, shared by all tasks
	galleryViews := make([][]neighbour, len(gallery.Local))
	for j, m2 := range gallery.Local {
		galleryViews[j] = neighbours(gallery, m2.ID)
	}
	parts, err := Map(ctx, r.pool, len(probe.Local), func(ctx context.Context, i int) ([]Candidate, error) {
		m1 := probe.Local[i]
		view1 := neighbours(probe, m1.ID)
		var out []Candidate
		for j, m2 := range gallery.Local {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			score := r.neighbourhoodScore(view1, galleryViews[j])
			if score >= r.params.MinLocalScore {
				out = append(out, Candidate{Probe: m1.ID, Gallery: m2.ID, Score: score})
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	var candidates []Candidate
	for _, part := range parts {
		candidates = append(candidates, part...)
	}
	return candidates, nil
}

// neighbour is the metric from a centre landmark to one of the others. A
// false ok marks an undefined metric.
type neighbour struct {
	id     int
	metric Metric
	ok     bool
}

func neighbours(s *Subject, centre int) []neighbour {
	out := make([]neighbour, 0, len(s.Local))
	for _, other := range s.Local {
		if other.ID == centre {
			continue
		}
		m, ok := s.Cache.Lookup(centre, other.ID)
		out = append(out, neighbour{id: other.ID, metric: m, ok: ok})
	}
	return out
}

func (r *Run) neighbourhoodScore(others1, others2 []neighbour) float64 {
	maxMatches := min(len(others1), len(others2))
	if maxMatches == 0 {
		return 0
	}
	var edges []Edge
	for _, a := range others1 {
		if !a.ok {
			continue
		}
		for _, b := range others2 {
			if !b.ok {
				continue
			}
			dd := math.Abs(a.metric.Distance - b.metric.Distance)
			da := math.Abs(a.metric.Angle - b.metric.Angle)
			if dd > r.params.LocalDistance || da > r.params.LocalAngle {
				continue
			}
			edges = append(edges, Edge{
				Cost:  dd/r.params.LocalDistance + da/r.params.LocalAngle,
				Left:  a.id,
				Right: b.id,
			})
		}
	}
	return float64(len(Assign(edges, maxMatches))) / float64(maxMatches) * 100
}

// Package matching scores the geometric consistency of two landmark sets with
// a local neighbourhood stage followed by a global translation search.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mcuadros/go-defaults"
	"golang.org/x/exp/slices"

	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/template"
)

var (
	ErrUnknownLandmark = errors.New("matching: unknown landmark id")
	// ErrImageConflict reports an image id bound twice with different minutiae.
	ErrImageConflict = errors.New("matching: image id already bound to different minutiae")
	ErrSameImage     = errors.New("matching: probe and gallery share an image id")
)

type Params struct {
	// LocalHalfWidth is the half-width of the square around the centroid that
	// bounds the local stage.
	LocalHalfWidth float64 `toml:"local_half_width" default:"75"`
	LocalDistance  float64 `toml:"local_distance" default:"7"`
	// LocalAngle is in degrees.
	LocalAngle     float64 `toml:"local_angle" default:"45"`
	MinLocalScore  float64 `toml:"min_local_score" default:"30"`
	GlobalDistance float64 `toml:"global_distance" default:"15"`
	// GlobalAngle is in degrees.
	GlobalAngle float64 `toml:"global_angle" default:"12"`
	KindPenalty float64 `toml:"kind_penalty" default:"1"`
	Workers     int     `toml:"workers" default:"0"`
}

func DefaultParams() Params {
	var p Params
	defaults.SetDefaults(&p)
	return p
}

// Landmark is a minutia tagged with an id unique within one Run.
type Landmark struct {
	ID int
	minutiae.Minutia
}

// Subject is one landmark set bound into a Run.
type Subject struct {
	ImageID   string
	Landmarks []Landmark
	// Local is the subset inside the local square.
	Local []Landmark
	Cache *MetricCache
	base  int
	found []minutiae.Minutia
}

// Landmark returns the landmark with the given run id.
func (s *Subject) Landmark(id int) (Landmark, bool) {
	i := id - s.base
	if i < 0 || i >= len(s.Landmarks) {
		return Landmark{}, false
	}
	return s.Landmarks[i], true
}

// Run is one comparison session. It owns the id allocator and the per-image
// metric caches, and reuses them for every comparison made through it.
type Run struct {
	params   Params
	pool     *Pool
	mu       sync.Mutex
	next     int
	subjects map[string]*Subject
}

func NewRun(p Params) *Run {
	return &Run{params: p, pool: NewPool(p.Workers), subjects: make(map[string]*Subject)}
}

func (r *Run) Params() Params { return r.params }

// Bind assigns run ids to a set and builds its metric cache. Binding the same
// image id again returns the existing subject as long as the minutiae agree.
func (r *Run) Bind(set *template.LandmarkSet) (*Subject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subjects[set.ImageID]; ok {
		if !slices.Equal(s.found, set.Minutiae) {
			return nil, fmt.Errorf("%w: %s", ErrImageConflict, set.ImageID)
		}
		return s, nil
	}
	s := &Subject{
		ImageID:   set.ImageID,
		base:      r.next,
		Landmarks: make([]Landmark, len(set.Minutiae)),
		found:     slices.Clone(set.Minutiae),
	}
	for i, m := range set.Minutiae {
		s.Landmarks[i] = Landmark{ID: r.next, Minutia: m}
		r.next++
		if set.InSquare(m, r.params.LocalHalfWidth) {
			s.Local = append(s.Local, s.Landmarks[i])
		}
	}
	s.Cache = NewMetricCache(s.Local)
	r.subjects[set.ImageID] = s
	return s, nil
}

// Result is the outcome of one probe/gallery comparison.
type Result struct {
	ProbeID    string  `json:"probe_id"`
	GalleryID  string  `json:"gallery_id"`
	Candidates int     `json:"candidates"`
	Score      float64 `json:"score"`
}

// Compare scores gallery against probe in [0, 100]. The two sets must carry
// different image ids.
func (r *Run) Compare(ctx context.Context, probe, gallery *template.LandmarkSet) (Result, error) {
	res := Result{ProbeID: probe.ImageID, GalleryID: gallery.ImageID}
	if probe.ImageID == gallery.ImageID {
		return res, fmt.Errorf("%w: %s", ErrSameImage, probe.ImageID)
	}
	p, err := r.Bind(probe)
	if err != nil {
		return res, err
	}
	g, err := r.Bind(gallery)
	if err != nil {
		return res, err
	}
	candidates, err := r.LocalCandidates(ctx, p, g)
	if err != nil {
		return res, fmt.Errorf("local stage %s/%s: %w", p.ImageID, g.ImageID, err)
	}
	res.Candidates = len(candidates)
	if len(candidates) == 0 {
		return res, nil
	}
	if res.Score, err = r.GlobalScore(ctx, p, g, candidates); err != nil {
		return res, fmt.Errorf("global stage %s/%s: %w", p.ImageID, g.ImageID, err)
	}
	return res, nil
}

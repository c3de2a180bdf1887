// Package identify wires extraction, matching and decision together with the
// gallery and result stores.
package identify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/high-horse/fingerprint-server/config"
	"github.com/high-horse/fingerprint-server/internal/decision"
	"github.com/high-horse/fingerprint-server/internal/imageio"
	"github.com/high-horse/fingerprint-server/internal/matching"
	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/primitives"
	"github.com/high-horse/fingerprint-server/internal/ridge"
	"github.com/high-horse/fingerprint-server/internal/store"
	"github.com/high-horse/fingerprint-server/internal/template"
)

type Options struct {
	Ridge    ridge.Params
	Detector minutiae.Params
	Matcher  matching.Params
	Decision decision.Policy
}

// OptionsFrom picks the service settings out of the process configuration.
func OptionsFrom(c *config.Configuration) Options {
	return Options{
		Ridge:    c.Ridge,
		Detector: c.Detector,
		Matcher:  c.MatcherParams(),
		Decision: c.Decision,
	}
}

func DefaultOptions() Options {
	return Options{
		Ridge:    ridge.DefaultParams(),
		Detector: minutiae.DefaultParams(),
		Matcher:  matching.DefaultParams(),
		Decision: decision.DefaultPolicy(),
	}
}

type Service struct {
	opts    Options
	gallery store.Gallery
	results store.Results
}

func New(st store.Store, opts Options) *Service {
	return &Service{opts: opts, gallery: st, results: st}
}

// Extraction is a landmark set with the ridge period measured on its image.
type Extraction struct {
	Set       *template.LandmarkSet
	Period    float64
	HasPeriod bool
	Mask      *primitives.BoolMatrix
}

// Extract estimates the foreground of img and detects minutiae on skeleton.
// The skeleton covers either the whole image or the foreground crop.
func (s *Service) Extract(imageID string, img image.Image, skeleton *primitives.BoolMatrix) (*Extraction, error) {
	field, err := ridge.Estimate(imageio.ToMatrix(img), s.opts.Ridge)
	if err != nil {
		return nil, fmt.Errorf("estimating ridge field of %s: %w", imageID, err)
	}
	set, err := s.ExtractWithMask(imageID, field.Mask, skeleton)
	if err != nil {
		return nil, err
	}
	period, ok := field.Period()
	return &Extraction{Set: set, Period: period, HasPeriod: ok, Mask: field.Mask}, nil
}

// ExtractWithMask detects minutiae using a mask supplied by the caller. The
// result is moved into the frame of the mask's foreground crop.
func (s *Service) ExtractWithMask(imageID string, mask, skeleton *primitives.BoolMatrix) (*template.LandmarkSet, error) {
	bounds, err := ridge.CropBounds(mask)
	if err != nil {
		return nil, fmt.Errorf("cropping %s: %w", imageID, err)
	}
	origin := primitives.IntPoint{X: bounds.X, Y: bounds.Y}

	var set *template.LandmarkSet
	switch {
	case primitives.SameSize(mask, skeleton):
		found, err := minutiae.Detect(mask, skeleton, s.opts.Detector)
		if err != nil {
			return nil, fmt.Errorf("detecting %s: %w", imageID, err)
		}
		set = template.New(imageID, found)
		set.ApplyShift(origin)
	case skeleton.Width == bounds.Width && skeleton.Height == bounds.Height:
		found, err := minutiae.Detect(mask.Crop(bounds), skeleton, s.opts.Detector)
		if err != nil {
			return nil, fmt.Errorf("detecting %s: %w", imageID, err)
		}
		set = template.New(imageID, found)
		set.Shift = origin
	default:
		return nil, fmt.Errorf("%w: skeleton %dx%d fits neither image %dx%d nor crop %dx%d", minutiae.ErrDimensionMismatch,
			skeleton.Width, skeleton.Height, mask.Width, mask.Height, bounds.Width, bounds.Height)
	}
	log.Debug().Str("image_id", imageID).Int("minutiae", len(set.Minutiae)).
		Int("crop_x", origin.X).Int("crop_y", origin.Y).Msg("extracted")
	return set, nil
}

func (s *Service) Enroll(ctx context.Context, set *template.LandmarkSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	if err := s.gallery.Enroll(ctx, set); err != nil {
		return fmt.Errorf("enrolling %s: %w", set.ImageID, err)
	}
	log.Info().Str("image_id", set.ImageID).Str("group_id", set.GroupID).Msg("enrolled")
	return nil
}

// Compare scores two sets in a fresh run.
func (s *Service) Compare(ctx context.Context, probe, gallery *template.LandmarkSet) (matching.Result, error) {
	if err := probe.Validate(); err != nil {
		return matching.Result{}, err
	}
	if err := gallery.Validate(); err != nil {
		return matching.Result{}, err
	}
	return matching.NewRun(s.opts.Matcher).Compare(ctx, probe, gallery)
}

type GroupResult struct {
	GroupID string              `json:"group_id"`
	Score   decision.GroupScore `json:"score"`
	Pairs   []matching.Result   `json:"pairs"`
}

type Identification struct {
	RunID   string        `json:"run_id"`
	ImageID string        `json:"image_id"`
	Groups  []GroupResult `json:"groups"`
	// Matches lists the groups with a positive verdict.
	Matches []string      `json:"matches"`
	Elapsed time.Duration `json:"elapsed"`
}

// Identify compares probe with every enrolled group and records one verdict
// per group. A failing comparison counts as score 0 and does not stop the run.
func (s *Service) Identify(ctx context.Context, probe *template.LandmarkSet) (*Identification, error) {
	start := time.Now()
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	groups, err := s.gallery.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}

	id := &Identification{RunID: uuid.NewString(), ImageID: probe.ImageID, Matches: []string{}}
	logger := log.With().Str("run_id", id.RunID).Str("image_id", probe.ImageID).Logger()
	run := matching.NewRun(s.opts.Matcher)
	var persistErrs []error

	for _, group := range groups {
		members, err := s.gallery.Members(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("loading group %s: %w", group, err)
		}
		gr := GroupResult{GroupID: group, Pairs: []matching.Result{}}
		var scores []float64
		for _, member := range members {
			if member.ImageID == probe.ImageID {
				continue
			}
			res, err := s.comparePair(ctx, run, probe, member)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warn().Err(err).Str("gallery_id", member.ImageID).Msg("comparison failed, scoring 0")
				res = matching.Result{ProbeID: probe.ImageID, GalleryID: member.ImageID}
			}
			gr.Pairs = append(gr.Pairs, res)
			scores = append(scores, res.Score)
		}
		gr.Score = decision.Aggregate(scores, len(gr.Pairs), s.opts.Decision)
		id.Groups = append(id.Groups, gr)
		if gr.Score.Verdict {
			id.Matches = append(id.Matches, group)
		}
		logger.Info().Str("group_id", group).Int("compared", len(gr.Pairs)).
			Float64("pos", gr.Score.NormalizedPos).Float64("mea", gr.Score.NormalizedMea).
			Bool("verdict", gr.Score.Verdict).Msg("group scored")

		err = s.results.PutVerdict(ctx, store.Verdict{
			ImageID:  probe.ImageID,
			GroupID:  group,
			Score:    gr.Score,
			Compared: len(gr.Pairs),
			RunID:    id.RunID,
			At:       time.Now().UTC(),
		})
		if err != nil {
			logger.Error().Err(err).Str("group_id", group).Msg("storing verdict")
			persistErrs = append(persistErrs, err)
		}
	}
	id.Elapsed = time.Since(start)
	if len(persistErrs) > 0 {
		return id, fmt.Errorf("storing verdicts: %w", errors.Join(persistErrs...))
	}
	return id, nil
}

func (s *Service) comparePair(ctx context.Context, run *matching.Run, probe, gallery *template.LandmarkSet) (matching.Result, error) {
	if err := gallery.Validate(); err != nil {
		return matching.Result{}, err
	}
	return run.Compare(ctx, probe, gallery)
}

// Verdicts returns the stored verdicts of one probe image.
func (s *Service) Verdicts(ctx context.Context, imageID string) ([]store.Verdict, error) {
	return s.results.Verdicts(ctx, imageID)
}

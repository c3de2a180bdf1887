// Package server exposes extraction, matching and identification over HTTP.
package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"

	"github.com/high-horse/fingerprint-server/config"
	"github.com/high-horse/fingerprint-server/internal/decision"
	"github.com/high-horse/fingerprint-server/internal/identify"
	"github.com/high-horse/fingerprint-server/internal/imageio"
	"github.com/high-horse/fingerprint-server/internal/matching"
	"github.com/high-horse/fingerprint-server/internal/minutiae"
	"github.com/high-horse/fingerprint-server/internal/ridge"
	"github.com/high-horse/fingerprint-server/internal/store"
	"github.com/high-horse/fingerprint-server/internal/template"
)

type Server struct {
	app    *fiber.App
	svc    *identify.Service
	cfg    config.ServerConfig
	policy decision.Policy
}

func New(svc *identify.Service, cfg *config.Configuration) *Server {
	s := &Server{svc: svc, cfg: cfg.Server, policy: cfg.Decision}
	s.app = fiber.New(fiber.Config{
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := statusOf(err)
			if code >= fiber.StatusInternalServerError {
				log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
		Output: log.Logger,
	}))
	s.app.Use(cors.New())

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now(),
		})
	})
	s.app.Post("/extract", s.extract)
	s.app.Post("/match", s.match)
	s.app.Post("/identify", s.identifyProbe)
	s.app.Get("/verdicts/:image_id", s.verdicts)
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen() error {
	log.Info().Str("address", s.cfg.Address).Msg("server starting")
	return s.app.Listen(s.cfg.Address)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, imageio.ErrUnsupported):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, imageio.ErrBadPayload), errors.Is(err, minutiae.ErrDimensionMismatch), errors.Is(err, store.ErrNoGroup),
		errors.Is(err, matching.ErrSameImage), errors.Is(err, matching.ErrImageConflict):
		return fiber.StatusBadRequest
	case errors.Is(err, template.ErrTooFewLandmarks), errors.Is(err, ridge.ErrEmptyMask), errors.Is(err, ridge.ErrEmptyImage):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func (s *Server) extract(c *fiber.Ctx) error {
	start := time.Now()
	var req ExtractRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.ImageID == "" || req.Image == "" || req.Skeleton == "" {
		return fiber.NewError(fiber.StatusBadRequest, "image_id, image and skeleton are required")
	}

	img, err := imageio.DecodeBase64(req.Image)
	if err != nil {
		return fmt.Errorf("image: %w", err)
	}
	skeletonImg, err := imageio.DecodeBase64(req.Skeleton)
	if err != nil {
		return fmt.Errorf("skeleton: %w", err)
	}
	skeleton := imageio.ToBool(skeletonImg, s.cfg.SkeletonThreshold)

	resp := ExtractResponse{}
	if req.Mask != "" {
		maskImg, err := imageio.DecodeBase64(req.Mask)
		if err != nil {
			return fmt.Errorf("mask: %w", err)
		}
		mask := imageio.ToBool(maskImg, s.cfg.SkeletonThreshold)
		if b := img.Bounds(); mask.Width != b.Dx() || mask.Height != b.Dy() {
			return fmt.Errorf("%w: mask and image differ in size", minutiae.ErrDimensionMismatch)
		}
		if resp.Set, err = s.svc.ExtractWithMask(req.ImageID, mask, skeleton); err != nil {
			return err
		}
	} else {
		ex, err := s.svc.Extract(req.ImageID, img, skeleton)
		if err != nil {
			return err
		}
		resp.Set = ex.Set
		resp.RidgePeriod = ex.Period
	}
	resp.Set.GroupID = req.GroupID

	if req.Enroll {
		if err := s.svc.Enroll(c.UserContext(), resp.Set); err != nil {
			return err
		}
		resp.Enrolled = true
	}
	resp.Elapsed = time.Since(start).String()
	return c.JSON(resp)
}

func (s *Server) match(c *fiber.Ctx) error {
	start := time.Now()
	var req MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Probe == nil || req.Candidate == nil {
		return fiber.NewError(fiber.StatusBadRequest, "Both probe and candidate are required")
	}

	res, err := s.svc.Compare(c.UserContext(), req.Probe, req.Candidate)
	if err != nil {
		return err
	}
	resp := MatchResponse{
		Score:      res.Score,
		Match:      res.Score >= s.policy.HighScore,
		Confidence: s.confidence(res.Score),
		Details:    res,
		Elapsed:    time.Since(start).String(),
	}
	if resp.Match {
		resp.Message = fmt.Sprintf("Match found with score: %.2f", res.Score)
	} else {
		resp.Message = fmt.Sprintf("No match found, score: %.2f", res.Score)
	}
	log.Debug().Str("probe", res.ProbeID).Str("candidate", res.GalleryID).Float64("score", res.Score).Msg("compared")
	return c.JSON(resp)
}

func (s *Server) confidence(score float64) string {
	switch {
	case score >= (100+s.policy.HighScore)/2:
		return "high"
	case score >= s.policy.HighScore:
		return "medium"
	}
	return "low"
}

func (s *Server) identifyProbe(c *fiber.Ctx) error {
	var req IdentifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Probe == nil {
		return fiber.NewError(fiber.StatusBadRequest, "probe is required")
	}
	id, err := s.svc.Identify(c.UserContext(), req.Probe)
	if err != nil {
		return err
	}
	return c.JSON(id)
}

func (s *Server) verdicts(c *fiber.Ctx) error {
	verdicts, err := s.svc.Verdicts(c.UserContext(), c.Params("image_id"))
	if err != nil {
		return err
	}
	return c.JSON(verdicts)
}

package server

import (
	"github.com/high-horse/fingerprint-server/internal/matching"
	"github.com/high-horse/fingerprint-server/internal/template"
)

// ExtractRequest carries base64 images, optionally as data URLs. Mask is
// optional; without it the foreground is estimated from Image.
type ExtractRequest struct {
	ImageID  string `json:"image_id"`
	GroupID  string `json:"group_id"`
	Image    string `json:"image"`
	Skeleton string `json:"skeleton"`
	Mask     string `json:"mask"`
	Enroll   bool   `json:"enroll"`
}

type ExtractResponse struct {
	Set         *template.LandmarkSet `json:"set,omitempty"`
	RidgePeriod float64               `json:"ridge_period,omitempty"`
	Enrolled    bool                  `json:"enrolled"`
	Elapsed     string                `json:"elapsed"`
}

type MatchRequest struct {
	Probe     *template.LandmarkSet `json:"probe"`
	Candidate *template.LandmarkSet `json:"candidate"`
}

type MatchResponse struct {
	Score      float64         `json:"score"`
	Match      bool            `json:"is_match"`
	Confidence string          `json:"confidence"`
	Details    matching.Result `json:"details"`
	Message    string          `json:"message"`
	Elapsed    string          `json:"elapsed"`
}

type IdentifyRequest struct {
	Probe *template.LandmarkSet `json:"probe"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

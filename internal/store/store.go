// Package store keeps enrolled landmark sets by gallery group and the verdicts
// reached for each probe image.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/high-horse/fingerprint-server/internal/decision"
	"github.com/high-horse/fingerprint-server/internal/template"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrNoGroup  = errors.New("store: landmark set has no group id")
)

// Gallery holds enrolled landmark sets grouped by subject.
type Gallery interface {
	Enroll(ctx context.Context, set *template.LandmarkSet) error
	// Groups lists group ids in ascending order.
	Groups(ctx context.Context) ([]string, error)
	// Members lists a group's sets ordered by image id.
	Members(ctx context.Context, group string) ([]*template.LandmarkSet, error)
}

// Results records the verdict of every probe/group identification.
type Results interface {
	PutVerdict(ctx context.Context, v Verdict) error
	// Verdicts lists the verdicts of one probe image ordered by group id.
	Verdicts(ctx context.Context, imageID string) ([]Verdict, error)
}

type Verdict struct {
	ImageID string              `json:"image_id" cbor:"1,keyasint"`
	GroupID string              `json:"group_id" cbor:"2,keyasint"`
	Score   decision.GroupScore `json:"score" cbor:"3,keyasint"`
	// Compared is the number of members the probe was scored against.
	Compared int       `json:"compared" cbor:"4,keyasint"`
	RunID    string    `json:"run_id,omitempty" cbor:"5,keyasint,omitempty"`
	At       time.Time `json:"at" cbor:"6,keyasint"`
}

// Store is a gallery with its result log.
type Store interface {
	Gallery
	Results
}

func checkEnroll(set *template.LandmarkSet) error {
	if set.GroupID == "" {
		return ErrNoGroup
	}
	if set.ImageID == "" {
		return errors.New("store: landmark set has no image id")
	}
	return nil
}

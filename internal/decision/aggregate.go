// Package decision turns the pair scores of one gallery group into a verdict.
package decision

import (
	"math"

	"github.com/mcuadros/go-defaults"
	"gonum.org/v1/gonum/stat"
)

// Policy is the mean-of-high-scores rule with fixed bounds.
type Policy struct {
	// HighScore is the lowest pair score counted as a hit.
	HighScore float64 `toml:"high_score" default:"50"`
	PosBound  float64 `toml:"pos_bound" default:"15"`
	MeaBound  float64 `toml:"mea_bound" default:"1"`
}

func DefaultPolicy() Policy {
	var p Policy
	defaults.SetDefaults(&p)
	return p
}

type GroupScore struct {
	NormalizedPos float64 `json:"normalized_pos" cbor:"1,keyasint"`
	NormalizedMea float64 `json:"normalized_mea" cbor:"2,keyasint"`
	Verdict       bool    `json:"verdict" cbor:"3,keyasint"`
}

// Aggregate scores a group of groupSize images from the pair scores obtained
// against its members.
func Aggregate(scores []float64, groupSize int, p Policy) GroupScore {
	if len(scores) == 0 || groupSize <= 0 {
		return GroupScore{}
	}
	var high []float64
	for _, s := range scores {
		if s >= p.HighScore {
			high = append(high, s)
		}
	}
	var g GroupScore
	if len(high) > 0 {
		hits := float64(len(high))
		g.NormalizedPos = round2(stat.Mean(high, nil)*hits) / float64(groupSize)
		g.NormalizedMea = round2(stat.Mean(scores, nil)*hits) / float64(groupSize)
	}
	g.Verdict = g.NormalizedPos >= p.PosBound && g.NormalizedMea >= p.MeaBound
	return g
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

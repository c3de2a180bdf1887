package matching

import (
	"math"
)

// Metric is the distance between two landmarks and the direction from the
// first to the second, in degrees [0, 360).
type Metric struct {
	Distance float64
	Angle    float64
}

type pairKey struct{ lo, hi int }

// MetricCache holds the metric of every unordered pair of landmarks inside one
// image's local square. It is immutable once built.
type MetricCache struct {
	metrics map[pairKey]Metric
}

func NewMetricCache(local []Landmark) *MetricCache {
	c := &MetricCache{metrics: make(map[pairKey]Metric, len(local)*(len(local)-1)/2+1)}
	for i := range local {
		for j := i + 1; j < len(local); j++ {
			lo, hi := local[i], local[j]
			if lo.ID > hi.ID {
				lo, hi = hi, lo
			}
			dx := float64(hi.X - lo.X)
			dy := float64(hi.Y - lo.Y)
			c.metrics[pairKey{lo.ID, hi.ID}] = Metric{
				Distance: math.Hypot(dx, dy),
				Angle:    normalizeDegrees(math.Atan2(dy, dx) * 180 / math.Pi),
			}
		}
	}
	return c
}

// Lookup returns the metric seen from a towards b. The pair is undefined when
// a == b or either landmark lies outside the local square.
func (c *MetricCache) Lookup(a, b int) (Metric, bool) {
	if a == b {
		return Metric{}, false
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	m, ok := c.metrics[pairKey{lo, hi}]
	if !ok {
		return Metric{}, false
	}
	if a > b {
		m.Angle = normalizeDegrees(m.Angle + 180)
	}
	return m, true
}

func (c *MetricCache) Len() int { return len(c.metrics) }

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

package combat

import (
	"github.com/vantagefps/vantage/pkg/geom"
)

// TransformSample is one timestamped snapshot of an entity's transform and
// hitbox bounds. Samples are immutable once appended.
type TransformSample struct {
	Time     int64 // unix millis
	Position geom.Vec
	Yaw      float64
	Mins     geom.Vec // hitbox extents relative to Position
	Maxs     geom.Vec
}

// History is a rolling, duration-bounded window of TransformSamples for one
// entity. Appended once per tick, pruned from the front as samples age out.
type History struct {
	window  int64 // millis
	samples []TransformSample
}

func NewHistory(windowMillis int64) *History {
	return &History{window: windowMillis}
}

// Add appends a sample and prunes everything older than the window relative
// to the new sample's time. Out-of-order appends are ignored.
func (h *History) Add(sample TransformSample) {
	if n := len(h.samples); n > 0 && sample.Time <= h.samples[n-1].Time {
		return
	}
	h.samples = append(h.samples, sample)

	cutoff := sample.Time - h.window
	i := 0
	for i < len(h.samples)-1 && h.samples[i].Time < cutoff {
		i++
	}
	h.samples = h.samples[i:]
}

func (h *History) Len() int {
	return len(h.samples)
}

func (h *History) Oldest() (TransformSample, bool) {
	if len(h.samples) == 0 {
		return TransformSample{}, false
	}
	return h.samples[0], true
}

// At interpolates the history to the given time. Times outside the retained
// window clamp to the oldest or newest sample.
func (h *History) At(t int64) (TransformSample, bool) {
	n := len(h.samples)
	if n == 0 {
		return TransformSample{}, false
	}
	if t <= h.samples[0].Time {
		return h.samples[0], true
	}
	if t >= h.samples[n-1].Time {
		return h.samples[n-1], true
	}

	// Find the bracketing pair.
	i := 1
	for h.samples[i].Time < t {
		i++
	}
	before, after := h.samples[i-1], h.samples[i]

	frac := float64(t-before.Time) / float64(after.Time-before.Time)
	return TransformSample{
		Time:     t,
		Position: geom.Lerp(before.Position, after.Position, frac),
		Yaw:      before.Yaw + (after.Yaw-before.Yaw)*frac,
		Mins:     before.Mins,
		Maxs:     before.Maxs,
	}, true
}

// Package combat resolves weapon fire with lag compensation: target
// transforms are rewound to the shooter's claimed timestamp, bounded by the
// retained history window, before ray intersection.
package combat

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/vantagefps/vantage/pkg/game/weapon"
	"github.com/vantagefps/vantage/pkg/geom"
)

// HistoryWindow bounds how far back fire can be compensated.
const HistoryWindow = 250 * time.Millisecond

// Fire-rate checks allow this much slack under the weapon's minimum
// inter-shot interval, absorbing client-side timer jitter.
const fireRateTolerance = 0.9

type Zone uint8

const (
	ZoneBody Zone = iota
	ZoneHead
	ZoneLegs
)

// Fractions of hitbox height dividing legs from body and body from head.
const (
	legsBelow = 0.45
	headAbove = 0.80
)

type Reason uint8

const (
	ReasonHit Reason = iota
	ReasonMiss
	ReasonFireRate
	ReasonOutOfRange
)

func (r Reason) String() string {
	switch r {
	case ReasonHit:
		return "hit"
	case ReasonMiss:
		return "miss"
	case ReasonFireRate:
		return "fire_rate"
	case ReasonOutOfRange:
		return "out_of_range"
	}
	return "unknown"
}

type FireRequest struct {
	Shooter   uuid.UUID
	Origin    geom.Vec
	Direction geom.Vec
	Weapon    weapon.Weapon
	// When the shooter last fired, zero when they never have.
	LastFire time.Time
	// The shooter's claim of when the shot happened, unix millis.
	ClientTime int64
	ServerTime int64
}

type Target struct {
	ID      uuid.UUID
	History *History
}

type Result struct {
	Reason   Reason
	Target   uuid.UUID
	Zone     Zone
	Damage   float64
	Distance float64
	Point    geom.Vec
}

func (r Result) Hit() bool { return r.Reason == ReasonHit }

type Resolver struct {
	rng *rand.Rand
}

func NewResolver() *Resolver {
	return &Resolver{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RewindTime bounds the shooter's claimed timestamp to the retained history
// window: max(serverTime - window, clientTime). An ancient timestamp buys no
// extra rewind; a future one is pulled back to now.
func RewindTime(serverTime, clientTime int64) int64 {
	oldest := serverTime - HistoryWindow.Milliseconds()
	if clientTime < oldest {
		return oldest
	}
	if clientTime > serverTime {
		return serverTime
	}
	return clientTime
}

// perturb applies weapon spread as a random angular deviation of the fire
// direction.
func (r *Resolver) perturb(dir geom.Vec, spread float64) geom.Vec {
	if spread <= 0 {
		return dir.Normalize()
	}
	return geom.Vec{
		X: dir.X + (r.rng.Float64()*2-1)*spread,
		Y: dir.Y + (r.rng.Float64()*2-1)*spread,
		Z: dir.Z + (r.rng.Float64()*2-1)*spread,
	}.Normalize()
}

// rayAABB intersects a ray with an axis-aligned box via the slab method,
// returning the entry distance.
func rayAABB(origin, dir, mins, maxs geom.Vec) (float64, bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	for _, axis := range [3][3]float64{
		{origin.X, dir.X, 0},
		{origin.Y, dir.Y, 1},
		{origin.Z, dir.Z, 2},
	} {
		o, d := axis[0], axis[1]
		var lo, hi float64
		switch axis[2] {
		case 0:
			lo, hi = mins.X, maxs.X
		case 1:
			lo, hi = mins.Y, maxs.Y
		default:
			lo, hi = mins.Z, maxs.Z
		}

		if math.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		tMin = 0
	}
	return tMin, true
}

// classify determines the body zone from the hit point's height relative to
// the target's hitbox.
func classify(hitY, minY, maxY float64) Zone {
	height := maxY - minY
	if height <= 0 {
		return ZoneBody
	}
	frac := (hitY - minY) / height
	switch {
	case frac >= headAbove:
		return ZoneHead
	case frac < legsBelow:
		return ZoneLegs
	default:
		return ZoneBody
	}
}

// ResolveFire performs lag-compensated hit detection for one shot.
//
// Ties on hit distance resolve to whichever target is enumerated first; exact
// ties are measure-zero in practice, and the policy is deliberate rather than
// ambient iteration order (callers pass a slice, not a map).
func (r *Resolver) ResolveFire(req FireRequest, targets []Target) Result {
	wpn := req.Weapon

	if !req.LastFire.IsZero() {
		elapsed := time.Duration(req.ServerTime-req.LastFire.UnixMilli()) * time.Millisecond
		minInterval := time.Duration(float64(wpn.MinInterval()) * fireRateTolerance)
		if elapsed < minInterval {
			return Result{Reason: ReasonFireRate}
		}
	}

	rewind := RewindTime(req.ServerTime, req.ClientTime)
	dir := r.perturb(req.Direction, wpn.Spread)

	best := Result{Reason: ReasonMiss, Distance: math.Inf(1)}
	for _, target := range targets {
		if target.ID == req.Shooter || target.History == nil {
			continue
		}
		sample, ok := target.History.At(rewind)
		if !ok {
			continue
		}

		mins := sample.Position.Add(sample.Mins)
		maxs := sample.Position.Add(sample.Maxs)
		dist, hit := rayAABB(req.Origin, dir, mins, maxs)
		if !hit || dist >= best.Distance {
			continue
		}

		point := req.Origin.Add(dir.Mul(dist))
		best = Result{
			Reason:   ReasonHit,
			Target:   target.ID,
			Zone:     classify(point.Y, mins.Y, maxs.Y),
			Distance: dist,
			Point:    point,
		}
	}

	if best.Reason != ReasonHit {
		return Result{Reason: ReasonMiss}
	}

	// A geometrically detected hit beyond the weapon's maximum distance is
	// still invalid.
	if best.Distance > wpn.Range {
		return Result{Reason: ReasonOutOfRange}
	}

	damage := wpn.Damage * wpn.FalloffAt(best.Distance)
	switch best.Zone {
	case ZoneHead:
		damage *= wpn.HeadMult
	case ZoneLegs:
		damage *= wpn.LegMult
	}
	best.Damage = damage

	return best
}

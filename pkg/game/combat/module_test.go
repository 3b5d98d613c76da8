package combat

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagefps/vantage/pkg/game/weapon"
	"github.com/vantagefps/vantage/pkg/geom"
)

var hitbox = struct {
	mins geom.Vec
	maxs geom.Vec
}{
	mins: geom.NewVec(-0.4, 0, -0.4),
	maxs: geom.NewVec(0.4, 1.8, 0.4),
}

func sampleAt(t int64, pos geom.Vec) TransformSample {
	return TransformSample{
		Time:     t,
		Position: pos,
		Mins:     hitbox.mins,
		Maxs:     hitbox.maxs,
	}
}

func noSpread(id weapon.ID) weapon.Weapon {
	w := weapon.ByID(id)
	w.Spread = 0
	return w
}

func TestHistoryInterpolation(t *testing.T) {
	h := NewHistory(HistoryWindow.Milliseconds())
	h.Add(sampleAt(100, geom.NewVec(0, 0, 0)))
	h.Add(sampleAt(200, geom.NewVec(10, 0, 0)))

	mid, ok := h.At(150)
	require.True(t, ok)
	assert.InDelta(t, 5.0, mid.Position.X, 1e-9, "t=150 interpolates to x=5")

	// Clamping outside the retained range.
	old, _ := h.At(50)
	assert.Equal(t, 0.0, old.Position.X)
	future, _ := h.At(500)
	assert.Equal(t, 10.0, future.Position.X)
}

func TestHistoryPrunesAgedSamples(t *testing.T) {
	h := NewHistory(250)
	for ts := int64(0); ts <= 1000; ts += 50 {
		h.Add(sampleAt(ts, geom.NewVec(float64(ts), 0, 0)))
	}
	oldest, ok := h.Oldest()
	require.True(t, ok)
	assert.GreaterOrEqual(t, oldest.Time, int64(750))
}

func TestHistoryIgnoresOutOfOrderAppends(t *testing.T) {
	h := NewHistory(250)
	h.Add(sampleAt(100, geom.Vec{}))
	h.Add(sampleAt(90, geom.NewVec(99, 0, 0)))
	assert.Equal(t, 1, h.Len())
}

func TestRewindTimeBounds(t *testing.T) {
	server := int64(10_000)
	oldest := server - HistoryWindow.Milliseconds()

	assert.Equal(t, oldest, RewindTime(server, 0), "ancient claims clamp to the window")
	assert.Equal(t, server, RewindTime(server, server+500), "future claims clamp to now")
	assert.Equal(t, server-100, RewindTime(server, server-100))
}

func TestResolveFireRewindsTarget(t *testing.T) {
	resolver := NewResolver()
	target := Target{ID: uuid.New(), History: NewHistory(HistoryWindow.Milliseconds())}

	server := int64(10_000)
	// Target was at x=5 at t=9900 and has since moved to x=50.
	target.History.Add(sampleAt(server-150, geom.NewVec(5, 0, 10)))
	target.History.Add(sampleAt(server, geom.NewVec(50, 0, 10)))

	result := resolver.ResolveFire(FireRequest{
		Shooter:    uuid.New(),
		Origin:     geom.NewVec(5, 1, 0),
		Direction:  geom.NewVec(0, 0, 1),
		Weapon:     noSpread(weapon.Rifle),
		ClientTime: server - 150,
		ServerTime: server,
	}, []Target{target})

	assert.True(t, result.Hit(), "shot at the rewound position must land")
	assert.Equal(t, target.ID, result.Target)
}

func TestResolveFireMissesAtPresentPosition(t *testing.T) {
	resolver := NewResolver()
	target := Target{ID: uuid.New(), History: NewHistory(HistoryWindow.Milliseconds())}

	server := int64(10_000)
	target.History.Add(sampleAt(server-150, geom.NewVec(5, 0, 10)))
	target.History.Add(sampleAt(server, geom.NewVec(50, 0, 10)))

	// Same ray, but claiming the present time: the target is long gone.
	result := resolver.ResolveFire(FireRequest{
		Shooter:    uuid.New(),
		Origin:     geom.NewVec(5, 1, 0),
		Direction:  geom.NewVec(0, 0, 1),
		Weapon:     noSpread(weapon.Rifle),
		ClientTime: server,
		ServerTime: server,
	}, []Target{target})

	assert.Equal(t, ReasonMiss, result.Reason)
}

func TestFireRateRejection(t *testing.T) {
	resolver := NewResolver()
	wpn := noSpread(weapon.Sniper) // 40 RPM -> 1.5s between shots

	server := time.Now()
	result := resolver.ResolveFire(FireRequest{
		Shooter:    uuid.New(),
		Origin:     geom.Vec{},
		Direction:  geom.NewVec(0, 0, 1),
		Weapon:     wpn,
		LastFire:   server.Add(-100 * time.Millisecond),
		ClientTime: server.UnixMilli(),
		ServerTime: server.UnixMilli(),
	}, nil)

	assert.Equal(t, ReasonFireRate, result.Reason)
}

func TestOutOfRangeInvalidatesHit(t *testing.T) {
	resolver := NewResolver()
	wpn := noSpread(weapon.Shotgun) // 25 range

	target := Target{ID: uuid.New(), History: NewHistory(HistoryWindow.Milliseconds())}
	server := int64(10_000)
	target.History.Add(sampleAt(server, geom.NewVec(0, 0, 100)))

	result := resolver.ResolveFire(FireRequest{
		Shooter:    uuid.New(),
		Origin:     geom.NewVec(0, 1, 0),
		Direction:  geom.NewVec(0, 0, 1),
		Weapon:     wpn,
		ClientTime: server,
		ServerTime: server,
	}, []Target{target})

	assert.Equal(t, ReasonOutOfRange, result.Reason)
}

func TestZoneMultipliers(t *testing.T) {
	resolver := NewResolver()
	wpn := noSpread(weapon.Rifle)
	server := int64(10_000)

	shoot := func(height float64) Result {
		target := Target{ID: uuid.New(), History: NewHistory(HistoryWindow.Milliseconds())}
		target.History.Add(sampleAt(server, geom.NewVec(0, 0, 10)))
		return resolver.ResolveFire(FireRequest{
			Shooter:    uuid.New(),
			Origin:     geom.NewVec(0, height, 0),
			Direction:  geom.NewVec(0, 0, 1),
			Weapon:     wpn,
			ClientTime: server,
			ServerTime: server,
		}, []Target{target})
	}

	head := shoot(1.7)
	body := shoot(1.0)
	legs := shoot(0.3)

	require.True(t, head.Hit())
	require.True(t, body.Hit())
	require.True(t, legs.Hit())
	assert.Equal(t, ZoneHead, head.Zone)
	assert.Equal(t, ZoneBody, body.Zone)
	assert.Equal(t, ZoneLegs, legs.Zone)
	assert.GreaterOrEqual(t, head.Damage, body.Damage, "head multiplier >= body")
	assert.Less(t, legs.Damage, body.Damage)
}

func TestFalloffNeverExceedsNearDamage(t *testing.T) {
	wpn := weapon.ByID(weapon.Rifle)
	near := wpn.Damage * wpn.FalloffAt(wpn.FalloffStart)
	for d := wpn.FalloffStart + 1; d < wpn.FalloffEnd+50; d += 5 {
		assert.Less(t, wpn.Damage*wpn.FalloffAt(d), near)
	}
}

func TestClosestTargetWinsAndTieBreak(t *testing.T) {
	resolver := NewResolver()
	wpn := noSpread(weapon.Rifle)
	server := int64(10_000)

	newTarget := func(z float64) Target {
		tgt := Target{ID: uuid.New(), History: NewHistory(HistoryWindow.Milliseconds())}
		tgt.History.Add(sampleAt(server, geom.NewVec(0, 0, z)))
		return tgt
	}

	near := newTarget(10)
	far := newTarget(20)

	req := FireRequest{
		Shooter:    uuid.New(),
		Origin:     geom.NewVec(0, 1, 0),
		Direction:  geom.NewVec(0, 0, 1),
		Weapon:     wpn,
		ClientTime: server,
		ServerTime: server,
	}

	result := resolver.ResolveFire(req, []Target{far, near})
	assert.Equal(t, near.ID, result.Target)

	// Two targets at exactly the same depth: first enumerated wins.
	a := newTarget(10)
	b := newTarget(10)
	result = resolver.ResolveFire(req, []Target{a, b})
	assert.Equal(t, a.ID, result.Target)
}

func TestShooterNeverHitsThemselves(t *testing.T) {
	resolver := NewResolver()
	shooter := uuid.New()
	tgt := Target{ID: shooter, History: NewHistory(HistoryWindow.Milliseconds())}
	server := int64(10_000)
	tgt.History.Add(sampleAt(server, geom.NewVec(0, 0, 1)))

	result := resolver.ResolveFire(FireRequest{
		Shooter:    shooter,
		Origin:     geom.NewVec(0, 1, 0),
		Direction:  geom.NewVec(0, 0, 1),
		Weapon:     noSpread(weapon.Rifle),
		ClientTime: server,
		ServerTime: server,
	}, []Target{tgt})
	assert.Equal(t, ReasonMiss, result.Reason)
}

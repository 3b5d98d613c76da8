// Package anticheat validates client-reported behavior against physical
// limits. These are heuristics, not proofs of cheating: thresholds trade
// false positives against detection latency and are tunable configuration,
// not load-bearing correctness.
package anticheat

import (
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/vantagefps/vantage/pkg/game/weapon"
	"github.com/vantagefps/vantage/pkg/geom"
)

type Category string

const (
	CategorySpeed    Category = "speed"
	CategoryTeleport Category = "teleport"
	CategoryAim      Category = "aim"
	CategoryFireRate Category = "fire_rate"
	CategoryOrdering Category = "ordering"
)

type Config struct {
	// Multiplier of slack applied over the theoretical maximum before a
	// movement or aim delta counts as a violation.
	Tolerance float64
	// Displacement within one validation window that counts as a teleport
	// regardless of dt.
	TeleportDistance float64
	MaxSpeed         float64
	// Degrees per second.
	MaxAngularSpeed float64

	// Violations per category before the session is marked for ban.
	Thresholds map[Category]int

	// How long audit events are retained.
	AuditWindow time.Duration
	// Hard cap on retained audit events.
	AuditLimit int
}

func DefaultConfig() Config {
	return Config{
		Tolerance:        1.3,
		TeleportDistance: 30,
		MaxSpeed:         8.0,
		MaxAngularSpeed:  3600,
		Thresholds: map[Category]int{
			CategorySpeed:    5,
			CategoryTeleport: 2,
			CategoryAim:      5,
			CategoryFireRate: 3,
			CategoryOrdering: 10,
		},
		AuditWindow: time.Hour,
		AuditLimit:  4096,
	}
}

type Verdict struct {
	Valid  bool
	Reason Category
	Ban    bool
}

var ok = Verdict{Valid: true}

// Profile is the per-player validator state. Violation counters are
// monotonically non-decreasing for the life of the session; crossing a
// threshold is terminal.
type Profile struct {
	PlayerID     uuid.UUID
	LastPosition geom.Vec
	LastYaw      float64
	LastPitch    float64
	LastFire     time.Time
	LastSeq      uint32
	Violations   map[Category]int
	banned       bool
	seeded       bool
	seqSeen      bool
}

type AuditEvent struct {
	Time     time.Time
	PlayerID uuid.UUID
	Category Category
	Detail   float64
	Banned   bool
}

// Monitor validates behavior for every player in one room. Category
// validators are independent of each other but stateful per player.
type Monitor struct {
	config   Config
	mutex    deadlock.Mutex
	profiles map[uuid.UUID]*Profile
	audit    []AuditEvent
}

func NewMonitor(config Config) *Monitor {
	if config.Thresholds == nil {
		config.Thresholds = DefaultConfig().Thresholds
	}
	return &Monitor{
		config:   config,
		profiles: make(map[uuid.UUID]*Profile),
	}
}

func (m *Monitor) AddPlayer(id uuid.UUID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.profiles[id]; exists {
		return
	}
	m.profiles[id] = &Profile{
		PlayerID:   id,
		Violations: make(map[Category]int),
	}
}

func (m *Monitor) RemovePlayer(id uuid.UUID) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.profiles, id)
}

// ResetPosition seeds the movement baseline, e.g. after a legitimate spawn or
// teleport, so the next validation does not flag the jump.
func (m *Monitor) ResetPosition(id uuid.UUID, position geom.Vec) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if profile, exists := m.profiles[id]; exists {
		profile.LastPosition = position
		profile.seeded = true
	}
}

func (m *Monitor) record(profile *Profile, category Category, detail float64) Verdict {
	profile.Violations[category]++

	threshold, configured := m.config.Thresholds[category]
	banned := configured && profile.Violations[category] >= threshold
	if banned {
		profile.banned = true
	}

	m.audit = append(m.audit, AuditEvent{
		Time:     time.Now(),
		PlayerID: profile.PlayerID,
		Category: category,
		Detail:   detail,
		Banned:   banned,
	})
	m.pruneAudit()

	return Verdict{Valid: false, Reason: category, Ban: banned}
}

func (m *Monitor) pruneAudit() {
	cutoff := time.Now().Add(-m.config.AuditWindow)
	i := 0
	for i < len(m.audit) && m.audit[i].Time.Before(cutoff) {
		i++
	}
	if over := len(m.audit) - m.config.AuditLimit; over > i {
		i = over
	}
	if i > 0 {
		m.audit = m.audit[i:]
	}
}

// ValidateMovement compares the reported displacement against what the
// movement model allows in dt. A displacement past the teleport distance is
// the stricter, separately counted category.
func (m *Monitor) ValidateMovement(id uuid.UUID, position geom.Vec, dt float64) Verdict {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	profile, exists := m.profiles[id]
	if !exists {
		return ok
	}

	if !profile.seeded {
		profile.LastPosition = position
		profile.seeded = true
		return ok
	}

	displacement := geom.Distance(profile.LastPosition, position)
	profile.LastPosition = position

	if displacement > m.config.TeleportDistance {
		return m.record(profile, CategoryTeleport, displacement)
	}

	if dt <= 0 {
		return ok
	}
	if displacement > m.config.MaxSpeed*dt*m.config.Tolerance {
		return m.record(profile, CategorySpeed, displacement)
	}
	return ok
}

// ValidateAim compares the angular delta against the maximum angular speed.
func (m *Monitor) ValidateAim(id uuid.UUID, yaw, pitch, dt float64) Verdict {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	profile, exists := m.profiles[id]
	if !exists {
		return ok
	}

	yawDelta := angularDelta(profile.LastYaw, yaw)
	pitchDelta := abs(pitch - profile.LastPitch)
	profile.LastYaw = yaw
	profile.LastPitch = pitch

	if dt <= 0 {
		return ok
	}
	limit := m.config.MaxAngularSpeed * dt * m.config.Tolerance
	if yawDelta > limit || pitchDelta > limit {
		return m.record(profile, CategoryAim, max(yawDelta, pitchDelta))
	}
	return ok
}

// ValidateFire enforces the weapon's RPM-derived minimum inter-shot interval.
func (m *Monitor) ValidateFire(id uuid.UUID, wpn weapon.Weapon, now time.Time) Verdict {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	profile, exists := m.profiles[id]
	if !exists {
		return ok
	}

	last := profile.LastFire
	profile.LastFire = now

	// The combat resolver already rejects shots slightly under the minimum
	// interval; only intervals egregiously below it count as violations.
	if !last.IsZero() && now.Sub(last) < wpn.MinInterval()/2 {
		return m.record(profile, CategoryFireRate, now.Sub(last).Seconds())
	}
	return ok
}

// ValidateSequence rejects non-increasing input sequence numbers.
func (m *Monitor) ValidateSequence(id uuid.UUID, seq uint32) Verdict {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	profile, exists := m.profiles[id]
	if !exists {
		return ok
	}

	if profile.seqSeen && seq <= profile.LastSeq {
		return m.record(profile, CategoryOrdering, float64(seq))
	}
	profile.seqSeen = true
	profile.LastSeq = seq
	return ok
}

func (m *Monitor) IsBanned(id uuid.UUID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	profile, exists := m.profiles[id]
	return exists && profile.banned
}

func (m *Monitor) Violations(id uuid.UUID) map[Category]int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	profile, exists := m.profiles[id]
	if !exists {
		return nil
	}
	counts := make(map[Category]int, len(profile.Violations))
	for category, count := range profile.Violations {
		counts[category] = count
	}
	return counts
}

// AuditLog returns the retained violation events, newest last.
func (m *Monitor) AuditLog() []AuditEvent {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	events := make([]AuditEvent, len(m.audit))
	copy(events, m.audit)
	return events
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// angularDelta accounts for yaw wrapping at 360.
func angularDelta(a, b float64) float64 {
	d := abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

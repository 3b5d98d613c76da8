// Package movement is the deterministic kinematic integrator run by the
// authoritative server and, for prediction, by each client. Apply is a pure
// function: identical (state, input, dt) must produce bit-identical output on
// both sides, since client prediction depends on convergence.
package movement

import (
	"math"

	"github.com/vantagefps/vantage/pkg/geom"
	"github.com/vantagefps/vantage/pkg/protocol"
)

const (
	WalkSpeed   = 5.0
	SprintMult  = 1.5
	CrouchMult  = 0.5
	AimMult     = 0.6
	JumpSpeed   = 6.5
	Gravity     = 20.0
	Accel       = 12.0
	GroundLevel = 0.0

	// A client claiming a larger timestep than this is trying to teleport.
	MaxDT = 0.1

	WorldExtent = 512.0
)

// MaxSpeed is the fastest legal horizontal speed, used by anti-cheat as the
// baseline for displacement checks.
const MaxSpeed = WalkSpeed * SprintMult

type State struct {
	Position geom.Vec
	Velocity geom.Vec
	Yaw      float64
	Pitch    float64
	Grounded bool
	Crouched bool
	Sprinting bool

	// Last input applied to this state; strictly increasing per player.
	LastSeq    uint32
	LastUpdate int64
}

type Input struct {
	MoveX   float64
	MoveZ   float64
	Yaw     float64
	Pitch   float64
	Actions uint8
	DT      float64
}

func sanitize(v float64, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Normalize clamps an input into legal range. Malformed values are repaired
// rather than rejected; deciding whether they were hostile is anti-cheat's
// job, not the integrator's.
func Normalize(in Input) Input {
	in.MoveX = clamp(sanitize(in.MoveX, 0), -1, 1)
	in.MoveZ = clamp(sanitize(in.MoveZ, 0), -1, 1)
	if mag := math.Hypot(in.MoveX, in.MoveZ); mag > 1 {
		in.MoveX /= mag
		in.MoveZ /= mag
	}
	in.Yaw = math.Mod(sanitize(in.Yaw, 0), 360)
	if in.Yaw < 0 {
		in.Yaw += 360
	}
	in.Pitch = clamp(sanitize(in.Pitch, 0), -89, 89)
	in.DT = clamp(sanitize(in.DT, 0), 0, MaxDT)
	return in
}

// targetSpeed combines the movement modifiers multiplicatively. Sprint is
// mutually exclusive with crouch and aim; crouch wins over sprint.
func targetSpeed(in Input) float64 {
	speed := WalkSpeed
	crouched := in.Actions&protocol.ActionCrouch != 0
	aiming := in.Actions&protocol.ActionAim != 0
	if in.Actions&protocol.ActionSprint != 0 && !crouched && !aiming {
		speed *= SprintMult
	}
	if crouched {
		speed *= CrouchMult
	}
	if aiming {
		speed *= AimMult
	}
	return speed
}

// Apply advances one player's state by one input. Pure: the receiver state is
// copied, never mutated.
func Apply(state State, in Input) State {
	in = Normalize(in)
	dt := in.DT

	next := state
	next.Yaw = in.Yaw
	next.Pitch = in.Pitch
	next.Crouched = in.Actions&protocol.ActionCrouch != 0
	next.Sprinting = in.Actions&protocol.ActionSprint != 0 && !next.Crouched

	// Camera-relative basis on the horizontal plane. Yaw 0 faces +Z.
	yawRad := in.Yaw * math.Pi / 180
	sin, cos := math.Sin(yawRad), math.Cos(yawRad)
	forward := geom.Vec{X: sin, Z: cos}
	right := geom.Vec{X: cos, Z: -sin}

	speed := targetSpeed(in)
	desired := forward.Mul(in.MoveZ * speed).Add(right.Mul(in.MoveX * speed))

	// Exponential blend toward the desired horizontal velocity. The factor
	// depends only on dt, so the smoothing is framerate-independent.
	blend := 1 - math.Exp(-Accel*dt)
	next.Velocity.X += (desired.X - state.Velocity.X) * blend
	next.Velocity.Z += (desired.Z - state.Velocity.Z) * blend

	if state.Grounded && in.Actions&protocol.ActionJump != 0 {
		next.Velocity.Y = JumpSpeed
		next.Grounded = false
	} else if !state.Grounded {
		next.Velocity.Y = state.Velocity.Y - Gravity*dt
	}

	next.Position = next.Position.Add(next.Velocity.Mul(dt))

	if next.Position.Y <= GroundLevel {
		next.Position.Y = GroundLevel
		next.Velocity.Y = 0
		next.Grounded = true
	}

	next.Position.X = clamp(next.Position.X, -WorldExtent, WorldExtent)
	next.Position.Z = clamp(next.Position.Z, -WorldExtent, WorldExtent)

	return next
}

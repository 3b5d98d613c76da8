package movement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vantagefps/vantage/pkg/protocol"
)

func TestApplyIsDeterministic(t *testing.T) {
	state := State{Grounded: true}
	in := Input{MoveX: 0.3, MoveZ: 0.7, Yaw: 123.4, Pitch: -5, Actions: protocol.ActionSprint, DT: 0.0167}

	a := Apply(state, in)
	b := Apply(state, in)
	assert.Equal(t, a, b, "identical arguments must produce identical output")

	// Chained application stays deterministic as well.
	for i := 0; i < 100; i++ {
		a = Apply(a, in)
		b = Apply(b, in)
	}
	assert.Equal(t, a, b)
}

func TestApplyDoesNotMutateInputState(t *testing.T) {
	state := State{Grounded: true}
	before := state
	Apply(state, Input{MoveZ: 1, DT: 0.05})
	assert.Equal(t, before, state)
}

func TestSprintForwardMovesForward(t *testing.T) {
	state := State{Grounded: true}
	in := Input{MoveZ: 1, Yaw: 0, Actions: protocol.ActionSprint, DT: 0.1}

	next := Apply(state, in)
	assert.Greater(t, next.Position.Z, 0.0, "forward yaw 0 moves +Z")
	assert.InDelta(t, 0, next.Position.X, 1e-9)

	// Progress is monotonic and bounded by sprint speed per step.
	prev := next
	for i := 0; i < 50; i++ {
		cur := Apply(prev, in)
		assert.Greater(t, cur.Position.Z, prev.Position.Z)
		assert.LessOrEqual(t, cur.Position.Z-prev.Position.Z, WalkSpeed*SprintMult*in.DT+1e-9)
		prev = cur
	}
}

func TestCrouchOverridesSprint(t *testing.T) {
	in := Input{MoveZ: 1, Actions: protocol.ActionSprint | protocol.ActionCrouch, DT: 0.05}
	assert.Equal(t, WalkSpeed*CrouchMult, targetSpeed(Normalize(in)))
}

func TestAimAndCrouchCombineMultiplicatively(t *testing.T) {
	in := Input{Actions: protocol.ActionCrouch | protocol.ActionAim}
	assert.InDelta(t, WalkSpeed*CrouchMult*AimMult, targetSpeed(in), 1e-9)
}

func TestDTIsClamped(t *testing.T) {
	state := State{Grounded: true}
	huge := Apply(state, Input{MoveZ: 1, DT: 100})
	legal := Apply(state, Input{MoveZ: 1, DT: MaxDT})
	assert.Equal(t, legal, huge, "a claimed huge timestep is clamped, not honored")
}

func TestNormalizeRepairsHostileInput(t *testing.T) {
	in := Normalize(Input{
		MoveX: math.NaN(),
		MoveZ: math.Inf(1),
		Yaw:   math.Inf(-1),
		Pitch: 500,
		DT:    math.NaN(),
	})
	assert.Equal(t, 0.0, in.MoveX)
	assert.Equal(t, 1.0, in.MoveZ)
	assert.Equal(t, 0.0, in.Yaw)
	assert.Equal(t, 89.0, in.Pitch)
	assert.Equal(t, 0.0, in.DT)
}

func TestMoveVectorClampedToUnitLength(t *testing.T) {
	in := Normalize(Input{MoveX: 1, MoveZ: 1, DT: 0.05})
	assert.InDelta(t, 1.0, math.Hypot(in.MoveX, in.MoveZ), 1e-9)
}

func TestJumpAndGravity(t *testing.T) {
	state := State{Grounded: true}
	in := Input{Actions: protocol.ActionJump, DT: 0.05}

	next := Apply(state, in)
	assert.False(t, next.Grounded)
	assert.Greater(t, next.Position.Y, 0.0)

	// Keep integrating with no input; gravity must bring the player down
	// and settle on the ground.
	fall := Input{DT: 0.05}
	for i := 0; i < 200 && !next.Grounded; i++ {
		next = Apply(next, fall)
	}
	assert.True(t, next.Grounded)
	assert.Equal(t, GroundLevel, next.Position.Y)
	assert.Equal(t, 0.0, next.Velocity.Y)
}

func TestWorldBounds(t *testing.T) {
	state := State{Grounded: true}
	state.Position.X = WorldExtent - 0.1
	in := Input{MoveX: 1, Yaw: 0, DT: 0.1}
	for i := 0; i < 100; i++ {
		state = Apply(state, in)
	}
	assert.LessOrEqual(t, state.Position.X, WorldExtent)
}

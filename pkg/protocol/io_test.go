package protocol

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagefps/vantage/pkg/geom"
)

func roundTrip[T any](t *testing.T, op MessageType, before T) T {
	data, err := Encode(op, 12345, before)
	require.NoError(t, err)

	envelope, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, op, envelope.Type)
	assert.Equal(t, int64(12345), envelope.ServerTimestamp)

	var after T
	require.NoError(t, envelope.Unmarshal(&after))
	return after
}

func TestInputRoundTrip(t *testing.T) {
	before := Input{
		Seq:     42,
		DT:      0.0167,
		MoveX:   0.5,
		MoveZ:   1,
		Yaw:     90,
		Pitch:   -10,
		Actions: ActionSprint | ActionJump,
		Weapon:  2,
		Ts:      1700000000000,
	}
	assert.Equal(t, before, roundTrip(t, InputOp, before))
}

func TestSnapshotCompression(t *testing.T) {
	snapshot := Snapshot{Tick: 99}
	for i := 0; i < 64; i++ {
		snapshot.Players = append(snapshot.Players, PlayerSnapshot{
			PlayerID: uuid.New(),
			Position: geom.NewVec(float64(i), 0, float64(i)*2),
			Health:   100,
			Alive:    true,
		})
	}

	data, err := Encode(SnapshotOp, 1, snapshot)
	require.NoError(t, err)
	assert.Equal(t, flagCompressed, data[1]&flagCompressed)

	after := roundTrip(t, SnapshotOp, snapshot)
	assert.Equal(t, snapshot.Tick, after.Tick)
	assert.Len(t, after.Players, 64)
	assert.Equal(t, snapshot.Players[10].PlayerID, after.Players[10].PlayerID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)

	data, err := Encode(HeartbeatOp, 0, Heartbeat{ClientTime: 5})
	require.NoError(t, err)
	data[0] = 200 // not a message type
	_, err = Decode(data)
	assert.Error(t, err)
}

func TestClientSent(t *testing.T) {
	assert.True(t, JoinOp.ClientSent())
	assert.True(t, HeartbeatOp.ClientSent())
	assert.False(t, SnapshotOp.ClientSent())
	assert.False(t, ErrorOp.ClientSent())
}

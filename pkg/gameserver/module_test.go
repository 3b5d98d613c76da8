package gameserver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagefps/vantage/pkg/game/modes"
	"github.com/vantagefps/vantage/pkg/game/movement"
	"github.com/vantagefps/vantage/pkg/game/weapon"
	"github.com/vantagefps/vantage/pkg/geom"
	"github.com/vantagefps/vantage/pkg/protocol"
	"github.com/vantagefps/vantage/pkg/state"
)

func testRoom(t *testing.T, mode string) *Room {
	t.Helper()
	room, err := New(context.Background(), &Config{
		MaxClients:   8,
		MinClients:   2,
		TickRate:     30,
		SnapshotRate: 30,
		Mode:         mode,
		Map:          "quarry",
	}, nil)
	require.NoError(t, err)
	return room
}

func join(t *testing.T, room *Room, session uint32, name string) *Client {
	t.Helper()
	client, err := room.Join(session, uuid.New(), name, 1200)
	require.NoError(t, err)
	return client
}

// drain collects every packet currently queued for delivery.
func drain(room *Room) []RoomPacket {
	var packets []RoomPacket
	for {
		select {
		case packet := <-room.outgoing:
			packets = append(packets, packet)
		default:
			return packets
		}
	}
}

func packetsFor(packets []RoomPacket, session uint32, t protocol.MessageType) []RoomPacket {
	var matched []RoomPacket
	for _, packet := range packets {
		if packet.Session == session && packet.Type == t {
			matched = append(matched, packet)
		}
	}
	return matched
}

func TestUnknownMode(t *testing.T) {
	_, err := New(context.Background(), &Config{
		MaxClients: 8,
		MinClients: 2,
		TickRate:   30,
		Mode:       "bogus",
	}, nil)
	assert.Error(t, err)
}

func TestJoinBalancesTeams(t *testing.T) {
	room := testRoom(t, "tdm")

	a := join(t, room, 1, "a")
	b := join(t, room, 2, "b")
	c := join(t, room, 3, "c")
	d := join(t, room, 4, "d")

	counts := map[int]int{}
	for _, client := range []*Client{a, b, c, d} {
		counts[client.Team]++
	}
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 2, counts[1])
}

func TestMatchStartsAtMinimum(t *testing.T) {
	room := testRoom(t, "tdm")

	join(t, room, 1, "a")
	assert.Equal(t, modes.PhaseWaiting, room.Engine.Phase())

	join(t, room, 2, "b")
	assert.Equal(t, modes.PhaseActive, room.Engine.Phase())
}

func TestJoinCapacity(t *testing.T) {
	room := testRoom(t, "tdm")
	room.MaxClients = 2

	join(t, room, 1, "a")
	join(t, room, 2, "b")

	_, err := room.Join(3, uuid.New(), "c", 1200)
	assert.Error(t, err)
}

func TestDuplicateJoin(t *testing.T) {
	room := testRoom(t, "tdm")

	player := uuid.New()
	_, err := room.Join(1, player, "a", 1200)
	require.NoError(t, err)

	_, err = room.Join(2, player, "a", 1200)
	assert.Error(t, err)
}

func TestJoinedMessage(t *testing.T) {
	room := testRoom(t, "tdm")
	client := join(t, room, 1, "a")

	packets := packetsFor(drain(room), 1, protocol.JoinedOp)
	require.Len(t, packets, 1)

	joined := packets[0].Message.(protocol.Joined)
	assert.Equal(t, client.ID, joined.PlayerID)
	assert.Equal(t, room.ID, joined.RoomID)
	assert.Equal(t, 30, joined.Config.TickRate)
}

func TestInputMovesPlayer(t *testing.T) {
	room := testRoom(t, "tdm")
	client := join(t, room, 1, "a")
	join(t, room, 2, "b")
	drain(room)

	before := client.Movement.Position

	room.HandleMessage(1, protocol.InputOp, protocol.Input{
		Seq:     1,
		DT:      0.05,
		MoveZ:   1,
		Yaw:     client.Movement.Yaw,
		Actions: protocol.ActionSprint,
		Ts:      time.Now().UnixMilli(),
	})
	room.runTick()

	assert.NotEqual(t, before, client.Movement.Position)
	assert.Equal(t, uint32(1), client.ackSeq)
}

func TestStaleInputIgnored(t *testing.T) {
	room := testRoom(t, "tdm")
	client := join(t, room, 1, "a")
	join(t, room, 2, "b")

	yaw := client.Movement.Yaw
	room.HandleMessage(1, protocol.InputOp, protocol.Input{Seq: 5, DT: 0.03, Yaw: yaw})
	room.HandleMessage(1, protocol.InputOp, protocol.Input{Seq: 3, DT: 0.03, Yaw: yaw})
	room.runTick()

	assert.Equal(t, uint32(5), client.ackSeq)
	assert.Equal(t, uint32(5), client.Movement.LastSeq)
}

func TestSnapshotExcludesRecipient(t *testing.T) {
	room := testRoom(t, "tdm")
	a := join(t, room, 1, "a")
	b := join(t, room, 2, "b")
	drain(room)

	room.runTick()

	packets := packetsFor(drain(room), 1, protocol.SnapshotOp)
	require.NotEmpty(t, packets)

	snapshot := packets[0].Message.(protocol.Snapshot)
	require.Len(t, snapshot.Players, 1)
	assert.Equal(t, b.ID, snapshot.Players[0].PlayerID)
	assert.NotEqual(t, a.ID, snapshot.Players[0].PlayerID)
}

func TestReconcileCarriesOwnState(t *testing.T) {
	room := testRoom(t, "tdm")
	a := join(t, room, 1, "a")
	join(t, room, 2, "b")
	drain(room)

	room.runTick()

	packets := packetsFor(drain(room), 1, protocol.ReconcileOp)
	require.NotEmpty(t, packets)

	reconcile := packets[0].Message.(protocol.Reconcile)
	assert.Equal(t, a.Movement.Position, reconcile.Position)
	assert.Equal(t, a.Health, reconcile.Health)
	assert.True(t, reconcile.Alive)
}

func TestFireKillsTarget(t *testing.T) {
	room := testRoom(t, "ffa")
	shooter := join(t, room, 1, "a")
	victim := join(t, room, 2, "b")
	join(t, room, 3, "c")
	drain(room)

	// Line the victim up five meters in front of the shooter.
	shooter.Movement.Position = geom.Vec{X: 0, Y: 0, Z: 0}
	victim.Movement.Position = geom.Vec{X: 0, Y: 0, Z: 5}
	victim.Health = 1
	room.runTick()
	drain(room)

	room.HandleMessage(1, protocol.FireOp, protocol.Fire{
		Seq:       1,
		Weapon:    protocol.FireWeapon{WeaponID: uint8(weapon.Rifle)},
		Direction: geom.Vec{X: 0, Y: 0, Z: 1},
		Ts:        time.Now().UnixMilli(),
	})

	assert.False(t, victim.Alive)
	assert.Equal(t, 0, victim.Health)
	assert.Equal(t, 1, room.Engine.Stats(shooter.ID).Kills)
	assert.Equal(t, 1, room.Engine.Stats(victim.ID).Deaths)

	packets := drain(room)
	kills := 0
	for _, packet := range packets {
		if packet.Type != protocol.EventOp {
			continue
		}
		event := packet.Message.(protocol.Event)
		if event.Kind == protocol.EventKill {
			kills++
			assert.Equal(t, shooter.ID, event.Actor)
			assert.Equal(t, victim.ID, event.Target)
		}
	}
	assert.Positive(t, kills)
}

func TestKilledPlayerRespawns(t *testing.T) {
	room, err := New(context.Background(), &Config{
		MaxClients:   8,
		MinClients:   2,
		TickRate:     30,
		SnapshotRate: 30,
		Mode:         "ffa",
		Map:          "quarry",
		RespawnDelay: 10 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	join(t, room, 1, "a")
	victim := join(t, room, 2, "b")
	victim.Health = 1
	drain(room)

	shooter := room.Clients.GetClientBySession(1)
	shooter.Movement.Position = geom.Vec{X: 0, Y: 0, Z: 0}
	victim.Movement.Position = geom.Vec{X: 0, Y: 0, Z: 5}
	room.runTick()

	room.HandleMessage(1, protocol.FireOp, protocol.Fire{
		Seq:       1,
		Weapon:    protocol.FireWeapon{WeaponID: uint8(weapon.Rifle)},
		Direction: geom.Vec{X: 0, Y: 0, Z: 1},
		Ts:        time.Now().UnixMilli(),
	})
	room.mutex.Lock()
	require.False(t, victim.Alive)
	room.mutex.Unlock()

	assert.Eventually(t, func() bool {
		room.mutex.Lock()
		defer room.mutex.Unlock()
		return victim.Alive && victim.Health == 100
	}, time.Second, 5*time.Millisecond)
}

func TestInputWeaponSwitchChecksOwnership(t *testing.T) {
	db, err := state.InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	economy := state.NewEconomyStore(db)

	room, err := New(context.Background(), &Config{
		MaxClients:   8,
		MinClients:   2,
		TickRate:     30,
		SnapshotRate: 30,
		Mode:         "tdm",
		Map:          "quarry",
	}, economy)
	require.NoError(t, err)

	client := join(t, room, 1, "a")
	join(t, room, 2, "b")
	drain(room)

	yaw := client.Movement.Yaw
	room.HandleMessage(1, protocol.InputOp, protocol.Input{
		Seq: 1, DT: 0.03, Yaw: yaw, Weapon: uint8(weapon.Sniper),
	})
	room.runTick()
	assert.Equal(t, weapon.Pistol, client.Weapon, "unowned weapon stays holstered")

	player := client.ID.String()
	_, err = economy.GetOrCreatePlayer(player, "a")
	require.NoError(t, err)
	require.NoError(t, economy.AddToInventory(player, WeaponItemID(weapon.ByID(weapon.Sniper))))

	room.HandleMessage(1, protocol.InputOp, protocol.Input{
		Seq: 2, DT: 0.03, Yaw: yaw, Weapon: uint8(weapon.Sniper),
	})
	room.runTick()
	assert.Equal(t, weapon.Sniper, client.Weapon)
}

func TestFireWhileDeadIgnored(t *testing.T) {
	room := testRoom(t, "ffa")
	shooter := join(t, room, 1, "a")
	join(t, room, 2, "b")
	drain(room)

	shooter.Alive = false
	room.HandleMessage(1, protocol.FireOp, protocol.Fire{
		Weapon:    protocol.FireWeapon{WeaponID: uint8(weapon.Rifle)},
		Direction: geom.Vec{Z: 1},
		Ts:        time.Now().UnixMilli(),
	})

	assert.Empty(t, packetsFor(drain(room), 2, protocol.EventOp))
}

func TestUnknownWeaponRejected(t *testing.T) {
	room := testRoom(t, "ffa")
	join(t, room, 1, "a")
	join(t, room, 2, "b")
	drain(room)

	room.HandleMessage(1, protocol.FireOp, protocol.Fire{
		Weapon:    protocol.FireWeapon{WeaponID: 200},
		Direction: geom.Vec{Z: 1},
		Ts:        time.Now().UnixMilli(),
	})

	packets := packetsFor(drain(room), 1, protocol.ErrorOp)
	require.Len(t, packets, 1)
	assert.Equal(t, protocol.ErrMalformed, packets[0].Message.(protocol.Error).Code)
}

func TestProjectileExplodes(t *testing.T) {
	room := testRoom(t, "ffa")
	shooter := join(t, room, 1, "a")
	victim := join(t, room, 2, "b")
	drain(room)

	shooter.Movement.Position = geom.Vec{X: 0, Y: 0, Z: 0}
	victim.Movement.Position = geom.Vec{X: 0, Y: 0, Z: 3}

	room.HandleMessage(1, protocol.FireOp, protocol.Fire{
		Weapon:    protocol.FireWeapon{WeaponID: uint8(weapon.Grenade)},
		Direction: geom.Vec{Z: 1},
		Ts:        time.Now().UnixMilli(),
	})
	require.Len(t, room.projectiles, 1)

	// Force detonation next to the victim.
	room.projectiles[0].Expires = time.Now().Add(-time.Second)
	room.projectiles[0].Position = victim.Movement.Position

	before := victim.Health
	room.runTick()

	assert.Empty(t, room.projectiles)
	assert.Less(t, victim.Health, before)
}

func TestLeaveIsIdempotent(t *testing.T) {
	room := testRoom(t, "tdm")
	join(t, room, 1, "a")

	room.Leave(1, "quit")
	room.Leave(1, "quit")
	room.Leave(99, "quit")

	assert.Equal(t, 0, room.Clients.GetNumClients())
}

func TestLeaveBelowMinimumAbandonsMatch(t *testing.T) {
	room := testRoom(t, "tdm")
	join(t, room, 1, "a")
	join(t, room, 2, "b")
	require.Equal(t, modes.PhaseActive, room.Engine.Phase())

	subscriber := room.Finished.Subscribe()
	defer subscriber.Done()

	room.Leave(2, "quit")

	assert.Equal(t, modes.PhaseEnded, room.Engine.Phase())
	select {
	case result := <-subscriber.Recv():
		assert.Equal(t, room.ID, result.Room)
		assert.Equal(t, "abandoned", result.Winner.Reason)
	default:
		t.Fatal("no match result published")
	}
	assert.True(t, room.IsDone())
}

func TestShopWithoutEconomy(t *testing.T) {
	room := testRoom(t, "tdm")
	join(t, room, 1, "a")
	join(t, room, 2, "b")
	drain(room)

	room.HandleMessage(1, protocol.ShopPurchaseOp, protocol.ShopPurchase{ItemID: "weapon-rifle"})

	packets := packetsFor(drain(room), 1, protocol.ErrorOp)
	require.Len(t, packets, 1)
	assert.Equal(t, protocol.ErrPurchaseFailed, packets[0].Message.(protocol.Error).Code)
}

func TestLoadout(t *testing.T) {
	room := testRoom(t, "tdm")
	client := join(t, room, 1, "a")
	join(t, room, 2, "b")
	drain(room)

	// Without an economy every weapon is available.
	room.HandleMessage(1, protocol.EquipLoadoutOp, protocol.EquipLoadout{
		Weapons: []uint8{uint8(weapon.Sniper)},
	})
	assert.Equal(t, weapon.Sniper, client.Weapon)

	room.HandleMessage(1, protocol.EquipLoadoutOp, protocol.EquipLoadout{
		Weapons: []uint8{250},
	})
	assert.Equal(t, weapon.Sniper, client.Weapon)
	packets := packetsFor(drain(room), 1, protocol.ErrorOp)
	require.Len(t, packets, 1)
}

func TestHeartbeatEchoed(t *testing.T) {
	room := testRoom(t, "tdm")
	client := join(t, room, 1, "a")
	drain(room)

	stale := time.Now().Add(-time.Minute)
	client.LastHeartbeat = stale

	room.HandleMessage(1, protocol.HeartbeatOp, protocol.Heartbeat{ClientTime: 42})

	assert.True(t, client.LastHeartbeat.After(stale))
	packets := packetsFor(drain(room), 1, protocol.HeartbeatOp)
	require.Len(t, packets, 1)
	assert.Equal(t, int64(42), packets[0].Message.(protocol.Heartbeat).ClientTime)
}

func TestReapStaleClients(t *testing.T) {
	room := testRoom(t, "tdm")
	a := join(t, room, 1, "a")
	join(t, room, 2, "b")

	a.LastHeartbeat = time.Now().Add(-time.Minute)
	room.reapStale()

	assert.Nil(t, room.Clients.GetClientBySession(1))
	assert.Equal(t, modes.PhaseEnded, room.Engine.Phase())
}

func TestHostileInputStillSimulates(t *testing.T) {
	room := testRoom(t, "tdm")
	client := join(t, room, 1, "a")
	join(t, room, 2, "b")

	room.HandleMessage(1, protocol.InputOp, protocol.Input{
		Seq:   1,
		DT:    50,
		MoveX: 1e18,
		Yaw:   1e9,
	})
	room.runTick()

	// Hostile values are repaired, never crash the tick.
	assert.True(t, client.Movement.Position.IsFinite())
	assert.LessOrEqual(t, client.Movement.Position.X, movement.WorldExtent)
}

func TestStatistics(t *testing.T) {
	room := testRoom(t, "koth")
	join(t, room, 1, "a")
	join(t, room, 2, "b")
	room.runTick()

	stats := room.GetStatistics()
	assert.Equal(t, room.ID, stats.ID)
	assert.Equal(t, "koth", stats.Mode)
	assert.Equal(t, 2, stats.NumClients)
	assert.Equal(t, modes.PhaseActive, stats.Phase)
	assert.Equal(t, uint64(1), stats.Tick)
}

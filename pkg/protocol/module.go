// Package protocol defines the closed set of messages exchanged between
// client and server and the compact binary envelope they travel in.
package protocol

import (
	"github.com/google/uuid"

	"github.com/vantagefps/vantage/pkg/geom"
)

type MessageType uint8

const (
	// Client -> server
	JoinOp MessageType = iota
	InputOp
	FireOp
	ShopPurchaseOp
	EquipLoadoutOp
	HeartbeatOp
	// Server -> client
	JoinedOp
	SnapshotOp
	EventOp
	ReconcileOp
	ShopInventoryOp
	EconomyUpdateOp
	ErrorOp
)

func (t MessageType) String() string {
	switch t {
	case JoinOp:
		return "join"
	case InputOp:
		return "input"
	case FireOp:
		return "fire"
	case ShopPurchaseOp:
		return "shop_purchase"
	case EquipLoadoutOp:
		return "equip_loadout"
	case HeartbeatOp:
		return "heartbeat"
	case JoinedOp:
		return "joined"
	case SnapshotOp:
		return "snapshot"
	case EventOp:
		return "event"
	case ReconcileOp:
		return "reconcile"
	case ShopInventoryOp:
		return "shop_inventory"
	case EconomyUpdateOp:
		return "economy_update"
	case ErrorOp:
		return "error"
	}
	return "unknown"
}

// ClientSent reports whether this message type may legally originate from a
// client. Anything else arriving over the wire is a protocol error.
func (t MessageType) ClientSent() bool {
	return t <= HeartbeatOp
}

// Discrete input actions, packed into a single byte per tick.
const (
	ActionJump uint8 = 1 << iota
	ActionCrouch
	ActionSprint
	ActionAim
	ActionReload
	ActionSwitchWeapon
	ActionUse
	ActionMelee
)

// Join is the first message on any connection. The token is an opaque bearer
// credential resolved by the session store; its issuance is out of scope.
type Join struct {
	Token  string
	Region string
	Name   string
}

// Input carries one tick of movement intent. Sent at up to 60Hz.
type Input struct {
	Seq     uint32
	DT      float64
	MoveX   float64
	MoveZ   float64
	Yaw     float64
	Pitch   float64
	Actions uint8
	Weapon  uint8
	Ts      int64 // client clock, unix millis
}

// FireWeapon is the client's claim about the weapon it fired. Only the ID is
// trusted; spread and RPM are validated against the server-side table.
type FireWeapon struct {
	WeaponID uint8
	Spread   float64
	RPM      int
}

type Fire struct {
	Seq       uint32
	Weapon    FireWeapon
	Origin    geom.Vec
	Direction geom.Vec
	Ts        int64
}

type ShopPurchase struct {
	ItemID   string
	Currency string
	Price    int64
}

type EquipLoadout struct {
	Weapons   []uint8
	Equipment []string
}

type Heartbeat struct {
	ClientTime int64
}

type RoomConfig struct {
	Mode         string
	MapName      string
	TickRate     int
	SnapshotRate int
}

type Joined struct {
	PlayerID uuid.UUID
	RoomID   uuid.UUID
	Team     int
	Config   RoomConfig
}

// PlayerSnapshot is one player's visible state inside a Snapshot.
type PlayerSnapshot struct {
	PlayerID uuid.UUID
	Team     int
	Position geom.Vec
	Velocity geom.Vec
	Yaw      float64
	Pitch    float64
	Health   int
	Alive    bool
	Weapon   uint8
}

type ProjectileSnapshot struct {
	ID       uint32
	Kind     uint8
	Owner    uuid.UUID
	Position geom.Vec
	Velocity geom.Vec
}

type ObjectiveSnapshot struct {
	ID          int
	Position    geom.Vec
	Radius      float64
	Controlling int // team, -1 when neutral
	Contested   bool
}

// Snapshot is the periodic world-state broadcast. The recipient's own
// authoritative state is never in Players; it arrives via Reconcile instead.
type Snapshot struct {
	Tick        uint64
	Players     []PlayerSnapshot
	Projectiles []ProjectileSnapshot
	Objectives  []ObjectiveSnapshot
	AckSeq      uint32
}

type EventKind uint8

const (
	EventKill EventKind = iota
	EventDeath
	EventHit
	EventScore
	EventObjective
	EventMatchEnd
)

type Event struct {
	Kind   EventKind
	Actor  uuid.UUID
	Target uuid.UUID
	Value  int
	Detail string
}

// Reconcile acknowledges the client's last applied input sequence along with
// the authoritative state for it, so the client can replay anything newer.
type Reconcile struct {
	Tick     uint64
	AckSeq   uint32
	Position geom.Vec
	Velocity geom.Vec
	Health   int
	Alive    bool
}

type ShopItem struct {
	ItemID   string
	Currency string
	Price    int64
}

type ShopInventory struct {
	Items []ShopItem
}

type EconomyUpdate struct {
	Balances map[string]int64
	Owned    []string
}

type ErrorCode uint8

const (
	ErrMalformed ErrorCode = iota
	ErrUnauthorized
	ErrRoomFull
	ErrAlreadyQueued
	ErrAlreadyInRoom
	ErrPurchaseFailed
	ErrBanned
	ErrRateLimited
)

type Error struct {
	Code    ErrorCode
	Message string
}

package gameserver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	opt "github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"github.com/vantagefps/vantage/pkg/chanlock"
	"github.com/vantagefps/vantage/pkg/clock"
	"github.com/vantagefps/vantage/pkg/game/anticheat"
	"github.com/vantagefps/vantage/pkg/game/combat"
	"github.com/vantagefps/vantage/pkg/game/modes"
	"github.com/vantagefps/vantage/pkg/game/movement"
	"github.com/vantagefps/vantage/pkg/game/spawn"
	"github.com/vantagefps/vantage/pkg/game/weapon"
	"github.com/vantagefps/vantage/pkg/geom"
	"github.com/vantagefps/vantage/pkg/protocol"
	"github.com/vantagefps/vantage/pkg/state"
	"github.com/vantagefps/vantage/pkg/utils"
)

const (
	EyeHeight = 1.6

	defaultRespawnDelay = 3 * time.Second

	heartbeatTimeout = 5 * time.Second
	reapInterval     = 2 * time.Second

	explosionRadius = 5.0

	killReward = 100
)

var (
	hitboxMins = geom.Vec{X: -0.4, Y: 0, Z: -0.4}
	hitboxMaxs = geom.Vec{X: 0.4, Y: 1.8, Z: 0.4}
)

type Projectile struct {
	ID       uint32
	Kind     weapon.ID
	Owner    uuid.UUID
	Position geom.Vec
	Velocity geom.Vec
	Expires  time.Time
}

// MatchResult is published once when a match ends, so a supervisor can
// persist ratings and tear the room down.
type MatchResult struct {
	Room    uuid.UUID
	Winner  modes.Winner
	Winners []string
	Losers  []string
}

// Room owns one match: the roster, the simulation tick loop, and
// everything the clients are told about the world.
type Room struct {
	utils.Session

	*Config
	ID  uuid.UUID
	Log zerolog.Logger

	Clients  *ClientManager
	Engine   *modes.Engine
	Monitor  *anticheat.Monitor
	Finished *utils.Topic[MatchResult]

	resolver *combat.Resolver
	spawns   *spawn.Selector
	economy  *state.EconomyStore

	incoming chan RoomPacket
	outgoing chan RoomPacket

	mutex          deadlock.Mutex
	tick           uint64
	lastTick       time.Time
	projectiles    []*Projectile
	nextProjectile uint32
	published      bool
}

// The economy store is optional; without it the shop rejects every
// purchase and all weapons are free.
func New(ctx context.Context, conf *Config, economy *state.EconomyStore) (*Room, error) {
	mode := modes.Find(conf.Mode)
	if !opt.IsSome(mode) {
		return nil, fmt.Errorf("unknown mode %s", conf.Mode)
	}

	id := uuid.New()

	room := &Room{
		Session:  utils.NewSession(ctx),
		Config:   conf,
		ID:       id,
		Log:      log.With().Str("room", id.String()).Logger(),
		Clients:  NewClientManager(),
		Engine:   modes.NewEngine(mode.Value),
		Monitor:  anticheat.NewMonitor(anticheat.DefaultConfig()),
		Finished: utils.NewTopic[MatchResult](),
		resolver: combat.NewResolver(),
		spawns:   spawn.NewSelector(spawn.DefaultPoints()),
		economy:  economy,
		incoming: make(chan RoomPacket),
		outgoing: make(chan RoomPacket, 256),
		lastTick: time.Now(),
	}

	return room, nil
}

func (r *Room) Incoming() chan<- RoomPacket {
	return r.incoming
}

func (r *Room) Outgoing() <-chan RoomPacket {
	return r.outgoing
}

func (r *Room) Poll(ctx context.Context) {
	chanLock := chanlock.New(r.Log)
	health := chanLock.Poll(r.Ctx())

	ticker := time.NewTicker(r.TickInterval())
	defer ticker.Stop()

	reaper := time.NewTicker(reapInterval)
	defer reaper.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.Ctx().Done():
			return
		case <-health:
			continue
		case msg := <-r.incoming:
			r.HandleMessage(msg.Session, msg.Type, msg.Message)
		case <-ticker.C:
			r.runTick()
		case <-reaper.C:
			r.reapStale()
		}
	}
}

// Join adds a player to the roster on the team with the fewest members.
// The match starts automatically once the minimum roster is present.
func (r *Room) Join(session uint32, player uuid.UUID, name string, rating int) (*Client, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.joinLocked(session, player, name, rating, r.pickTeam())
}

// JoinTeam is Join with the team decided by the caller, e.g. a
// matchmaker that balanced the roster ahead of time.
func (r *Room) JoinTeam(session uint32, player uuid.UUID, name string, rating int, team int) (*Client, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if teams := r.Engine.Config().TeamCount; teams == 0 {
		team = modes.NoTeam
	} else if team < 0 || team >= teams {
		team = r.pickTeam()
	}
	return r.joinLocked(session, player, name, rating, team)
}

func (r *Room) joinLocked(session uint32, player uuid.UUID, name string, rating int, team int) (*Client, error) {
	if r.Monitor.IsBanned(player) {
		return nil, fmt.Errorf("player is banned")
	}
	if r.Clients.GetNumClients() >= r.MaxClients {
		return nil, fmt.Errorf("room is full")
	}
	if existing := r.Clients.GetClientByID(player); existing != nil {
		return nil, fmt.Errorf("player already in room")
	}

	client := &Client{
		ID:            player,
		Session:       session,
		Name:          name,
		Team:          team,
		Rating:        rating,
		Weapon:        weapon.Pistol,
		History:       combat.NewHistory(combat.HistoryWindow.Milliseconds()),
		LastHeartbeat: time.Now(),
		server:        r,
	}

	r.Clients.add(client)
	r.Monitor.AddPlayer(player)
	r.Engine.AddPlayer(player)
	r.respawnLocked(client)

	client.Send(protocol.JoinedOp, protocol.Joined{
		PlayerID: player,
		RoomID:   r.ID,
		Team:     client.Team,
		Config: protocol.RoomConfig{
			Mode:         r.Mode,
			MapName:      r.Map,
			TickRate:     r.TickRate,
			SnapshotRate: r.SnapshotRate,
		},
	})

	if r.economy != nil {
		client.Send(protocol.ShopInventoryOp, protocol.ShopInventory{Items: Catalog()})
	}

	r.Log.Info().Str("player", client.String()).Msg("client joined")

	if r.Engine.Phase() == modes.PhaseWaiting && r.Clients.GetNumClients() >= r.MinClients {
		r.Engine.Start()
		r.lastTick = time.Now()
		r.Log.Info().Msg("match started")
	}

	return client, nil
}

// Leave removes a player. Calling it for an unknown session is a no-op,
// so disconnect paths need not coordinate. Falling below the minimum
// roster mid-match abandons the match.
func (r *Room) Leave(session uint32, reason string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.leaveLocked(session, reason)
}

func (r *Room) leaveLocked(session uint32, reason string) {
	client := r.Clients.GetClientBySession(session)
	if client == nil {
		return
	}

	r.Clients.remove(session)
	r.Monitor.RemovePlayer(client.ID)
	r.Engine.RemovePlayer(client.ID)

	r.Log.Info().Str("player", client.String()).Str("reason", reason).Msg("client left")

	if r.Engine.Phase() == modes.PhaseActive && r.Clients.GetNumClients() < r.MinClients {
		winner := r.Engine.ForceEnd()
		r.finishLocked(winner)
	}
}

func (r *Room) pickTeam() int {
	teams := r.Engine.Config().TeamCount
	if teams == 0 {
		return modes.NoTeam
	}

	counts := make([]int, teams)
	for _, client := range r.Clients.GetClients() {
		if client.Team >= 0 && client.Team < teams {
			counts[client.Team]++
		}
	}

	best := 0
	for team, count := range counts {
		if count < counts[best] {
			best = team
		}
	}
	return best
}

func (r *Room) enemyPositions(of *Client) []geom.Vec {
	var positions []geom.Vec
	for _, other := range r.Clients.GetClients() {
		if other == of || !other.Alive {
			continue
		}
		if of.Team != modes.NoTeam && other.Team == of.Team {
			continue
		}
		positions = append(positions, other.Movement.Position)
	}
	return positions
}

func (r *Room) respawnLocked(client *Client) {
	point := r.spawns.Pick(r.enemyPositions(client))

	client.Health = 100
	client.Alive = true
	client.Movement = movement.State{
		Position: point.Position,
		Yaw:      point.Yaw,
		Grounded: true,
		LastSeq:  client.Movement.LastSeq,
	}
	client.pending = client.pending[:0]

	r.Monitor.ResetPosition(client.ID, point.Position)
	client.History.Add(r.sampleOf(client, time.Now().UnixMilli()))
}

func (r *Room) sampleOf(client *Client, now int64) combat.TransformSample {
	return combat.TransformSample{
		Time:     now,
		Position: client.Movement.Position,
		Yaw:      client.Movement.Yaw,
		Mins:     hitboxMins,
		Maxs:     hitboxMaxs,
	}
}

func (r *Room) HandleMessage(session uint32, t protocol.MessageType, message interface{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	client := r.Clients.GetClientBySession(session)
	if client == nil {
		return
	}

	if r.Monitor.IsBanned(client.ID) {
		client.Send(protocol.ErrorOp, protocol.Error{
			Code:    protocol.ErrBanned,
			Message: "banned",
		})
		return
	}

	switch t {
	case protocol.InputOp:
		if msg, ok := message.(protocol.Input); ok {
			client.queueInput(msg)
		}
	case protocol.FireOp:
		if msg, ok := message.(protocol.Fire); ok {
			r.handleFire(client, msg)
		}
	case protocol.ShopPurchaseOp:
		if msg, ok := message.(protocol.ShopPurchase); ok {
			r.handlePurchase(client, msg)
		}
	case protocol.EquipLoadoutOp:
		if msg, ok := message.(protocol.EquipLoadout); ok {
			r.handleLoadout(client, msg)
		}
	case protocol.HeartbeatOp:
		client.LastHeartbeat = time.Now()
		if msg, ok := message.(protocol.Heartbeat); ok {
			client.Send(protocol.HeartbeatOp, msg)
		}
	case protocol.JoinOp:
		client.Send(protocol.ErrorOp, protocol.Error{
			Code:    protocol.ErrAlreadyInRoom,
			Message: "already in a room",
		})
	default:
		client.Send(protocol.ErrorOp, protocol.Error{
			Code:    protocol.ErrMalformed,
			Message: fmt.Sprintf("unexpected message %s", t),
		})
	}
}

func (r *Room) eyeOf(client *Client) geom.Vec {
	origin := client.Movement.Position
	origin.Y += EyeHeight
	return origin
}

func (r *Room) handleFire(client *Client, msg protocol.Fire) {
	if !client.Alive || r.Engine.Phase() != modes.PhaseActive {
		return
	}

	id := weapon.ID(msg.Weapon.WeaponID)
	if !weapon.Exists(id) {
		client.Send(protocol.ErrorOp, protocol.Error{
			Code:    protocol.ErrMalformed,
			Message: "unknown weapon",
		})
		return
	}
	wpn := weapon.ByID(id)

	now := time.Now()
	if verdict := r.Monitor.ValidateFire(client.ID, wpn, now); verdict.Ban {
		r.banLocked(client)
		return
	}

	// The client's claimed origin is ignored; shots always leave the
	// server's idea of the eye.
	origin := r.eyeOf(client)
	direction := msg.Direction.Normalize()

	if wpn.Projectile {
		elapsed := now.Sub(client.LastFire)
		if !client.LastFire.IsZero() && elapsed < wpn.MinInterval() {
			return
		}
		client.LastFire = now

		r.nextProjectile++
		r.projectiles = append(r.projectiles, &Projectile{
			ID:       r.nextProjectile,
			Kind:     id,
			Owner:    client.ID,
			Position: origin,
			Velocity: direction.Mul(wpn.MuzzleSpeed),
			Expires:  now.Add(wpn.TimeToLive),
		})
		return
	}

	var targets []combat.Target
	for _, other := range r.Clients.GetClients() {
		if other == client || !other.Alive {
			continue
		}
		targets = append(targets, combat.Target{ID: other.ID, History: other.History})
	}

	result := r.resolver.ResolveFire(combat.FireRequest{
		Shooter:    client.ID,
		Origin:     origin,
		Direction:  direction,
		Weapon:     wpn,
		LastFire:   client.LastFire,
		ClientTime: msg.Ts,
		ServerTime: now.UnixMilli(),
	}, targets)

	if result.Reason == combat.ReasonFireRate {
		return
	}
	client.LastFire = now

	if !result.Hit() {
		return
	}

	victim := r.Clients.GetClientByID(result.Target)
	if victim == nil {
		return
	}

	r.applyDamage(client, victim, result.Damage)
}

func (r *Room) applyDamage(attacker *Client, victim *Client, damage float64) {
	if !victim.Alive {
		return
	}

	victim.Health -= int(damage)
	r.Engine.RecordDamage(attacker.ID, damage)

	r.broadcast(protocol.EventOp, protocol.Event{
		Kind:   protocol.EventHit,
		Actor:  attacker.ID,
		Target: victim.ID,
		Value:  int(damage),
	})

	if victim.Health > 0 {
		return
	}

	victim.Health = 0
	victim.Alive = false
	r.Engine.RegisterKill(attacker.ID, victim.ID, attacker.Team, victim.Team, damage)

	r.broadcast(protocol.EventOp, protocol.Event{
		Kind:   protocol.EventKill,
		Actor:  attacker.ID,
		Target: victim.ID,
	})

	if r.economy != nil && attacker != victim &&
		(attacker.Team == modes.NoTeam || attacker.Team != victim.Team) {
		if err := r.economy.Award(attacker.ID.String(), killReward); err != nil {
			r.Log.Warn().Err(err).Msg("failed to award kill credits")
		}
	}

	session := victim.Session
	clock.AfterFunc(r.respawnDelay(), func() {
		r.mutex.Lock()
		defer r.mutex.Unlock()

		client := r.Clients.GetClientBySession(session)
		if client == nil || r.Engine.Phase() != modes.PhaseActive {
			return
		}
		r.respawnLocked(client)
	}).Start()

	if winner, done := r.Engine.CheckWinCondition(); done {
		r.finishLocked(winner)
	}
}

func (r *Room) handlePurchase(client *Client, msg protocol.ShopPurchase) {
	fail := func(reason string) {
		client.Send(protocol.ErrorOp, protocol.Error{
			Code:    protocol.ErrPurchaseFailed,
			Message: reason,
		})
	}

	if r.economy == nil {
		fail("shop is unavailable")
		return
	}

	price, exists := catalogPrice(msg.ItemID)
	if !exists {
		fail("no such item")
		return
	}

	player := client.ID.String()
	if err := r.economy.Spend(player, uint(price)); err != nil {
		fail(err.Error())
		return
	}
	if err := r.economy.AddToInventory(player, msg.ItemID); err != nil {
		// Refund; the item was never granted.
		r.economy.Award(player, uint(price))
		fail(err.Error())
		return
	}

	r.sendEconomy(client)
}

func (r *Room) sendEconomy(client *Client) {
	player := client.ID.String()

	credits, err := r.economy.Credits(player)
	if err != nil {
		r.Log.Warn().Err(err).Msg("failed to read balance")
		return
	}
	owned, err := r.economy.Inventory(player)
	if err != nil {
		r.Log.Warn().Err(err).Msg("failed to read inventory")
		return
	}

	client.Send(protocol.EconomyUpdateOp, protocol.EconomyUpdate{
		Balances: map[string]int64{CurrencyCredits: int64(credits)},
		Owned:    owned,
	})
}

func (r *Room) handleLoadout(client *Client, msg protocol.EquipLoadout) {
	if len(msg.Weapons) == 0 {
		return
	}

	var inventory []string
	if r.economy != nil {
		owned, err := r.economy.Inventory(client.ID.String())
		if err == nil {
			inventory = owned
		}
	}

	for _, raw := range msg.Weapons {
		id := weapon.ID(raw)
		if !weapon.Exists(id) {
			client.Send(protocol.ErrorOp, protocol.Error{
				Code:    protocol.ErrMalformed,
				Message: "unknown weapon in loadout",
			})
			return
		}
		if r.economy != nil && !ownedWeapon(weapon.ByID(id), inventory) {
			client.Send(protocol.ErrorOp, protocol.Error{
				Code:    protocol.ErrPurchaseFailed,
				Message: "weapon not owned",
			})
			return
		}
	}

	client.Weapon = weapon.ID(msg.Weapons[0])
}

func (r *Room) banLocked(client *Client) {
	r.Log.Warn().Str("player", client.String()).Msg("client banned")
	client.Send(protocol.ErrorOp, protocol.Error{
		Code:    protocol.ErrBanned,
		Message: "banned",
	})
	r.leaveLocked(client.Session, "banned")
}

func (r *Room) runTick() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	dt := now.Sub(r.lastTick).Seconds()
	r.lastTick = now
	r.tick++

	if r.Engine.Phase() != modes.PhaseActive {
		return
	}

	nowMillis := now.UnixMilli()
	for _, client := range r.Clients.GetClients() {
		r.applyInputs(client)
		if client.Alive {
			client.History.Add(r.sampleOf(client, nowMillis))
		}
	}

	r.advanceProjectiles(now, dt)

	var presences []modes.Presence
	for _, client := range r.Clients.GetClients() {
		if !client.Alive {
			continue
		}
		presences = append(presences, modes.Presence{
			Player:   client.ID,
			Team:     client.Team,
			Position: client.Movement.Position,
		})
	}
	r.Engine.UpdateObjectives(dt, presences)

	if winner, done := r.Engine.CheckWinCondition(); done {
		r.finishLocked(winner)
		return
	}

	if r.tick%r.SnapshotEvery() == 0 {
		r.broadcastSnapshot()
	}
}

// applyInputs drains a client's buffered inputs in order, validating
// each against the anti-cheat monitor before it takes effect. Dead
// players' inputs are acknowledged but never applied.
func (r *Room) applyInputs(client *Client) {
	inputs := client.pending
	client.pending = client.pending[:0]

	for _, in := range inputs {
		if verdict := r.Monitor.ValidateSequence(client.ID, in.Seq); !verdict.Valid {
			if verdict.Ban {
				r.banLocked(client)
				return
			}
			continue
		}

		client.ackSeq = in.Seq
		if !client.Alive {
			continue
		}

		next := movement.Apply(client.Movement, movement.Input{
			MoveX:   in.MoveX,
			MoveZ:   in.MoveZ,
			Yaw:     in.Yaw,
			Pitch:   in.Pitch,
			Actions: in.Actions,
			DT:      in.DT,
		})
		next.LastSeq = in.Seq
		next.LastUpdate = in.Ts

		dt := movement.Normalize(movement.Input{DT: in.DT}).DT

		if verdict := r.Monitor.ValidateMovement(client.ID, next.Position, dt); !verdict.Valid {
			if verdict.Ban {
				r.banLocked(client)
				return
			}
			// Snap back to the last accepted state.
			r.Monitor.ResetPosition(client.ID, client.Movement.Position)
			continue
		}

		if verdict := r.Monitor.ValidateAim(client.ID, next.Yaw, next.Pitch, dt); !verdict.Valid {
			if verdict.Ban {
				r.banLocked(client)
				return
			}
			continue
		}

		client.Movement = next

		if id := weapon.ID(in.Weapon); id != client.Weapon && weapon.Exists(id) && r.weaponAllowed(client, id) {
			client.Weapon = id
		}
	}
}

// weaponAllowed mirrors the loadout ownership gate for weapon switches
// carried inside inputs.
func (r *Room) weaponAllowed(client *Client, id weapon.ID) bool {
	if r.economy == nil {
		return true
	}
	owned, err := r.economy.Inventory(client.ID.String())
	if err != nil {
		owned = nil
	}
	return ownedWeapon(weapon.ByID(id), owned)
}

func (r *Room) advanceProjectiles(now time.Time, dt float64) {
	alive := r.projectiles[:0]
	for _, p := range r.projectiles {
		p.Velocity.Y -= movement.Gravity * dt
		p.Position = p.Position.Add(p.Velocity.Mul(dt))

		if p.Position.Y <= movement.GroundLevel || now.After(p.Expires) {
			r.explode(p)
			continue
		}
		alive = append(alive, p)
	}
	r.projectiles = alive
}

func (r *Room) explode(p *Projectile) {
	owner := r.Clients.GetClientByID(p.Owner)
	if owner == nil {
		return
	}

	wpn := weapon.ByID(p.Kind)
	for _, victim := range r.Clients.GetClients() {
		if !victim.Alive {
			continue
		}
		distance := geom.Distance(victim.Movement.Position, p.Position)
		if distance > explosionRadius {
			continue
		}
		damage := wpn.Damage * (1 - distance/explosionRadius)
		if damage <= 0 {
			continue
		}
		r.applyDamage(owner, victim, damage)
	}
}

func (r *Room) broadcast(t protocol.MessageType, message interface{}) {
	for _, client := range r.Clients.GetClients() {
		client.Send(t, message)
	}
}

// broadcastSnapshot sends each client the world minus themselves, plus a
// reconcile record carrying their own authoritative state.
func (r *Room) broadcastSnapshot() {
	players := make([]protocol.PlayerSnapshot, 0, r.Clients.GetNumClients())
	for _, client := range r.Clients.GetClients() {
		players = append(players, client.snapshot())
	}

	projectiles := make([]protocol.ProjectileSnapshot, 0, len(r.projectiles))
	for _, p := range r.projectiles {
		projectiles = append(projectiles, protocol.ProjectileSnapshot{
			ID:       p.ID,
			Kind:     uint8(p.Kind),
			Owner:    p.Owner,
			Position: p.Position,
			Velocity: p.Velocity,
		})
	}

	var objectives []protocol.ObjectiveSnapshot
	for _, o := range r.Engine.Objectives() {
		objectives = append(objectives, protocol.ObjectiveSnapshot{
			ID:          o.ID,
			Position:    o.Position,
			Radius:      o.Radius,
			Controlling: o.Controlling,
			Contested:   o.Contested,
		})
	}

	for _, client := range r.Clients.GetClients() {
		visible := make([]protocol.PlayerSnapshot, 0, len(players)-1)
		for _, player := range players {
			if player.PlayerID == client.ID {
				continue
			}
			visible = append(visible, player)
		}

		client.Send(protocol.SnapshotOp, protocol.Snapshot{
			Tick:        r.tick,
			Players:     visible,
			Projectiles: projectiles,
			Objectives:  objectives,
			AckSeq:      client.ackSeq,
		})

		client.Send(protocol.ReconcileOp, protocol.Reconcile{
			Tick:     r.tick,
			AckSeq:   client.ackSeq,
			Position: client.Movement.Position,
			Velocity: client.Movement.Velocity,
			Health:   client.Health,
			Alive:    client.Alive,
		})
	}
}

func (r *Room) reapStale() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	for _, client := range r.Clients.GetClients() {
		if now.Sub(client.LastHeartbeat) > heartbeatTimeout {
			r.leaveLocked(client.Session, "heartbeat timeout")
			continue
		}
		if client.dropped > maxDroppedPackets {
			r.leaveLocked(client.Session, "too slow")
		}
	}
}

func (r *Room) finishLocked(winner modes.Winner) {
	if r.published {
		return
	}
	r.published = true

	r.broadcast(protocol.EventOp, protocol.Event{
		Kind:   protocol.EventMatchEnd,
		Actor:  winner.Player,
		Value:  winner.Team,
		Detail: winner.Reason,
	})

	result := MatchResult{
		Room:   r.ID,
		Winner: winner,
	}
	if !winner.Draw {
		for _, client := range r.Clients.GetClients() {
			won := false
			if winner.Team != modes.NoTeam {
				won = client.Team == winner.Team
			} else {
				won = client.ID == winner.Player
			}
			if won {
				result.Winners = append(result.Winners, client.ID.String())
			} else {
				result.Losers = append(result.Losers, client.ID.String())
			}
		}
	}

	r.Log.Info().
		Int("team", winner.Team).
		Bool("draw", winner.Draw).
		Str("reason", winner.Reason).
		Msg("match finished")

	r.Finished.Publish(result)
	r.Cancel()
}

type RoomStatistics struct {
	ID         uuid.UUID
	Mode       string
	Map        string
	Phase      modes.Phase
	NumClients int
	Tick       uint64
	Started    time.Time
}

func (r *Room) GetStatistics() RoomStatistics {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return RoomStatistics{
		ID:         r.ID,
		Mode:       r.Mode,
		Map:        r.Map,
		Phase:      r.Engine.Phase(),
		NumClients: r.Clients.GetNumClients(),
		Tick:       r.tick,
		Started:    r.Started(),
	}
}

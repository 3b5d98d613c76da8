// Package ingress accepts client connections over WebSocket and ENet,
// authenticates them, and routes their messages between the matchmaking
// queue and their current room.
package ingress

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"github.com/vantagefps/vantage/pkg/chanlock"
	"github.com/vantagefps/vantage/pkg/gameserver"
	"github.com/vantagefps/vantage/pkg/lobby"
	"github.com/vantagefps/vantage/pkg/protocol"
	"github.com/vantagefps/vantage/pkg/state"
	"github.com/vantagefps/vantage/pkg/utils"
)

type NetworkStatus uint8

const (
	NetworkStatusConnected NetworkStatus = iota
	NetworkStatusDisconnected
)

// Connection abstracts one client link regardless of transport.
type Connection interface {
	Session() uint32
	Host() string
	Send(t protocol.MessageType, message interface{}) error
	NetworkStatus() NetworkStatus
	Disconnect(reason string)
}

type user struct {
	conn   Connection
	player uuid.UUID
	name   string
	rating int
	room   *gameserver.Room
}

// Gateway owns the connection registry. Everything a client sends
// before joining a room goes through here; once they are in a room the
// gateway forwards their traffic and pumps the room's outgoing packets
// back to the right connections.
type Gateway struct {
	utils.Session

	stateService *state.StateService
	matchmaker   *lobby.Matchmaker

	mutex       deadlock.Mutex
	users       map[uint32]*user
	pumped      map[*gameserver.Room]bool
	nextSession uint32
}

func NewGateway(ctx context.Context, stateService *state.StateService, matchmaker *lobby.Matchmaker) *Gateway {
	return &Gateway{
		Session:      utils.NewSession(ctx),
		stateService: stateService,
		matchmaker:   matchmaker,
		users:        make(map[uint32]*user),
		pumped:       make(map[*gameserver.Room]bool),
	}
}

func (g *Gateway) NewSessionID() uint32 {
	return atomic.AddUint32(&g.nextSession, 1)
}

func (g *Gateway) Connect(conn Connection) {
	g.mutex.Lock()
	g.users[conn.Session()] = &user{conn: conn}
	g.mutex.Unlock()

	log.Info().Uint32("session", conn.Session()).Str("host", conn.Host()).Msg("client connected")
}

func (g *Gateway) Disconnect(conn Connection) {
	g.mutex.Lock()
	u, exists := g.users[conn.Session()]
	delete(g.users, conn.Session())
	var (
		player uuid.UUID
		room   *gameserver.Room
	)
	if exists {
		player = u.player
		room = u.room
	}
	g.mutex.Unlock()

	if !exists {
		return
	}

	if player != uuid.Nil {
		g.matchmaker.Dequeue(player)
	}
	if room != nil {
		room.Leave(conn.Session(), "disconnected")
	}

	log.Info().Uint32("session", conn.Session()).Msg("client disconnected")
}

func (g *Gateway) NumClients() int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return len(g.users)
}

func sendError(conn Connection, code protocol.ErrorCode, message string) {
	conn.Send(protocol.ErrorOp, protocol.Error{Code: code, Message: message})
}

// HandleMessage processes one decoded envelope from a connection. A
// malformed or out-of-place message answers with an ERROR; it never
// takes the server down.
func (g *Gateway) HandleMessage(conn Connection, env *protocol.Envelope) {
	if !env.Type.ClientSent() {
		sendError(conn, protocol.ErrMalformed, "server-only message type")
		return
	}

	message, err := decodePayload(env)
	if err != nil {
		sendError(conn, protocol.ErrMalformed, "malformed payload")
		return
	}

	// The room pointer is written by placeMatch and pumpRoom on other
	// goroutines, so take a copy under the lock.
	g.mutex.Lock()
	u, exists := g.users[conn.Session()]
	var (
		player uuid.UUID
		room   *gameserver.Room
	)
	if exists {
		player = u.player
		room = u.room
	}
	g.mutex.Unlock()
	if !exists {
		return
	}

	if env.Type == protocol.JoinOp {
		g.handleJoin(conn, u, message.(protocol.Join))
		return
	}

	if player == uuid.Nil {
		sendError(conn, protocol.ErrUnauthorized, "join first")
		return
	}

	if room == nil {
		// Only a heartbeat makes sense while queued.
		if env.Type == protocol.HeartbeatOp {
			conn.Send(protocol.HeartbeatOp, message)
		}
		return
	}

	select {
	case room.Incoming() <- gameserver.RoomPacket{
		Session: conn.Session(),
		Type:    env.Type,
		Message: message,
	}:
	case <-room.Ctx().Done():
	}
}

func (g *Gateway) handleJoin(conn Connection, u *user, join protocol.Join) {
	g.mutex.Lock()
	player, room := u.player, u.room
	g.mutex.Unlock()

	if room != nil {
		sendError(conn, protocol.ErrAlreadyInRoom, "already in a room")
		return
	}
	if player != uuid.Nil {
		sendError(conn, protocol.ErrAlreadyQueued, "already queued")
		return
	}

	ctx, cancel := context.WithTimeout(g.Ctx(), 5*time.Second)
	defer cancel()

	player, err := g.stateService.ResolvePlayerForToken(ctx, join.Token)
	if err != nil {
		sendError(conn, protocol.ErrUnauthorized, "could not resolve session")
		return
	}
	id, err := uuid.Parse(player)
	if err != nil {
		sendError(conn, protocol.ErrUnauthorized, "invalid player identity")
		return
	}

	rating, err := g.stateService.GetRating(ctx, player)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load rating, using default")
	}

	err = g.matchmaker.Queue(&lobby.Ticket{
		PlayerID: id,
		Session:  conn.Session(),
		Name:     join.Name,
		Region:   join.Region,
		Rating:   rating,
	})
	if err != nil {
		sendError(conn, protocol.ErrAlreadyQueued, err.Error())
		return
	}

	g.mutex.Lock()
	u.player = id
	u.name = join.Name
	u.rating = rating
	g.mutex.Unlock()
}

// Poll consumes match announcements, joining each of this gateway's
// connected players onto their assigned team.
func (g *Gateway) Poll(ctx context.Context) {
	chanLock := chanlock.New(log.With().Str("actor", "gateway").Logger())
	health := chanLock.Poll(g.Ctx())

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.Ctx().Done():
			return
		case <-health:
			continue
		case match := <-g.matchmaker.ReceiveMatches():
			g.placeMatch(ctx, match)
		}
	}
}

func (g *Gateway) placeMatch(ctx context.Context, match *lobby.Match) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if !g.pumped[match.Room] {
		g.pumped[match.Room] = true
		go g.pumpRoom(ctx, match.Room)
	}

	for _, ticket := range match.Tickets {
		u, exists := g.users[ticket.Session]
		if !exists || u.player != ticket.PlayerID {
			continue
		}

		team := match.Teams[ticket.PlayerID]
		_, err := match.Room.JoinTeam(ticket.Session, ticket.PlayerID, ticket.Name, ticket.Rating, team)
		if err != nil {
			sendError(u.conn, protocol.ErrRoomFull, err.Error())
			continue
		}
		u.room = match.Room
	}
}

// pumpRoom forwards a room's outgoing packets to the owning
// connections until the room shuts down.
func (g *Gateway) pumpRoom(ctx context.Context, room *gameserver.Room) {
	defer func() {
		g.mutex.Lock()
		delete(g.pumped, room)
		for _, u := range g.users {
			if u.room == room {
				u.room = nil
			}
		}
		g.mutex.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-room.Ctx().Done():
			// The match-end broadcast is published just before the room
			// cancels itself; flush whatever is still buffered.
			for {
				select {
				case packet := <-room.Outgoing():
					g.deliver(packet)
				default:
					return
				}
			}
		case packet := <-room.Outgoing():
			g.deliver(packet)
		}
	}
}

func (g *Gateway) deliver(packet gameserver.RoomPacket) {
	g.mutex.Lock()
	u, exists := g.users[packet.Session]
	g.mutex.Unlock()
	if !exists {
		return
	}
	if err := u.conn.Send(packet.Type, packet.Message); err != nil {
		u.conn.Disconnect("write failed")
	}
}

func decodePayload(env *protocol.Envelope) (interface{}, error) {
	switch env.Type {
	case protocol.JoinOp:
		var m protocol.Join
		err := env.Unmarshal(&m)
		return m, err
	case protocol.InputOp:
		var m protocol.Input
		err := env.Unmarshal(&m)
		return m, err
	case protocol.FireOp:
		var m protocol.Fire
		err := env.Unmarshal(&m)
		return m, err
	case protocol.ShopPurchaseOp:
		var m protocol.ShopPurchase
		err := env.Unmarshal(&m)
		return m, err
	case protocol.EquipLoadoutOp:
		var m protocol.EquipLoadout
		err := env.Unmarshal(&m)
		return m, err
	default:
		var m protocol.Heartbeat
		err := env.Unmarshal(&m)
		return m, err
	}
}

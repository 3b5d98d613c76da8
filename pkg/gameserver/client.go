package gameserver

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vantagefps/vantage/pkg/game/combat"
	"github.com/vantagefps/vantage/pkg/game/movement"
	"github.com/vantagefps/vantage/pkg/game/weapon"
	"github.com/vantagefps/vantage/pkg/protocol"
)

type RoomPacket struct {
	// Either the sender (if incoming) or the recipient (if outgoing).
	Session uint32
	Type    protocol.MessageType
	Message interface{}
}

type Incoming <-chan RoomPacket
type Outgoing chan<- RoomPacket

const (
	// Inputs buffered between ticks; anything beyond this is dropped.
	pendingInputCap = 64
	// Outgoing packets dropped before the client is considered too slow.
	maxDroppedPackets = 128
)

// Describes one connected player.
type Client struct {
	ID      uuid.UUID
	Session uint32
	Name    string
	Team    int
	Rating  int

	Health int
	Alive  bool
	Weapon weapon.ID

	Movement movement.State
	History  *combat.History

	LastFire      time.Time
	LastHeartbeat time.Time

	pending []protocol.Input
	ackSeq  uint32
	dropped int

	server *Room
}

func (c *Client) String() string {
	return fmt.Sprintf("%s (%s:%d)", c.Name, c.ID, c.Session)
}

// Send queues a message for this client. It never blocks; when the
// outgoing buffer is full the packet is dropped and counted against
// the client.
func (c *Client) Send(t protocol.MessageType, message interface{}) {
	select {
	case c.server.outgoing <- RoomPacket{
		Session: c.Session,
		Type:    t,
		Message: message,
	}:
	default:
		c.dropped++
	}
}

func (c *Client) queueInput(in protocol.Input) {
	if len(c.pending) >= pendingInputCap {
		return
	}
	c.pending = append(c.pending, in)
}

func (c *Client) snapshot() protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		PlayerID: c.ID,
		Team:     c.Team,
		Position: c.Movement.Position,
		Velocity: c.Movement.Velocity,
		Yaw:      c.Movement.Yaw,
		Pitch:    c.Movement.Pitch,
		Health:   c.Health,
		Alive:    c.Alive,
		Weapon:   uint8(c.Weapon),
	}
}

type ClientManager struct {
	clients map[uint32]*Client
}

func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*Client),
	}
}

func (c *ClientManager) GetClientBySession(session uint32) *Client {
	return c.clients[session]
}

func (c *ClientManager) GetClientByID(id uuid.UUID) *Client {
	for _, client := range c.clients {
		if client.ID == id {
			return client
		}
	}
	return nil
}

func (c *ClientManager) GetClients() []*Client {
	clients := make([]*Client, 0, len(c.clients))
	for _, client := range c.clients {
		clients = append(clients, client)
	}
	return clients
}

func (c *ClientManager) GetNumClients() int {
	return len(c.clients)
}

func (c *ClientManager) add(client *Client) {
	c.clients[client.Session] = client
}

func (c *ClientManager) remove(session uint32) {
	delete(c.clients, session)
}

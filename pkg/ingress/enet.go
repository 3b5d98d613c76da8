package ingress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/codecat/go-enet"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"

	"github.com/vantagefps/vantage/pkg/protocol"
)

const enetServiceTimeout = 10 * time.Millisecond

type ENetConnection struct {
	session uint32
	peer    enet.Peer
	status  atomic.Uint32
}

func (c *ENetConnection) Session() uint32 {
	return c.session
}

func (c *ENetConnection) Host() string {
	return fmt.Sprintf("%v", c.peer.GetAddress())
}

func (c *ENetConnection) NetworkStatus() NetworkStatus {
	return NetworkStatus(c.status.Load())
}

func (c *ENetConnection) Send(t protocol.MessageType, message interface{}) error {
	if c.NetworkStatus() == NetworkStatusDisconnected {
		return fmt.Errorf("peer disconnected")
	}

	data, err := protocol.Encode(t, time.Now().UnixMilli(), message)
	if err != nil {
		return err
	}

	// Snapshots are superseded by the next tick anyway; everything
	// else must arrive.
	flags := enet.PacketFlagReliable
	if t == protocol.SnapshotOp {
		flags = enet.PacketFlagUnsequenced
	}

	packet, err := enet.NewPacket(data, flags)
	if err != nil {
		return err
	}
	return c.peer.SendPacket(packet, 0)
}

func (c *ENetConnection) Disconnect(reason string) {
	if c.status.CompareAndSwap(uint32(NetworkStatusConnected), uint32(NetworkStatusDisconnected)) {
		c.peer.Disconnect(0)
	}
}

// ENetIngress serves the desktop client over UDP. ENet requires a
// single service loop; connections are tracked per peer.
type ENetIngress struct {
	gateway *Gateway
	port    uint16
	host    enet.Host

	mutex deadlock.Mutex
	peers map[enet.Peer]*ENetConnection
}

func NewENetIngress(gateway *Gateway, port int) *ENetIngress {
	return &ENetIngress{
		gateway: gateway,
		port:    uint16(port),
		peers:   make(map[enet.Peer]*ENetConnection),
	}
}

func (server *ENetIngress) Start() error {
	address := enet.NewListenAddress(server.port)

	host, err := enet.NewHost(address, 64, 1, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to create enet host: %w", err)
	}
	if err := host.CompressWithRangeCoder(); err != nil {
		return fmt.Errorf("failed to enable compression: %w", err)
	}

	server.host = host
	log.Info().Uint16("port", server.port).Msg("enet ingress listening")
	return nil
}

func (server *ENetIngress) Poll(ctx context.Context) {
	defer server.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		event := server.host.Service(uint32(enetServiceTimeout.Milliseconds()))
		if event == nil {
			continue
		}

		switch event.GetType() {
		case enet.EventConnect:
			server.handleConnect(event.GetPeer())
		case enet.EventDisconnect:
			server.handleDisconnect(event.GetPeer())
		case enet.EventReceive:
			packet := event.GetPacket()
			if packet == nil {
				continue
			}
			data := packet.GetData()
			packet.Destroy()
			server.handleReceive(event.GetPeer(), data)
		}
	}
}

func (server *ENetIngress) Stop() {
	if server.host != nil {
		server.host.Destroy()
		server.host = nil
	}
}

func (server *ENetIngress) handleConnect(peer enet.Peer) {
	conn := &ENetConnection{
		session: server.gateway.NewSessionID(),
		peer:    peer,
	}

	server.mutex.Lock()
	server.peers[peer] = conn
	server.mutex.Unlock()

	server.gateway.Connect(conn)
}

func (server *ENetIngress) handleDisconnect(peer enet.Peer) {
	server.mutex.Lock()
	conn, exists := server.peers[peer]
	delete(server.peers, peer)
	server.mutex.Unlock()

	if !exists {
		return
	}

	conn.status.Store(uint32(NetworkStatusDisconnected))
	server.gateway.Disconnect(conn)
}

func (server *ENetIngress) handleReceive(peer enet.Peer, data []byte) {
	server.mutex.Lock()
	conn, exists := server.peers[peer]
	server.mutex.Unlock()

	if !exists {
		return
	}

	env, err := protocol.Decode(data)
	if err != nil {
		conn.Send(protocol.ErrorOp, protocol.Error{
			Code:    protocol.ErrMalformed,
			Message: "bad envelope",
		})
		return
	}

	server.gateway.HandleMessage(conn, env)
}

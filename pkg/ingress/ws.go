package ingress

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"github.com/vantagefps/vantage/pkg/protocol"
)

const (
	wsSendBuffer   = 128
	wsWriteTimeout = 5 * time.Second

	// Messages per second one connection may send, with a small burst.
	wsMessageRate  = 90
	wsMessageBurst = 30
)

type WSConnection struct {
	session uint32
	host    string

	conn   *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc
	status atomic.Uint32
}

func (c *WSConnection) Session() uint32 {
	return c.session
}

func (c *WSConnection) Host() string {
	return c.host
}

func (c *WSConnection) NetworkStatus() NetworkStatus {
	return NetworkStatus(c.status.Load())
}

func (c *WSConnection) Send(t protocol.MessageType, message interface{}) error {
	data, err := protocol.Encode(t, time.Now().UnixMilli(), message)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

func (c *WSConnection) Disconnect(reason string) {
	if c.status.CompareAndSwap(uint32(NetworkStatusConnected), uint32(NetworkStatusDisconnected)) {
		c.conn.Close(websocket.StatusPolicyViolation, reason)
		c.cancel()
	}
}

type WSIngress struct {
	gateway *Gateway
}

func NewWSIngress(gateway *Gateway) *WSIngress {
	return &WSIngress{gateway: gateway}
}

func writeTimeout(ctx context.Context, timeout time.Duration, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageBinary, msg)
}

func (server *WSIngress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}
	defer c.Close(websocket.StatusInternalError, "operational fault")

	hostname := r.RemoteAddr
	if forwarded, ok := r.Header["X-Forwarded-For"]; ok {
		hostname = forwarded[0]
	}

	agent := useragent.Parse(r.UserAgent())
	log.Info().
		Str("host", hostname).
		Str("browser", agent.Name).
		Str("os", agent.OS).
		Bool("mobile", agent.Mobile).
		Msg("websocket client")

	err = server.handleClient(r.Context(), c, hostname)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("websocket session ended")
	}
}

func (server *WSIngress) handleClient(ctx context.Context, c *websocket.Conn, host string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := &WSConnection{
		session: server.gateway.NewSessionID(),
		host:    host,
		conn:    c,
		send:    make(chan []byte, wsSendBuffer),
		cancel:  cancel,
	}

	server.gateway.Connect(client)
	defer func() {
		client.status.Store(uint32(NetworkStatusDisconnected))
		server.gateway.Disconnect(client)
	}()

	limiter := rate.NewLimiter(rate.Limit(wsMessageRate), wsMessageBurst)
	receive := make(chan []byte)

	go func() {
		for {
			if ctx.Err() != nil {
				return
			}

			typ, message, err := c.Read(ctx)
			if err != nil {
				cancel()
				return
			}
			if typ != websocket.MessageBinary {
				continue
			}

			select {
			case receive <- message:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case data := <-receive:
			if !limiter.Allow() {
				client.Send(protocol.ErrorOp, protocol.Error{
					Code:    protocol.ErrRateLimited,
					Message: "too many messages",
				})
				continue
			}

			env, err := protocol.Decode(data)
			if err != nil {
				client.Send(protocol.ErrorOp, protocol.Error{
					Code:    protocol.ErrMalformed,
					Message: "bad envelope",
				})
				continue
			}

			server.gateway.HandleMessage(client, env)
		case data := <-client.send:
			if err := writeTimeout(ctx, wsWriteTimeout, c, data); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

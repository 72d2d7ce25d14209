package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vroomhub/garage-server/game/player"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Outbound queue depth per connection.
	sendBufferSize = 256
)

var errConnClosed = errors.New("connection closed")

// Client wraps one WebSocket connection. It implements player.Conn; the
// game packages never see the underlying connection.
type Client struct {
	id   string
	gw   *Gateway
	conn *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Unix millis of the last inbound frame or pong.
	lastSeen atomic.Int64

	player *player.Player
}

func newClient(id string, gw *Gateway, conn *websocket.Conn) *Client {
	c := &Client{
		id:   id,
		gw:   gw,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	c.lastSeen.Store(time.Now().UnixMilli())
	return c
}

// Send queues v for delivery as one JSON text frame. It never blocks: a
// full queue means the consumer has fallen hopelessly behind, and the
// connection is dropped.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errConnClosed
	case c.send <- data:
		return nil
	default:
		c.gw.log.Warn("dropping slow consumer", "client", c.id)
		_ = c.Close()
		return errConnClosed
	}
}

// Close tears the connection down. Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}

// LastSeen returns the time of the last inbound frame or pong.
func (c *Client) LastSeen() time.Time {
	return time.UnixMilli(c.lastSeen.Load())
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixMilli())
}

// readPump reads frames and dispatches them to the router synchronously,
// preserving per-connection arrival order. It owns connection cleanup.
func (c *Client) readPump() {
	defer func() {
		c.gw.router.HandleDisconnect(c.player)
		c.gw.remove(c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.ConnectionTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.touch()
		return c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.ConnectionTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.gw.log.Warn("websocket read error", "client", c.id, "error", err)
			}
			return
		}
		c.touch()
		_ = c.conn.SetReadDeadline(time.Now().Add(c.gw.cfg.ConnectionTimeout))
		c.gw.router.HandleMessage(c.player, data)
	}
}

// writePump drains the send queue onto the wire and keeps the connection
// alive with periodic pings.
func (c *Client) writePump() {
	pingPeriod := c.gw.cfg.HeartbeatInterval
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/vroomhub/garage-server/game/config"
	"github.com/vroomhub/garage-server/game/player"
	"github.com/vroomhub/garage-server/game/protocol"
	"github.com/vroomhub/garage-server/game/room"
	"github.com/vroomhub/garage-server/game/router"
)

// Stats aggregates the gateway's view of the server for the status
// endpoint.
type Stats struct {
	RoomCount        int `json:"roomCount"`
	PlayerCount      int `json:"playerCount"`
	TotalConnections int `json:"totalConnections"`
}

// Gateway accepts WebSocket connections, constructs a participant for
// each, and runs the heartbeat and idle-room sweeps. It is an explicitly
// constructed object; multiple independent gateways can coexist in tests.
type Gateway struct {
	cfg    *config.Config
	log    *slog.Logger
	rooms  *room.Manager
	router *router.Router

	upgrader websocket.Upgrader
	accept   *rate.Limiter

	mu      sync.Mutex
	clients map[string]*Client
}

// NewGateway wires a gateway over the given registry and router.
func NewGateway(cfg *config.Config, rooms *room.Manager, rt *router.Router, log *slog.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		log:    log,
		rooms:  rooms,
		router: rt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Clients connect from arbitrary origins.
				return true
			},
		},
		accept:  rate.NewLimiter(rate.Limit(cfg.ConnectRate), cfg.ConnectBurst),
		clients: make(map[string]*Client),
	}
}

// HandleWS upgrades an HTTP request, assigns the connection an opaque id,
// and greets it with WELCOME followed by the current public room listing.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !g.accept.Allow() {
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	id := uuid.NewString()
	c := newClient(id, g, conn)
	c.player = player.New(id, c, g.cfg.RateLimitMaxMessages, g.cfg.RateLimitWindow)

	g.mu.Lock()
	g.clients[id] = c
	g.mu.Unlock()
	g.rooms.AddPlayer(c.player)

	go c.writePump()

	_ = c.Send(protocol.NewWelcome(id))
	_ = c.Send(protocol.NewLobbyInfo(g.rooms.PublicRooms()))

	g.log.Info("connection accepted", "client", id, "remote", r.RemoteAddr)
	go c.readPump()
}

// Run drives the periodic work: the heartbeat sweep force-closing silent
// connections, and the idle-room sweep. Returns when ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	heartbeat := time.NewTicker(g.cfg.HeartbeatInterval)
	sweep := time.NewTicker(g.cfg.RoomSweepInterval)
	defer heartbeat.Stop()
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			g.closeAll()
			return
		case <-heartbeat.C:
			g.reapSilent()
		case <-sweep.C:
			if closed := g.rooms.Sweep(); closed > 0 {
				g.log.Info("idle sweep closed rooms", "count", closed)
			}
		}
	}
}

// Stats returns aggregate counters for the status endpoints.
func (g *Gateway) Stats() Stats {
	roomCount, playerCount := g.rooms.Stats()
	g.mu.Lock()
	live := len(g.clients)
	g.mu.Unlock()
	return Stats{
		RoomCount:        roomCount,
		PlayerCount:      playerCount,
		TotalConnections: live,
	}
}

// reapSilent force-closes every connection that has been silent beyond
// the connection timeout. Cleanup then runs through the normal disconnect
// path in readPump.
func (g *Gateway) reapSilent() {
	cutoff := time.Now().Add(-g.cfg.ConnectionTimeout)

	g.mu.Lock()
	var stale []*Client
	for _, c := range g.clients {
		if c.LastSeen().Before(cutoff) {
			stale = append(stale, c)
		}
	}
	g.mu.Unlock()

	for _, c := range stale {
		g.log.Info("closing silent connection", "client", c.id, "lastSeen", c.LastSeen())
		_ = c.Close()
	}
}

func (g *Gateway) closeAll() {
	g.mu.Lock()
	clients := make([]*Client, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
}

func (g *Gateway) remove(c *Client) {
	g.mu.Lock()
	delete(g.clients, c.id)
	g.mu.Unlock()
	g.log.Info("connection closed", "client", c.id)
}

package router

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/vroomhub/garage-server/game/config"
	"github.com/vroomhub/garage-server/game/player"
	"github.com/vroomhub/garage-server/game/protocol"
	"github.com/vroomhub/garage-server/game/room"
	"github.com/vroomhub/garage-server/game/validate"
)

// Router dispatches parsed inbound messages to their handlers. Every
// message passes the sender's rate limiter first; messages that require
// room membership from a non-member are silently dropped to avoid error
// storms on routine stale-state races (LEAVE_ROOM excepted, which answers
// NOT_IN_ROOM).
type Router struct {
	cfg   *config.Config
	rooms *room.Manager
	log   *slog.Logger
}

// New constructs a router over the given registry.
func New(cfg *config.Config, rooms *room.Manager, log *slog.Logger) *Router {
	return &Router{cfg: cfg, rooms: rooms, log: log}
}

// HandleMessage processes one inbound frame from p. It never panics; an
// unexpected panic in a handler is logged and the connection survives.
func (rt *Router) HandleMessage(p *player.Player, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			rt.log.Error("panic while handling message", "player", p.ID, "panic", r)
		}
	}()

	if !p.CheckRateLimit() {
		rt.sendError(p, protocol.ErrCodeRateLimited, "too many messages, slow down")
		return
	}

	var msg protocol.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		rt.sendError(p, protocol.ErrCodeInvalidMessage, "malformed message")
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		rt.handlePing(p, msg)
	case protocol.TypeJoinRoom:
		rt.handleJoinRoom(p, msg)
	case protocol.TypeLeaveRoom:
		rt.handleLeaveRoom(p)
	case protocol.TypePlayerUpdate:
		rt.handlePlayerUpdate(p, msg)
	case protocol.TypeVehicleConfig:
		rt.handleVehicleConfig(p, msg)
	case protocol.TypeVehicleReset:
		rt.handleVehicleReset(p, msg)
	case protocol.TypePlayerNameUpdate:
		rt.handleNameUpdate(p, msg)
	case protocol.TypeChatMessage:
		rt.handleChat(p, msg)
	case protocol.TypeSetRoomPublic:
		rt.handleSetRoomPublic(p, msg)
	default:
		rt.sendError(p, protocol.ErrCodeInvalidMessage, "unknown message type: "+msg.Type)
	}
}

// HandleDisconnect runs the leave sequence for a dropped connection and
// clears the participant from the roster. Safe to call for participants
// that never joined a room.
func (rt *Router) HandleDisconnect(p *player.Player) {
	rt.removeFromRoom(p, false)
	rt.rooms.RemovePlayer(p.ID)
	rt.log.Debug("player disconnected", "player", p.ID)
}

func (rt *Router) handlePing(p *player.Player, msg protocol.ClientMessage) {
	p.TouchPing()
	_ = p.Send(protocol.NewPong(msg.Time))
}

func (rt *Router) handleJoinRoom(p *player.Player, msg protocol.ClientMessage) {
	// Optional identity updates ride along with the join. Invalid values
	// are ignored rather than blocking the join.
	if msg.Name != "" {
		p.SetName(msg.Name)
	}
	if msg.Config != nil && len(validate.VehicleConfig(msg.Config)) == 0 {
		p.SetVehicleConfig(msg.Config)
	}

	roomID := ""
	if msg.RoomID != nil {
		roomID = *msg.RoomID
	}

	var (
		r       *room.Room
		existed bool
		err     error
	)
	if roomID == "" && msg.IsPublic != nil && *msg.IsPublic {
		r, err = rt.rooms.Create(p, "", true)
	} else {
		r, existed, err = rt.rooms.Join(roomID, p)
	}
	if err != nil {
		rt.sendJoinError(p, err)
		return
	}

	_ = p.Send(protocol.NewRoomJoined(r.Snapshot()))
	if existed {
		r.Broadcast(protocol.NewPlayerJoined(r.ID, p.PublicData()), p.ID)
	}
}

func (rt *Router) handleLeaveRoom(p *player.Player) {
	if !rt.removeFromRoom(p, true) {
		rt.sendError(p, protocol.ErrCodeNotInRoom, "you are not in a room")
	}
}

// removeFromRoom runs the shared leave sequence. When notifyLeaver is set
// the leaver receives ROOM_LEFT plus a fresh lobby listing. Reports
// whether the participant was in a room at all.
func (rt *Router) removeFromRoom(p *player.Player, notifyLeaver bool) bool {
	res, err := rt.rooms.Leave(p.ID)
	if err != nil {
		return false
	}

	if !res.Deleted && res.Room.PlayerCount() > 0 {
		res.Room.Broadcast(protocol.NewPlayerLeft(res.Room.ID, p.ID, res.NewHost), "")
		res.Room.Broadcast(protocol.NewRoomState(res.Room.Snapshot()), "")
	}
	if notifyLeaver {
		_ = p.Send(protocol.NewRoomLeft(res.Room.ID, protocol.ReasonLeft))
		_ = p.Send(protocol.NewLobbyInfo(rt.rooms.PublicRooms()))
	}
	return true
}

func (rt *Router) handlePlayerUpdate(p *player.Player, msg protocol.ClientMessage) {
	r, ok := rt.rooms.RoomOf(p.ID)
	if !ok {
		return // silent drop, anti-flood
	}
	if !validate.TransformUpdate(msg.TransformUpdate, rt.cfg.MaxPositionMagnitude, rt.cfg.MaxVelocityMagnitude) {
		return // silent drop, anti-flood
	}
	p.ApplyUpdate(msg.TransformUpdate)
	r.Touch()
	r.Broadcast(protocol.NewPlayerUpdate(p.ID, msg.TransformUpdate), p.ID)
}

func (rt *Router) handleVehicleConfig(p *player.Player, msg protocol.ClientMessage) {
	r, ok := rt.rooms.RoomOf(p.ID)
	if !ok {
		return
	}
	if errs := validate.VehicleConfig(msg.Config); len(errs) > 0 {
		rt.sendError(p, protocol.ErrCodeValidation, "invalid vehicle config", errs...)
		return
	}
	p.SetVehicleConfig(msg.Config)
	r.Touch()
	r.Broadcast(protocol.NewVehicleConfig(p.ID, msg.Config), p.ID)
}

func (rt *Router) handleVehicleReset(p *player.Player, msg protocol.ClientMessage) {
	r, ok := rt.rooms.RoomOf(p.ID)
	if !ok {
		return
	}
	r.Touch()
	r.Broadcast(protocol.NewVehicleReset(p.ID, msg.TransformUpdate), p.ID)
}

func (rt *Router) handleNameUpdate(p *player.Player, msg protocol.ClientMessage) {
	r, ok := rt.rooms.RoomOf(p.ID)
	if !ok {
		return
	}
	if !p.SetName(msg.Name) {
		return // silent drop on invalid names
	}
	r.Touch()
	// Echoed to the sender too, acting as confirmation.
	r.Broadcast(protocol.NewPlayerNameUpdate(p.ID, p.Name()), "")
}

func (rt *Router) handleChat(p *player.Player, msg protocol.ClientMessage) {
	r, ok := rt.rooms.RoomOf(p.ID)
	if !ok {
		return
	}
	text, ok := validate.ChatText(msg.Message)
	if !ok {
		return
	}
	r.Touch()
	r.Broadcast(protocol.NewChatMessage(p.ID, p.Name(), text), "")
}

func (rt *Router) handleSetRoomPublic(p *player.Player, msg protocol.ClientMessage) {
	if msg.IsPublic == nil {
		rt.sendError(p, protocol.ErrCodeInvalidMessage, "isPublic is required")
		return
	}
	r, err := rt.rooms.SetPublic(p.ID, *msg.IsPublic)
	if err != nil {
		switch {
		case errors.Is(err, room.ErrNotInRoom):
			rt.sendError(p, protocol.ErrCodeNotInRoom, "you are not in a room")
		case errors.Is(err, room.ErrNotHost):
			rt.sendError(p, protocol.ErrCodeNotHost, "only the host can change room visibility")
		default:
			rt.sendError(p, protocol.ErrCodeInternal, "failed to update room")
		}
		return
	}
	r.Broadcast(protocol.NewRoomState(r.Snapshot()), "")
}

func (rt *Router) sendJoinError(p *player.Player, err error) {
	switch {
	case errors.Is(err, room.ErrAlreadyInRoom):
		rt.sendError(p, protocol.ErrCodeAlreadyInRoom, "leave your current room first")
	case errors.Is(err, room.ErrRoomFull):
		rt.sendError(p, protocol.ErrCodeRoomFull, "room is full")
	case errors.Is(err, room.ErrInvalidRoomCode):
		rt.sendError(p, protocol.ErrCodeInvalidRoomCode, "malformed room code")
	case errors.Is(err, room.ErrRoomExists):
		rt.sendError(p, protocol.ErrCodeRoomExists, "room already exists")
	case errors.Is(err, room.ErrRoomNotFound):
		rt.sendError(p, protocol.ErrCodeRoomNotFound, "room not found")
	default:
		rt.log.Error("join failed", "player", p.ID, "error", err)
		rt.sendError(p, protocol.ErrCodeInternal, "failed to join room")
	}
}

func (rt *Router) sendError(p *player.Player, code, message string, errs ...string) {
	_ = p.Send(protocol.NewError(code, message, errs...))
}

package room

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vroomhub/garage-server/game/config"
	"github.com/vroomhub/garage-server/game/player"
	"github.com/vroomhub/garage-server/game/protocol"
	"github.com/vroomhub/garage-server/game/validate"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomExists         = errors.New("room already exists")
	ErrRoomFull           = errors.New("room is full")
	ErrAlreadyInRoom      = errors.New("player is already in a room")
	ErrNotInRoom          = errors.New("player is not in a room")
	ErrNotHost            = errors.New("player is not the room host")
	ErrInvalidRoomCode    = errors.New("invalid room code")
	ErrCodeSpaceExhausted = errors.New("failed to generate a unique room code")
)

// maxCodeAttempts bounds room code generation before giving up with
// ErrCodeSpaceExhausted.
const maxCodeAttempts = 100

// LeaveResult describes the outcome of removing a participant from a room.
type LeaveResult struct {
	Room    *Room
	WasHost bool
	NewHost string
	Deleted bool
}

// Manager is the session registry. It owns the room index, the roster of
// connected participants, and the participant-to-room index; the two
// indices mirror each other exactly. All membership mutation goes through
// Manager methods.
type Manager struct {
	cfg *config.Config
	log *slog.Logger

	mu      sync.Mutex
	rooms   map[string]*Room
	players map[string]*player.Player // every connected participant
	index   map[string]string         // participant id -> room id
}

// NewManager creates a registry with the persistent public lobby already
// registered.
func NewManager(cfg *config.Config, log *slog.Logger) *Manager {
	m := &Manager{
		cfg:     cfg,
		log:     log,
		rooms:   make(map[string]*Room),
		players: make(map[string]*player.Player),
		index:   make(map[string]string),
	}
	m.rooms[LobbyID] = newRoom(LobbyID, cfg.MaxPlayersPerRoom, true)
	return m
}

// AddPlayer registers a connected participant with the lobby roster.
func (m *Manager) AddPlayer(p *player.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p
}

// RemovePlayer drops a participant from the roster. The participant must
// already have been removed from any room.
func (m *Manager) RemovePlayer(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, playerID)
}

// Get returns a registered room by id.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[normalizeCode(id)]
	return r, ok
}

// RoomOf returns the room a participant currently belongs to.
func (m *Manager) RoomOf(playerID string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID, ok := m.index[playerID]
	if !ok {
		return nil, false
	}
	return m.rooms[roomID], true
}

// Create allocates a new room with p as sole member and host. When
// explicitID is empty a collision-free code is generated; otherwise the id
// must not already be registered.
func (m *Manager) Create(p *player.Player, explicitID string, isPublic bool) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(p, normalizeCode(explicitID), isPublic)
}

// Join implements join-or-create. An empty id creates a fresh room with p
// as host. A known id joins the existing room if it has capacity. An
// unknown id creates the room with p as host, so clients can "join" a code
// they invented, provided the code is well-formed. Reports whether the
// room already existed before the call.
func (m *Manager) Join(id string, p *player.Player) (r *Room, existed bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[p.ID]; ok {
		return nil, false, ErrAlreadyInRoom
	}

	id = normalizeCode(id)
	if id == "" {
		r, err = m.createLocked(p, "", false)
		return r, false, err
	}

	existing, ok := m.rooms[id]
	if !ok {
		if id != LobbyID && !validate.RoomCode(id, m.cfg.RoomCodeLength) {
			return nil, false, ErrInvalidRoomCode
		}
		r, err = m.createLocked(p, id, false)
		return r, false, err
	}

	if existing.IsFull() {
		return nil, false, ErrRoomFull
	}

	existing.add(p, false)
	m.index[p.ID] = existing.ID
	if existing.IsPublic() {
		m.notifyLobbyLocked()
	}
	m.log.Debug("player joined room", "player", p.ID, "room", existing.ID, "players", existing.PlayerCount())
	return existing, true, nil
}

// Leave removes a participant from whatever room they are in, promotes a
// new host if needed, and deletes the room when it empties (the lobby
// excepted).
func (m *Manager) Leave(playerID string) (*LeaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.index[playerID]
	if !ok {
		return nil, ErrNotInRoom
	}
	r := m.rooms[roomID]
	delete(m.index, playerID)

	wasHost := r.Host() == playerID
	newHost, empty := r.remove(playerID)

	res := &LeaveResult{Room: r, WasHost: wasHost, NewHost: newHost}
	if empty && r.ID != LobbyID {
		delete(m.rooms, r.ID)
		res.Deleted = true
		m.log.Debug("room deleted", "room", r.ID)
	}
	if r.IsPublic() {
		m.notifyLobbyLocked()
	}
	return res, nil
}

// SetPublic toggles a room's lobby visibility. Only the room's host may do
// this; the lobby has no host, so its flag can never change.
func (m *Manager) SetPublic(playerID string, public bool) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.index[playerID]
	if !ok {
		return nil, ErrNotInRoom
	}
	r := m.rooms[roomID]
	if r.Host() != playerID {
		return nil, ErrNotHost
	}
	r.setPublic(public)
	m.notifyLobbyLocked()
	m.log.Info("room visibility changed", "room", r.ID, "public", public)
	return r, nil
}

// Sweep force-closes every room (lobby excepted) whose last activity is
// older than the configured idle timeout. Members receive a closure notice
// before their membership is cleared. Returns the number of rooms closed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-m.cfg.RoomIdleTimeout)
	closed := 0
	publicChanged := false

	for id, r := range m.rooms {
		if id == LobbyID || r.LastActivity().After(cutoff) {
			continue
		}
		r.Broadcast(protocol.NewRoomLeft(r.ID, protocol.ReasonIdleTimeout), "")
		for pid, rid := range m.index {
			if rid == id {
				delete(m.index, pid)
			}
		}
		delete(m.rooms, id)
		closed++
		if r.IsPublic() {
			publicChanged = true
		}
		m.log.Info("room closed for inactivity", "room", id, "idle", time.Since(r.LastActivity()).Round(time.Second))
	}

	if publicChanged {
		m.notifyLobbyLocked()
	}
	return closed
}

// PublicRooms lists every public room that still has capacity.
func (m *Manager) PublicRooms() []protocol.PublicRoom {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.publicRoomsLocked()
}

// NotifyLobby pushes the public room listing to every connected
// participant that is not currently in a room.
func (m *Manager) NotifyLobby() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyLobbyLocked()
}

// Stats returns the registered room count and the number of participants
// currently in rooms.
func (m *Manager) Stats() (roomCount, playerCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms), len(m.index)
}

func (m *Manager) createLocked(p *player.Player, explicitID string, isPublic bool) (*Room, error) {
	if _, ok := m.index[p.ID]; ok {
		return nil, ErrAlreadyInRoom
	}

	id := explicitID
	if id == "" {
		generated, err := m.generateCodeLocked()
		if err != nil {
			return nil, err
		}
		id = generated
	} else if _, ok := m.rooms[id]; ok {
		return nil, ErrRoomExists
	}

	r := newRoom(id, m.cfg.MaxPlayersPerRoom, isPublic)
	r.add(p, true)
	m.rooms[id] = r
	m.index[p.ID] = id
	if isPublic {
		m.notifyLobbyLocked()
	}
	m.log.Debug("room created", "room", id, "host", p.ID, "public", isPublic)
	return r, nil
}

// generateCodeLocked draws uniformly random codes from the restricted
// alphabet until an unused one is found, giving up after maxCodeAttempts.
func (m *Manager) generateCodeLocked() (string, error) {
	buf := make([]byte, m.cfg.RoomCodeLength)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("%w: %v", ErrCodeSpaceExhausted, err)
		}
		code := make([]byte, len(buf))
		for i, b := range buf {
			// Alphabet length is 32, so b%32 stays uniform.
			code[i] = validate.RoomCodeAlphabet[int(b)%len(validate.RoomCodeAlphabet)]
		}
		if _, taken := m.rooms[string(code)]; !taken {
			return string(code), nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (m *Manager) publicRoomsLocked() []protocol.PublicRoom {
	listings := make([]protocol.PublicRoom, 0)
	for _, r := range m.rooms {
		if r.IsPublic() && !r.IsFull() {
			listings = append(listings, r.listing())
		}
	}
	return listings
}

func (m *Manager) notifyLobbyLocked() {
	msg := protocol.NewPublicRoomsUpdate(m.publicRoomsLocked())
	for id, p := range m.players {
		if _, inRoom := m.index[id]; inRoom {
			continue
		}
		_ = p.Send(msg)
	}
}

func normalizeCode(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

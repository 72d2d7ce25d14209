package room

import (
	"sync"
	"time"

	"github.com/vroomhub/garage-server/game/player"
	"github.com/vroomhub/garage-server/game/protocol"
)

// LobbyID is the reserved id of the persistent public lobby room. The
// lobby has no host, is always public, and is never deleted.
const LobbyID = "LOBBY"

// Room is a bounded group of participants sharing synchronized vehicle
// state. Membership and host changes go through the Manager; the room
// itself only guards its own member set.
type Room struct {
	ID        string
	CreatedAt time.Time
	capacity  int

	mu           sync.RWMutex
	host         string
	isPublic     bool
	members      map[string]*player.Player
	lastActivity time.Time
}

func newRoom(id string, capacity int, isPublic bool) *Room {
	now := time.Now()
	return &Room{
		ID:           id,
		CreatedAt:    now,
		capacity:     capacity,
		isPublic:     isPublic,
		members:      make(map[string]*player.Player),
		lastActivity: now,
	}
}

// Broadcast sends v to every member except the one whose id matches
// excludeID. Pass an empty excludeID to reach all members. This is the
// single fan-out primitive; no other component iterates members to send.
func (r *Room) Broadcast(v any, excludeID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, p := range r.members {
		if id == excludeID {
			continue
		}
		// Send is non-blocking; slow consumers are the transport's problem.
		_ = p.Send(v)
	}
}

// Host returns the current host's participant id, empty for the lobby or
// an empty room.
func (r *Room) Host() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.host
}

// IsPublic reports whether the room is listed in the public lobby.
func (r *Room) IsPublic() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isPublic
}

// PlayerCount returns the current member count.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// IsFull reports whether the room is at capacity.
func (r *Room) IsFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members) >= r.capacity
}

// Touch stamps the room's last activity time.
func (r *Room) Touch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActivity = time.Now()
}

// LastActivity returns the time of the last room activity.
func (r *Room) LastActivity() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastActivity
}

// Snapshot returns the room state as sent to clients.
func (r *Room) Snapshot() protocol.RoomState {
	r.mu.RLock()
	members := make([]*player.Player, 0, len(r.members))
	for _, p := range r.members {
		members = append(members, p)
	}
	state := protocol.RoomState{
		ID:          r.ID,
		Host:        r.host,
		IsPublic:    r.isPublic,
		PlayerCount: len(r.members),
		MaxPlayers:  r.capacity,
	}
	r.mu.RUnlock()

	// Player locks are taken outside the room lock.
	state.Players = make([]protocol.PlayerPublic, 0, len(members))
	for _, p := range members {
		state.Players = append(state.Players, p.PublicData())
	}
	return state
}

// listing returns the lobby listing entry for this room.
func (r *Room) listing() protocol.PublicRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return protocol.PublicRoom{
		ID:          r.ID,
		PlayerCount: len(r.members),
		MaxPlayers:  r.capacity,
	}
}

// add inserts a participant, optionally as host. Caller (the Manager)
// guarantees capacity and uniqueness.
func (r *Room) add(p *player.Player, asHost bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[p.ID] = p
	if asHost {
		r.host = p.ID
	}
	r.lastActivity = time.Now()
}

// remove deletes a participant and performs host succession: if the
// departing member was host, an arbitrary remaining member is promoted,
// or the host is cleared when the room empties. The lobby never has a
// host. Returns the new host id and whether the room is now empty.
func (r *Room) remove(playerID string) (newHost string, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, playerID)
	if r.host == playerID {
		r.host = ""
		for id := range r.members {
			r.host = id
			break
		}
	}
	r.lastActivity = time.Now()
	return r.host, len(r.members) == 0
}

// setPublic flips the public flag.
func (r *Room) setPublic(public bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.isPublic = public
	r.lastActivity = time.Now()
}

// has reports membership.
func (r *Room) has(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[playerID]
	return ok
}

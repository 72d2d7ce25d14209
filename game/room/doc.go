// Package room implements the session registry for the multiplayer
// server.
//
// The room package owns all room and membership state:
//   - Room lifecycle: creation, join-or-create, host succession, deletion
//   - Random room code generation from an unambiguous alphabet
//   - The persistent public lobby room, which is never deleted
//   - Idle sweep closing rooms without recent activity
//   - Public room listings pushed to participants outside any room
//
// Core Types:
//
// Manager is the registry. It holds the room index, the roster of every
// connected participant, and the participant-to-room index; the indices
// mirror each other exactly and are only ever mutated through Manager
// methods. Room is one session; its Broadcast method is the single
// fan-out primitive used by the rest of the server.
//
// Usage:
//
//	rooms := room.NewManager(cfg, log)
//	rooms.AddPlayer(p)
//	r, existed, err := rooms.Join("", p) // create a fresh room, p as host
package room

package protocol

import "time"

// Message type discriminators. Every frame on the wire is a single JSON
// object with a "type" field plus type-specific fields.
const (
	TypeWelcome           = "WELCOME"
	TypePing              = "PING"
	TypePong              = "PONG"
	TypeJoinRoom          = "JOIN_ROOM"
	TypeLeaveRoom         = "LEAVE_ROOM"
	TypeRoomJoined        = "ROOM_JOINED"
	TypeRoomLeft          = "ROOM_LEFT"
	TypeRoomState         = "ROOM_STATE"
	TypePlayerJoined      = "PLAYER_JOINED"
	TypePlayerLeft        = "PLAYER_LEFT"
	TypePlayerUpdate      = "PLAYER_UPDATE"
	TypeVehicleConfig     = "VEHICLE_CONFIG"
	TypeVehicleReset      = "VEHICLE_RESET"
	TypePlayerNameUpdate  = "PLAYER_NAME_UPDATE"
	TypeChatMessage       = "CHAT_MESSAGE"
	TypeSetRoomPublic     = "SET_ROOM_PUBLIC"
	TypeLobbyInfo         = "LOBBY_INFO"
	TypePublicRoomsUpdate = "PUBLIC_ROOMS_UPDATE"
	TypeError             = "ERROR"
)

// Error codes carried by ERROR messages.
const (
	ErrCodeInvalidMessage  = "INVALID_MESSAGE"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeRoomNotFound    = "ROOM_NOT_FOUND"
	ErrCodeRoomFull        = "ROOM_FULL"
	ErrCodeAlreadyInRoom   = "ALREADY_IN_ROOM"
	ErrCodeNotInRoom       = "NOT_IN_ROOM"
	ErrCodeInvalidRoomCode = "INVALID_ROOM_CODE"
	ErrCodeNotHost         = "NOT_HOST"
	ErrCodeRoomExists      = "ROOM_EXISTS"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// Reasons attached to ROOM_LEFT notices.
const (
	ReasonLeft        = "left"
	ReasonIdleTimeout = "idle_timeout"
)

// Now returns the server timestamp stamped onto outbound messages,
// in milliseconds since the Unix epoch.
func Now() int64 {
	return time.Now().UnixMilli()
}

// TransformUpdate is a partial vehicle transform. A nil slice or pointer
// means the field was absent from the message and must be left unchanged
// on merge.
type TransformUpdate struct {
	Position        []float64 `json:"position,omitempty"`
	Rotation        []float64 `json:"rotation,omitempty"`
	Velocity        []float64 `json:"velocity,omitempty"`
	AngularVelocity []float64 `json:"angularVelocity,omitempty"`
	WheelRotations  []float64 `json:"wheelRotations,omitempty"`
	WheelPositions  []float64 `json:"wheelPositions,omitempty"`
	Steering        *float64  `json:"steering,omitempty"`
	RPM             *float64  `json:"rpm,omitempty"`
	Horn            *bool     `json:"horn,omitempty"`
}

// ClientMessage is the parsed form of an inbound frame. Fields beyond Type
// are populated per message type and ignored otherwise.
type ClientMessage struct {
	Type string `json:"type"`

	// PING
	Time *float64 `json:"time,omitempty"`

	// JOIN_ROOM / SET_ROOM_PUBLIC
	RoomID   *string        `json:"roomId,omitempty"`
	IsPublic *bool          `json:"isPublic,omitempty"`
	Name     string         `json:"name,omitempty"`
	Config   map[string]any `json:"vehicleConfig,omitempty"`

	// CHAT_MESSAGE
	Message string `json:"message,omitempty"`

	// PLAYER_UPDATE / VEHICLE_RESET
	TransformUpdate
}

// PlayerPublic is the broadcast-safe projection of a participant: no
// connection handle, no rate-limit internals.
type PlayerPublic struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	VehicleConfig map[string]any `json:"vehicleConfig,omitempty"`
	Position      []float64      `json:"position"`
	Rotation      []float64      `json:"rotation"`
}

// PlayerTransform is the full transform snapshot of a participant.
type PlayerTransform struct {
	ID              string    `json:"id"`
	Position        []float64 `json:"position"`
	Rotation        []float64 `json:"rotation"`
	Velocity        []float64 `json:"velocity"`
	AngularVelocity []float64 `json:"angularVelocity"`
	WheelRotations  []float64 `json:"wheelRotations,omitempty"`
	WheelPositions  []float64 `json:"wheelPositions,omitempty"`
	Steering        float64   `json:"steering"`
	RPM             float64   `json:"rpm"`
	Horn            bool      `json:"horn"`
}

// RoomState describes a room and its members.
type RoomState struct {
	ID          string         `json:"id"`
	Host        string         `json:"host,omitempty"`
	IsPublic    bool           `json:"isPublic"`
	PlayerCount int            `json:"playerCount"`
	MaxPlayers  int            `json:"maxPlayers"`
	Players     []PlayerPublic `json:"players"`
}

// PublicRoom is a lobby listing entry for one joinable public room.
type PublicRoom struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

type Welcome struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp"`
}

func NewWelcome(playerID string) Welcome {
	return Welcome{Type: TypeWelcome, PlayerID: playerID, Timestamp: Now()}
}

type Pong struct {
	Type      string   `json:"type"`
	Time      *float64 `json:"time,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

func NewPong(clientTime *float64) Pong {
	return Pong{Type: TypePong, Time: clientTime, Timestamp: Now()}
}

type RoomJoined struct {
	Type      string    `json:"type"`
	RoomState RoomState `json:"roomState"`
	Timestamp int64     `json:"timestamp"`
}

func NewRoomJoined(state RoomState) RoomJoined {
	return RoomJoined{Type: TypeRoomJoined, RoomState: state, Timestamp: Now()}
}

type RoomLeft struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

func NewRoomLeft(roomID, reason string) RoomLeft {
	return RoomLeft{Type: TypeRoomLeft, RoomID: roomID, Reason: reason, Timestamp: Now()}
}

type RoomStateMessage struct {
	Type      string    `json:"type"`
	RoomState RoomState `json:"roomState"`
	Timestamp int64     `json:"timestamp"`
}

func NewRoomState(state RoomState) RoomStateMessage {
	return RoomStateMessage{Type: TypeRoomState, RoomState: state, Timestamp: Now()}
}

type PlayerJoined struct {
	Type      string       `json:"type"`
	RoomID    string       `json:"roomId"`
	Player    PlayerPublic `json:"player"`
	Timestamp int64        `json:"timestamp"`
}

func NewPlayerJoined(roomID string, p PlayerPublic) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, RoomID: roomID, Player: p, Timestamp: Now()}
}

type PlayerLeft struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	PlayerID  string `json:"playerId"`
	NewHost   string `json:"newHost,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func NewPlayerLeft(roomID, playerID, newHost string) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, RoomID: roomID, PlayerID: playerID, NewHost: newHost, Timestamp: Now()}
}

type PlayerUpdate struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	TransformUpdate
	Timestamp int64 `json:"timestamp"`
}

func NewPlayerUpdate(playerID string, u TransformUpdate) PlayerUpdate {
	return PlayerUpdate{Type: TypePlayerUpdate, PlayerID: playerID, TransformUpdate: u, Timestamp: Now()}
}

type VehicleConfig struct {
	Type          string         `json:"type"`
	PlayerID      string         `json:"playerId"`
	VehicleConfig map[string]any `json:"vehicleConfig"`
	Timestamp     int64          `json:"timestamp"`
}

func NewVehicleConfig(playerID string, cfg map[string]any) VehicleConfig {
	return VehicleConfig{Type: TypeVehicleConfig, PlayerID: playerID, VehicleConfig: cfg, Timestamp: Now()}
}

type VehicleReset struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	TransformUpdate
	Timestamp int64 `json:"timestamp"`
}

func NewVehicleReset(playerID string, u TransformUpdate) VehicleReset {
	return VehicleReset{Type: TypeVehicleReset, PlayerID: playerID, TransformUpdate: u, Timestamp: Now()}
}

type PlayerNameUpdate struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Timestamp int64  `json:"timestamp"`
}

func NewPlayerNameUpdate(playerID, name string) PlayerNameUpdate {
	return PlayerNameUpdate{Type: TypePlayerNameUpdate, PlayerID: playerID, Name: name, Timestamp: Now()}
}

type ChatMessage struct {
	Type      string `json:"type"`
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func NewChatMessage(playerID, name, message string) ChatMessage {
	return ChatMessage{Type: TypeChatMessage, PlayerID: playerID, Name: name, Message: message, Timestamp: Now()}
}

type LobbyInfo struct {
	Type      string       `json:"type"`
	Rooms     []PublicRoom `json:"rooms"`
	Timestamp int64        `json:"timestamp"`
}

func NewLobbyInfo(rooms []PublicRoom) LobbyInfo {
	return LobbyInfo{Type: TypeLobbyInfo, Rooms: rooms, Timestamp: Now()}
}

type PublicRoomsUpdate struct {
	Type      string       `json:"type"`
	Rooms     []PublicRoom `json:"rooms"`
	Timestamp int64        `json:"timestamp"`
}

func NewPublicRoomsUpdate(rooms []PublicRoom) PublicRoomsUpdate {
	return PublicRoomsUpdate{Type: TypePublicRoomsUpdate, Rooms: rooms, Timestamp: Now()}
}

type ErrorMessage struct {
	Type      string   `json:"type"`
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

func NewError(code, message string, errs ...string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Code: code, Message: message, Errors: errs, Timestamp: Now()}
}

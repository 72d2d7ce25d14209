package player

import (
	"sync"
	"time"

	"github.com/vroomhub/garage-server/game/protocol"
	"github.com/vroomhub/garage-server/game/validate"
)

// Conn is the outbound side of a participant's connection. The concrete
// implementation lives in the transport layer; game packages only ever see
// this interface.
type Conn interface {
	// Send queues v for delivery as a single JSON frame.
	Send(v any) error
	// Close tears the connection down.
	Close() error
}

// Transform is a participant's vehicle pose and motion state.
type Transform struct {
	Position        [3]float64
	Rotation        [4]float64
	Velocity        [3]float64
	AngularVelocity [3]float64
}

// Telemetry is auxiliary vehicle state relayed alongside the transform.
type Telemetry struct {
	WheelRotations []float64
	WheelPositions []float64
	Steering       float64
	RPM            float64
	Horn           bool
}

// Player is one connected participant. All mutators take the player's own
// lock; membership is owned by the room registry, never mutated here.
type Player struct {
	ID   string
	conn Conn

	mu            sync.Mutex
	name          string
	vehicleConfig map[string]any
	transform     Transform
	telemetry     Telemetry
	lastUpdate    time.Time
	lastPing      time.Time

	limiter fixedWindowLimiter
}

// New creates a participant for a freshly accepted connection. The rate
// limiter admits at most maxMessages inbound messages per window.
func New(id string, conn Conn, maxMessages int, window time.Duration) *Player {
	now := time.Now()
	return &Player{
		ID:         id,
		conn:       conn,
		name:       "Player",
		transform:  Transform{Rotation: [4]float64{0, 0, 0, 1}},
		lastUpdate: now,
		lastPing:   now,
		limiter: fixedWindowLimiter{
			max:         maxMessages,
			window:      window,
			windowStart: now,
		},
	}
}

// Send forwards v to the participant's connection.
func (p *Player) Send(v any) error {
	return p.conn.Send(v)
}

// Close closes the participant's connection.
func (p *Player) Close() error {
	return p.conn.Close()
}

// ApplyUpdate merges the fields present in u into the stored transform and
// telemetry. Absent fields are left unchanged. Stamps lastUpdate.
func (p *Player) ApplyUpdate(u protocol.TransformUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.Position != nil {
		copy(p.transform.Position[:], u.Position)
	}
	if u.Rotation != nil {
		copy(p.transform.Rotation[:], u.Rotation)
	}
	if u.Velocity != nil {
		copy(p.transform.Velocity[:], u.Velocity)
	}
	if u.AngularVelocity != nil {
		copy(p.transform.AngularVelocity[:], u.AngularVelocity)
	}
	if u.WheelRotations != nil {
		p.telemetry.WheelRotations = append([]float64(nil), u.WheelRotations...)
	}
	if u.WheelPositions != nil {
		p.telemetry.WheelPositions = append([]float64(nil), u.WheelPositions...)
	}
	if u.Steering != nil {
		p.telemetry.Steering = *u.Steering
	}
	if u.RPM != nil {
		p.telemetry.RPM = *u.RPM
	}
	if u.Horn != nil {
		p.telemetry.Horn = *u.Horn
	}
	p.lastUpdate = time.Now()
}

// SetVehicleConfig replaces the stored configuration wholesale and stamps
// lastUpdate. The config blob is opaque here; shape validation happens in
// the router before this is called.
func (p *Player) SetVehicleConfig(cfg map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vehicleConfig = cfg
	p.lastUpdate = time.Now()
}

// SetName updates the display name if it trims to 1-20 characters,
// otherwise it is a silent no-op. Reports whether the name was applied.
func (p *Player) SetName(name string) bool {
	trimmed, ok := validate.PlayerName(name)
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name = trimmed
	return true
}

// Name returns the current display name.
func (p *Player) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// TouchPing records inbound liveness.
func (p *Player) TouchPing() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastPing = time.Now()
}

// LastPing returns the time of the last liveness signal.
func (p *Player) LastPing() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastPing
}

// CheckRateLimit admits or rejects one inbound message under the
// fixed-window limiter. Every inbound message must pass through this.
func (p *Player) CheckRateLimit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limiter.allow(time.Now())
}

// PublicData returns the broadcast-safe view of this participant.
func (p *Player) PublicData() protocol.PlayerPublic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return protocol.PlayerPublic{
		ID:            p.ID,
		Name:          p.name,
		VehicleConfig: p.vehicleConfig,
		Position:      append([]float64(nil), p.transform.Position[:]...),
		Rotation:      append([]float64(nil), p.transform.Rotation[:]...),
	}
}

// TransformData returns the full transform snapshot of this participant.
func (p *Player) TransformData() protocol.PlayerTransform {
	p.mu.Lock()
	defer p.mu.Unlock()
	return protocol.PlayerTransform{
		ID:              p.ID,
		Position:        append([]float64(nil), p.transform.Position[:]...),
		Rotation:        append([]float64(nil), p.transform.Rotation[:]...),
		Velocity:        append([]float64(nil), p.transform.Velocity[:]...),
		AngularVelocity: append([]float64(nil), p.transform.AngularVelocity[:]...),
		WheelRotations:  append([]float64(nil), p.telemetry.WheelRotations...),
		WheelPositions:  append([]float64(nil), p.telemetry.WheelPositions...),
		Steering:        p.telemetry.Steering,
		RPM:             p.telemetry.RPM,
		Horn:            p.telemetry.Horn,
	}
}

// fixedWindowLimiter counts messages in fixed windows of length window.
// When a window's elapsed time reaches the window length the counter
// resets. A message is admitted while the post-increment count stays
// within max.
type fixedWindowLimiter struct {
	max         int
	window      time.Duration
	count       int
	windowStart time.Time
}

func (l *fixedWindowLimiter) allow(now time.Time) bool {
	if now.Sub(l.windowStart) >= l.window {
		l.count = 0
		l.windowStart = now
	}
	l.count++
	return l.count <= l.max
}

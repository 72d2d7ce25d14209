// Package config holds the server configuration surface. Values come from
// environment variables (with a .env file loaded by main) and fall back to
// defaults suitable for local development.
package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
)

// Config is the full set of recognized options.
type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=8080"`

	// Room settings.
	MaxPlayersPerRoom int           `env:"MAX_PLAYERS_PER_ROOM,default=8"`
	RoomCodeLength    int           `env:"ROOM_CODE_LENGTH,default=6"`
	RoomIdleTimeout   time.Duration `env:"ROOM_IDLE_TIMEOUT,default=5m"`
	RoomSweepInterval time.Duration `env:"ROOM_SWEEP_INTERVAL,default=1m"`

	// Per-connection fixed-window message rate limit.
	RateLimitMaxMessages int           `env:"RATE_LIMIT_MAX_MESSAGES,default=30"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW,default=1s"`

	// Connection liveness.
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	ConnectionTimeout time.Duration `env:"CONNECTION_TIMEOUT,default=60s"`

	// Transform bounds.
	MaxPositionMagnitude float64 `env:"MAX_POSITION,default=10000"`
	MaxVelocityMagnitude float64 `env:"MAX_VELOCITY,default=500"`

	// Connection accept throttle (new upgrades per second, with burst).
	ConnectRate  float64 `env:"CONNECT_RATE,default=20"`
	ConnectBurst int     `env:"CONNECT_BURST,default=40"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no environment is present.
// Tests construct their registries from this.
func Default() *Config {
	return &Config{
		Host:                 "0.0.0.0",
		Port:                 8080,
		MaxPlayersPerRoom:    8,
		RoomCodeLength:       6,
		RoomIdleTimeout:      5 * time.Minute,
		RoomSweepInterval:    time.Minute,
		RateLimitMaxMessages: 30,
		RateLimitWindow:      time.Second,
		HeartbeatInterval:    30 * time.Second,
		ConnectionTimeout:    60 * time.Second,
		MaxPositionMagnitude: 10000,
		MaxVelocityMagnitude: 500,
		ConnectRate:          20,
		ConnectBurst:         40,
		LogLevel:             "info",
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxPlayersPerRoom < 1 {
		return fmt.Errorf("max players per room must be at least 1, got %d", c.MaxPlayersPerRoom)
	}
	if c.RoomCodeLength < 4 {
		return fmt.Errorf("room code length must be at least 4, got %d", c.RoomCodeLength)
	}
	if c.RateLimitMaxMessages < 1 {
		return fmt.Errorf("rate limit max messages must be at least 1, got %d", c.RateLimitMaxMessages)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.RateLimitWindow)
	}
	if c.HeartbeatInterval <= 0 || c.ConnectionTimeout <= 0 {
		return fmt.Errorf("heartbeat interval and connection timeout must be positive")
	}
	if c.HeartbeatInterval >= c.ConnectionTimeout {
		return fmt.Errorf("heartbeat interval (%s) must be shorter than connection timeout (%s)",
			c.HeartbeatInterval, c.ConnectionTimeout)
	}
	if c.RoomIdleTimeout <= 0 || c.RoomSweepInterval <= 0 {
		return fmt.Errorf("room idle timeout and sweep interval must be positive")
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

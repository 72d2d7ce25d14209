package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vroomhub/garage-server/game/config"
	"github.com/vroomhub/garage-server/game/room"
	"github.com/vroomhub/garage-server/game/router"
	"github.com/vroomhub/garage-server/transport/websocket"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := room.NewManager(cfg, log)
	rt := router.New(cfg, rooms, log)
	gateway := websocket.NewGateway(cfg, rooms, rt, log)
	return NewServer(gateway)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("Expected status ok, got %q", body.Status)
	}
	if body.Timestamp == 0 {
		t.Error("Expected a timestamp")
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var stats websocket.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	// Only the lobby exists on a fresh server.
	if stats.RoomCount != 1 {
		t.Errorf("Expected 1 room, got %d", stats.RoomCount)
	}
	if stats.PlayerCount != 0 || stats.TotalConnections != 0 {
		t.Errorf("Expected empty server, got %+v", stats)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

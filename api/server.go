// Package api exposes the thin HTTP surface next to the WebSocket
// endpoint: a health probe and an aggregate stats query.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vroomhub/garage-server/transport/websocket"
)

// Server is the HTTP side channel. All real traffic rides the WebSocket
// at /ws; everything else here is status plumbing.
type Server struct {
	gateway *websocket.Gateway
	router  *mux.Router
}

// NewServer builds the HTTP server around the gateway.
func NewServer(gateway *websocket.Gateway) *Server {
	s := &Server{
		gateway: gateway,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/ws", s.gateway.HandleWS)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.gateway.Stats())
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

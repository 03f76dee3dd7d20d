package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/champdraft/go/internal/draft/events"
	"github.com/mcdev12/champdraft/go/internal/draft/session"
	"github.com/rs/zerolog/log"
)

// TypeSnapshot is the greeting frame carrying the current session view.
const TypeSnapshot events.Type = "Snapshot"

// StateProvider returns the live session view sent to new observers.
type StateProvider interface {
	Snapshot() (session.Snapshot, error)
}

// WebSocketHandler handles WebSocket upgrade requests for observers
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	state             StateProvider
}

// NewWebSocketHandler creates a new WebSocket handler. state may be nil.
func NewWebSocketHandler(cm *ConnectionManager, state StateProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		state:             state,
	}
}

// HandleConnection upgrades the request. An optional session_id query parameter
// limits the stream to that session.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	var sessionID uuid.UUID
	if raw := r.URL.Query().Get("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid session_id format", http.StatusBadRequest)
			return
		}
		sessionID = id
	}

	greeting := h.greeting(sessionID)
	if _, err := h.connectionManager.UpgradeConnection(w, r, sessionID, greeting); err != nil {
		// The upgrader has already replied with an HTTP error.
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
	}
}

func (h *WebSocketHandler) greeting(sessionID uuid.UUID) []byte {
	if h.state == nil {
		return nil
	}
	snap, err := h.state.Snapshot()
	if err != nil {
		log.Debug().Err(err).Msg("no snapshot for new observer")
		return nil
	}
	if sessionID != uuid.Nil && snap.ID != sessionID {
		return nil
	}
	data, err := events.New(snap.ID, TypeSnapshot, time.Now(), snap).Marshal()
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal snapshot greeting")
		return nil
	}
	return data
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.HandleConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

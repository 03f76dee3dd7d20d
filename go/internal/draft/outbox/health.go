package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	RelayActive   bool     `json:"relay_active"`
	NATSConnected bool     `json:"nats_connected"`
	Stats         Stats    `json:"stats"`
	Errors        []string `json:"errors"`
}

// ConnectionChecker is satisfied by JetStreamPublisher.
type ConnectionChecker interface {
	Connected() bool
}

type HealthChecker struct {
	relay *Relay
	conn  ConnectionChecker
	// maxPending marks the relay unhealthy when the queue backs up past it.
	maxPending int
}

func NewHealthChecker(relay *Relay, conn ConnectionChecker) *HealthChecker {
	return &HealthChecker{relay: relay, conn: conn, maxPending: relay.config.BufferSize * 3 / 4}
}

func (h *HealthChecker) Check(_ context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:     true,
		RelayActive: h.relay.Running(),
		Stats:       h.relay.Stats(),
		Errors:      []string{},
	}

	if !status.RelayActive {
		status.Healthy = false
		status.Errors = append(status.Errors, "relay not active")
	}

	if h.conn != nil {
		status.NATSConnected = h.conn.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if status.Stats.Pending > h.maxPending {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", status.Stats.Pending))
	}
	if status.Stats.Dropped > 0 {
		status.Errors = append(status.Errors, fmt.Sprintf("%d events dropped", status.Stats.Dropped))
	}
	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode outbox health")
	}
}

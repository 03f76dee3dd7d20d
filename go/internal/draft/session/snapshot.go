package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/champdraft/go/internal/models"
)

// Snapshot is a consistent read-only view of a session.
type Snapshot struct {
	ID                 uuid.UUID            `json:"id"`
	Round              int                  `json:"round"`
	State              models.SessionState  `json:"state"`
	TurnIndex          int                  `json:"turn_index"`
	CurrentParticipant *models.Participant  `json:"current_participant,omitempty"`
	RemainingSeconds   int                  `json:"remaining_seconds"`
	PickOrder          []models.Participant `json:"pick_order"`
	Teams              models.Teams         `json:"teams"`
	Items              []models.Item        `json:"items"`
	Selections         map[string]string    `json:"selections"`
	Claims             []models.Claim       `json:"claims"`
	Excluded           []string             `json:"excluded"`
	Settings           models.DraftSettings `json:"settings"`
	CreatedAt          time.Time            `json:"created_at"`
	StartedAt          *time.Time           `json:"started_at,omitempty"`
	CompletedAt        *time.Time           `json:"completed_at,omitempty"`
}

// Complete reports whether every participant holds an item.
func (s Snapshot) Complete() bool {
	return s.State == models.SessionStateCompleted && len(s.Selections) == len(s.PickOrder)
}

// Snapshot copies the session state under the lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		Round:      s.round,
		State:      s.state,
		TurnIndex:  s.index,
		PickOrder:  s.copyOrder(),
		Teams:      s.copyTeams(),
		Items:      s.copyOffered(),
		Selections: s.copySelections(),
		Claims:     append([]models.Claim(nil), s.history...),
		Excluded:   s.pool.ExcludedNames(),
		Settings:   s.settings,
		CreatedAt:  s.createdAt,
	}
	if s.state == models.SessionStateInTurn && s.index < len(s.order) {
		p := s.order[s.index]
		snap.CurrentParticipant = &p
	}
	if s.timer != nil {
		snap.RemainingSeconds = s.timer.RemainingSeconds()
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.completedAt.IsZero() {
		t := s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}

func (s *Session) copyOrder() []models.Participant {
	return append([]models.Participant(nil), s.order...)
}

func (s *Session) copyOffered() []models.Item {
	return append([]models.Item(nil), s.offered...)
}

func (s *Session) copyTeams() models.Teams {
	out := make(models.Teams, len(s.teams))
	for side, members := range s.teams {
		out[side] = append([]models.Participant(nil), members...)
	}
	return out
}

func (s *Session) copySelections() map[string]string {
	out := make(map[string]string, len(s.selections))
	for id, item := range s.selections {
		out[id] = item
	}
	return out
}

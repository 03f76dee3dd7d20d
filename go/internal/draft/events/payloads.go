package events

import (
	"time"

	"github.com/mcdev12/champdraft/go/internal/models"
)

// Event payload types shared between the session engine and its sinks

// SessionCreatedPayload is the payload for a SessionCreated event
type SessionCreatedPayload struct {
	Round     int                  `json:"round"`
	Teams     models.Teams         `json:"teams"`
	PickOrder []models.Participant `json:"pick_order"`
	Items     []models.Item        `json:"items"`
}

// SessionStartedPayload is the payload for a SessionStarted event
type SessionStartedPayload struct {
	StartedAt time.Time `json:"started_at"`
}

// TurnStartedPayload is the payload for a TurnStarted event
type TurnStartedPayload struct {
	Participant    models.Participant `json:"participant"`
	Turn           int                `json:"turn"`
	Side           models.Side        `json:"side"`
	StartedAt      time.Time          `json:"started_at"`
	TimeoutAt      time.Time          `json:"timeout_at"`
	TimePerPickSec int                `json:"time_per_pick_sec"`
}

// TimeRemainingPayload is the payload for a TimeRemaining event
type TimeRemainingPayload struct {
	Turn             int `json:"turn"`
	RemainingSeconds int `json:"remaining_seconds"`
}

// ClaimPayload is the payload for ClaimAccepted, ClaimCancelled and ForcedAssignment events
type ClaimPayload struct {
	Participant models.Participant `json:"participant"`
	Side        models.Side        `json:"side"`
	Item        string             `json:"item"`
	Turn        int                `json:"turn"`
	At          time.Time          `json:"at"`
}

// SessionCompletedPayload is the payload for a SessionCompleted event
type SessionCompletedPayload struct {
	Selections  map[string]string `json:"selections"`
	CompletedAt time.Time         `json:"completed_at"`
	Duration    string            `json:"duration"`
}

// SessionAbortedPayload is the payload for a SessionAborted event
type SessionAbortedPayload struct {
	AbortedAt time.Time `json:"aborted_at"`
	Reason    string    `json:"reason"`
}

// ParticipantOutcome is one participant's line of a resolved round
type ParticipantOutcome struct {
	Participant models.Participant `json:"participant"`
	Side        models.Side        `json:"side"`
	Item        string             `json:"item"`
	Won         bool               `json:"won"`
	Session     models.Record      `json:"session"`
	Cumulative  models.Record      `json:"cumulative"`
}

// RoundResolvedPayload is the payload for a RoundResolved event
type RoundResolvedPayload struct {
	Round    int                  `json:"round"`
	Winner   models.Side          `json:"winner"`
	Outcomes []ParticipantOutcome `json:"outcomes"`
}

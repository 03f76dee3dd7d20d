package models

import "time"

// SessionState defines the lifecycle phase of a draft session.
type SessionState string

const (
	SessionStateForming       SessionState = "FORMING"
	SessionStateAwaitingStart SessionState = "AWAITING_START"
	SessionStateInTurn        SessionState = "IN_TURN"
	SessionStateCompleted     SessionState = "COMPLETED"
	SessionStateAborted       SessionState = "ABORTED"
)

// Terminal reports whether no further transition can leave the state.
func (s SessionState) Terminal() bool {
	return s == SessionStateCompleted || s == SessionStateAborted
}

// DraftSettings holds the tunables a session is formed with.
type DraftSettings struct {
	PickTimeout   time.Duration `json:"pick_timeout"`
	ChampionCount int           `json:"champion_count"`
	TeamSize      int           `json:"team_size"`
	// Fearless keeps items claimed in earlier sessions out of later pools.
	Fearless bool `json:"fearless"`
}

const (
	DefaultPickTimeout   = 15 * time.Second
	DefaultChampionCount = 8
	DefaultTeamSize      = 3
)

// DefaultDraftSettings returns the settings used when nothing is configured.
func DefaultDraftSettings() DraftSettings {
	return DraftSettings{
		PickTimeout:   DefaultPickTimeout,
		ChampionCount: DefaultChampionCount,
		TeamSize:      DefaultTeamSize,
	}
}

// Participants is the number of players a session seats.
func (s DraftSettings) Participants() int {
	return s.TeamSize * 2
}

// WithDefaults replaces unset or non-positive values with the defaults.
func (s DraftSettings) WithDefaults() DraftSettings {
	if s.PickTimeout <= 0 {
		s.PickTimeout = DefaultPickTimeout
	}
	if s.ChampionCount <= 0 {
		s.ChampionCount = DefaultChampionCount
	}
	if s.TeamSize <= 0 {
		s.TeamSize = DefaultTeamSize
	}
	return s
}

package models

import "time"

// Claim is one accepted assignment of an item to a participant.
type Claim struct {
	ParticipantID string    `json:"participant_id"`
	Item          string    `json:"item"`
	Turn          int       `json:"turn"`
	Forced        bool      `json:"forced"` // set when the turn timer assigned it
	ClaimedAt     time.Time `json:"claimed_at"`
}

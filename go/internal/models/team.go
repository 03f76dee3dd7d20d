package models

import "fmt"

// Side identifies one of the two teams of a session.
type Side string

const (
	SideTeam1 Side = "team1"
	SideTeam2 Side = "team2"
)

// Sides lists both sides in display order.
var Sides = []Side{SideTeam1, SideTeam2}

// ParseSide validates a side name.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideTeam1, SideTeam2:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Teams partitions the session participants into two sides.
type Teams map[Side][]Participant

// SideOf returns the side the participant plays on.
func (t Teams) SideOf(participantID string) (Side, bool) {
	for _, side := range Sides {
		for _, p := range t[side] {
			if p.ID == participantID {
				return side, true
			}
		}
	}
	return "", false
}

// All returns every participant, team1 first.
func (t Teams) All() []Participant {
	all := make([]Participant, 0, len(t[SideTeam1])+len(t[SideTeam2]))
	for _, side := range Sides {
		all = append(all, t[side]...)
	}
	return all
}

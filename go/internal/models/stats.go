package models

// PlayerRecord is the persisted win counter of one participant.
type PlayerRecord struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// StatsSnapshot is the full persisted state of the stats store.
type StatsSnapshot struct {
	Players     map[string]PlayerRecord `json:"players"`
	TotalRounds int                     `json:"total_rounds"`
}

// NewStatsSnapshot returns an empty snapshot.
func NewStatsSnapshot() StatsSnapshot {
	return StatsSnapshot{Players: make(map[string]PlayerRecord)}
}

// Wins returns the win count of a participant, 0 when unknown.
func (s StatsSnapshot) Wins(participantID string) int {
	return s.Players[participantID].Wins
}

// WinMap flattens the snapshot into participant id to wins.
func (s StatsSnapshot) WinMap() map[string]int {
	wins := make(map[string]int, len(s.Players))
	for id, rec := range s.Players {
		wins[id] = rec.Wins
	}
	return wins
}

// Clone returns a deep copy so callers can mutate it freely.
func (s StatsSnapshot) Clone() StatsSnapshot {
	out := StatsSnapshot{Players: make(map[string]PlayerRecord, len(s.Players)), TotalRounds: s.TotalRounds}
	for id, rec := range s.Players {
		out.Players[id] = rec
	}
	return out
}

// Record is the cumulative view of one participant.
type Record struct {
	ParticipantID string  `json:"participant_id"`
	Name          string  `json:"name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"` // percentage, 0 when no rounds played
}

// CumulativeRecord derives wins, losses and win rate against the global round count.
func (s StatsSnapshot) CumulativeRecord(participantID string) Record {
	rec := s.Players[participantID]
	r := Record{ParticipantID: participantID, Name: rec.Name, Wins: rec.Wins}
	if s.TotalRounds > 0 {
		r.Losses = s.TotalRounds - rec.Wins
		r.WinRate = float64(rec.Wins) / float64(s.TotalRounds) * 100
	}
	return r
}

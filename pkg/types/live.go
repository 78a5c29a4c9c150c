package types

import "time"

// LiveMatch is one entry of the public live-match listing.
type LiveMatch struct {
	MatchID        string      `json:"matchId"`
	MatchType      string      `json:"matchType"`
	CurrentTurn    int         `json:"currentTurn"`
	Team1          TeamSummary `json:"team1"`
	Team2          TeamSummary `json:"team2"`
	SpectatorCount int         `json:"spectatorCount"`
	Status         string      `json:"status"`
	StartedAt      time.Time   `json:"startedAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type TeamSummary struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Kills        int    `json:"kills"`
	Towers       int    `json:"towers"`
	NexusHealth  int    `json:"nexusHealth"`
	DragonStacks int    `json:"dragonStacks"`
}

package match

import "github.com/DoyleJ11/moba-match-engine/internal/engine"

type EventType string

const (
	EvtMatchFound     EventType = "moba_match_found"
	EvtTurnStart      EventType = "moba_turn_start"
	EvtTeamfightAlert EventType = "moba_teamfight_alert"
	EvtTurnResult     EventType = "moba_turn_result"
	EvtGameEnd        EventType = "moba_game_end"
	EvtSpectateJoined EventType = "moba_spectate_joined"
	EvtSpectatorCount EventType = "moba_spectator_count"
)

// Event is one outbound message for a participant or spectator.
type Event struct {
	Type    EventType
	MatchID string
	Payload any
}

type Opponent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type MatchFound struct {
	State      engine.Match `json:"state"`
	TeamNumber int          `json:"teamNumber"`
	Opponent   Opponent     `json:"opponent"`
}

type TurnStart struct {
	Turn      int `json:"turn"`
	TimeLimit int `json:"timeLimit"`
}

type TeamfightAlert struct {
	Event     engine.Objective `json:"event"`
	EventName string           `json:"eventName"`
	Message   string           `json:"message"`
}

type TurnResult struct {
	Turn            int                     `json:"turn"`
	Events          []engine.LogEntry       `json:"events"`
	Team1State      engine.TeamState        `json:"team1State"`
	Team2State      engine.TeamState        `json:"team2State"`
	CombatResults   []engine.CombatResult   `json:"combatResults"`
	ObjectiveResult *engine.ObjectiveResult `json:"objectiveResult,omitempty"`
	GameEnd         *GameEnd                `json:"gameEnd,omitempty"`
}

type GameEnd struct {
	Winner     int              `json:"winner"`
	WinnerID   string           `json:"winnerId,omitempty"`
	Reason     engine.EndReason `json:"reason"`
	FinalState engine.Match     `json:"finalState"`
}

type SpectateJoined struct {
	State          engine.Match      `json:"state"`
	SpectatorCount int               `json:"spectatorCount"`
	Usernames      map[string]string `json:"usernames"`
}

type SpectatorCount struct {
	Count int `json:"count"`
}

var objectiveNames = map[engine.Objective]string{
	engine.ObjGrub:   "Void Grubs",
	engine.ObjDragon: "Dragon",
	engine.ObjHerald: "Rift Herald",
	engine.ObjBaron:  "Baron Nashor",
	engine.ObjElder:  "Elder Dragon",
}

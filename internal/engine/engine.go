package engine

import (
	"errors"
	"time"
)

var ErrDeckIncomplete = errors.New("deck incomplete")
var ErrInvalidAction = errors.New("invalid action")
var ErrInsufficientGold = errors.New("insufficient gold")
var ErrUnknownItem = errors.New("unknown item")
var ErrInventoryFull = errors.New("inventory full")

type MatchType string

const (
	MatchRanked MatchType = "RANKED"
	MatchNormal MatchType = "NORMAL"
)

func ParseMatchType(s string) (MatchType, bool) {
	switch MatchType(s) {
	case MatchRanked, MatchNormal:
		return MatchType(s), true
	default:
		return "", false
	}
}

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusEnded  Status = "ENDED"
)

type Position string

const (
	PosTop     Position = "TOP"
	PosJungle  Position = "JUNGLE"
	PosMid     Position = "MID"
	PosADC     Position = "ADC"
	PosSupport Position = "SUPPORT"
)

// Positions is the fixed role order used for every team and for every
// deterministic iteration over combatants.
var Positions = [5]Position{PosTop, PosJungle, PosMid, PosADC, PosSupport}

func ParsePosition(s string) (Position, bool) {
	for _, p := range Positions {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

type Lane string

const (
	LaneTop Lane = "TOP"
	LaneMid Lane = "MID"
	LaneBot Lane = "BOT"
)

var Lanes = [3]Lane{LaneTop, LaneMid, LaneBot}

func ParseLane(s string) (Lane, bool) {
	for _, l := range Lanes {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Zone is where a combatant spends a turn: one of the three lanes or the jungle.
type Zone string

const (
	ZoneTop    Zone = "TOP"
	ZoneMid    Zone = "MID"
	ZoneBot    Zone = "BOT"
	ZoneJungle Zone = "JUNGLE"
)

var zoneOrder = [4]Zone{ZoneTop, ZoneMid, ZoneBot, ZoneJungle}

func (z Zone) Lane() (Lane, bool) {
	switch z {
	case ZoneTop:
		return LaneTop, true
	case ZoneMid:
		return LaneMid, true
	case ZoneBot:
		return LaneBot, true
	default:
		return "", false
	}
}

type Objective string

const (
	ObjGrub   Objective = "GRUB"
	ObjDragon Objective = "DRAGON"
	ObjHerald Objective = "HERALD"
	ObjBaron  Objective = "BARON"
	ObjElder  Objective = "ELDER"
)

// Teamfight reports whether the objective pulls every combatant in and
// warrants an advance alert.
func (o Objective) Teamfight() bool {
	return o == ObjBaron || o == ObjElder
}

type EndReason string

const (
	ReasonNexusDestroyed EndReason = "NEXUS_DESTROYED"
	ReasonSurrender      EndReason = "SURRENDER"
	ReasonEngineError    EndReason = "ENGINE_ERROR"
)

type LogType string

const (
	LogKill      LogType = "KILL"
	LogTower     LogType = "TOWER"
	LogObjective LogType = "OBJECTIVE"
	LogLevelUp   LogType = "LEVEL_UP"
	LogItem      LogType = "ITEM"
	LogGameEnd   LogType = "GAME_END"
	LogInfo      LogType = "INFO"
)

type LogEntry struct {
	Turn      int            `json:"turn"`
	Timestamp time.Time      `json:"timestamp"`
	Type      LogType        `json:"type"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

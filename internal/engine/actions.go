package engine

import (
	"fmt"
	"slices"
)

type Action string

const (
	ActFight      Action = "FIGHT"
	ActDefend     Action = "DEFEND"
	ActFarm       Action = "FARM"
	ActRecall     Action = "RECALL"
	ActRoamTop    Action = "ROAM_TOP"
	ActRoamMid    Action = "ROAM_MID"
	ActRoamBot    Action = "ROAM_BOT"
	ActRoamJungle Action = "ROAM_JUNGLE"
	ActGankTop    Action = "GANK_TOP"
	ActGankMid    Action = "GANK_MID"
	ActGankBot    Action = "GANK_BOT"
)

var (
	topActions     = []Action{ActFight, ActDefend, ActRoamMid, ActRoamJungle, ActRecall}
	jungleActions  = []Action{ActFarm, ActGankTop, ActGankMid, ActGankBot, ActRecall}
	midActions     = []Action{ActFight, ActDefend, ActRoamTop, ActRoamBot, ActRoamJungle, ActRecall}
	adcActions     = []Action{ActFight, ActDefend, ActRoamJungle, ActRecall}
	supportActions = []Action{ActFight, ActDefend, ActRoamMid, ActRoamJungle, ActRecall}
)

// AllowedActions returns the closed action set of a position. The slice is
// shared and must not be modified.
func (p Position) AllowedActions() []Action {
	switch p {
	case PosTop:
		return topActions
	case PosJungle:
		return jungleActions
	case PosMid:
		return midActions
	case PosADC:
		return adcActions
	case PosSupport:
		return supportActions
	default:
		return nil
	}
}

func (p Position) Allows(a Action) bool {
	return slices.Contains(p.AllowedActions(), a)
}

// DefaultAction is what a combatant does when its side sent nothing in time.
func (p Position) DefaultAction() Action {
	if p == PosJungle {
		return ActFarm
	}
	return ActFight
}

// HomeZone is where FIGHT and DEFEND take place.
func (p Position) HomeZone() Zone {
	switch p {
	case PosTop:
		return ZoneTop
	case PosMid:
		return ZoneMid
	case PosJungle:
		return ZoneJungle
	default:
		return ZoneBot
	}
}

// TurnAction is one combatant's intent for a turn.
type TurnAction struct {
	OderID        string `json:"oderId"`
	Action        Action `json:"action"`
	TargetItemID  string `json:"targetItemId,omitempty"`
	SellItemID    string `json:"sellItemId,omitempty"`
	UseItemTarget Lane   `json:"useItemTarget,omitempty"`
}

// ActionIssue records an intent that was dropped during validation.
type ActionIssue struct {
	OderID string `json:"oderId"`
	Action Action `json:"action"`
	Reason string `json:"reason"`
}

// ValidateActions filters a side's submission down to intents for living
// combatants of that team whose action is in the position's set. When the
// same combatant appears twice the later entry wins.
func ValidateActions(team TeamState, actions []TurnAction) ([]TurnAction, []ActionIssue) {
	var issues []ActionIssue
	byID := make(map[string]TurnAction, len(actions))
	for _, a := range actions {
		p := team.Player(a.OderID)
		switch {
		case p == nil:
			issues = append(issues, ActionIssue{OderID: a.OderID, Action: a.Action, Reason: "unknown combatant"})
			continue
		case p.IsDead:
			issues = append(issues, ActionIssue{OderID: a.OderID, Action: a.Action, Reason: "combatant is dead"})
			continue
		case !p.Position.Allows(a.Action):
			issues = append(issues, ActionIssue{OderID: a.OderID, Action: a.Action,
				Reason: fmt.Sprintf("%s not allowed for %s", a.Action, p.Position)})
			continue
		}
		if a.UseItemTarget != "" {
			if _, ok := ParseLane(string(a.UseItemTarget)); !ok {
				a.UseItemTarget = ""
			}
		}
		byID[a.OderID] = a
	}

	out := make([]TurnAction, 0, len(byID))
	for _, p := range team.Players {
		if a, ok := byID[p.OderID]; ok {
			out = append(out, a)
		}
	}
	return out, issues
}

// FillDefaults returns one action per living combatant of the team: the
// submitted one when present and valid, the position default otherwise.
// The second return value counts synthesized defaults.
func FillDefaults(team TeamState, submitted []TurnAction) ([]TurnAction, int) {
	valid, _ := ValidateActions(team, submitted)
	byID := make(map[string]TurnAction, len(valid))
	for _, a := range valid {
		byID[a.OderID] = a
	}

	out := make([]TurnAction, 0, len(team.Players))
	defaults := 0
	for _, p := range team.Players {
		if p.IsDead {
			continue
		}
		if a, ok := byID[p.OderID]; ok {
			out = append(out, a)
			continue
		}
		out = append(out, TurnAction{OderID: p.OderID, Action: p.Position.DefaultAction()})
		defaults++
	}
	return out, defaults
}

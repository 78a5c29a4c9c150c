package engine

import (
	"fmt"
	"math/rand/v2"
)

const (
	baronDuration    = 5
	elderDuration    = 3
	heraldChance     = 0.70
	baronTowerChance = 0.50
	elderExecChance  = 0.50
)

// objectiveTiers is the priority used when two objectives land on the same turn.
var objectiveTiers = []Objective{ObjElder, ObjBaron, ObjHerald, ObjDragon, ObjGrub}

// ObjectiveAt returns the objective that becomes contestable on a turn.
func ObjectiveAt(turn int) (Objective, bool) {
	for _, o := range objectiveTiers {
		if scheduled(o, turn) {
			return o, true
		}
	}
	return "", false
}

func scheduled(o Objective, turn int) bool {
	switch o {
	case ObjGrub:
		return turn == 4
	case ObjDragon:
		return turn >= 6 && turn%6 == 0
	case ObjHerald:
		return turn == 9
	case ObjBaron:
		return turn >= 20 && (turn-20)%15 == 0
	case ObjElder:
		return turn >= 33 && (turn-33)%11 == 0
	default:
		return false
	}
}

// ObjectiveResult describes a resolved contest. Winner is 0 when neither team
// had a living combatant to contest it.
type ObjectiveResult struct {
	Objective       Objective `json:"objective"`
	Winner          int       `json:"winner"`
	Team1Power      int       `json:"team1Power"`
	Team2Power      int       `json:"team2Power"`
	TowerDestroyed  *Lane     `json:"towerDestroyed,omitempty"`
	Executed        []string  `json:"executed,omitempty"`
	BuffExpiresTurn int       `json:"buffExpiresTurn,omitempty"`
}

// teamPower sums living combatants, weighted by kill participation this turn.
func teamPower(t *TeamState, takedowns map[string]int) int {
	total := 0
	for _, p := range t.Players {
		if p.IsDead {
			continue
		}
		base := p.Attack + p.Defense + p.CurrentHealth/10
		total += base * (100 + 10*takedowns[p.OderID]) / 100
	}
	return total
}

func contestObjective(r *resolution, obj Objective) *ObjectiveResult {
	res := &ObjectiveResult{
		Objective:  obj,
		Team1Power: teamPower(&r.teams[0], r.takedowns),
		Team2Power: teamPower(&r.teams[1], r.takedowns),
	}
	total := res.Team1Power + res.Team2Power
	roll := r.rng.Float64()
	switch {
	case total == 0:
		r.log(LogObjective, fmt.Sprintf("%s went uncontested", obj), map[string]any{"objective": obj})
		return res
	case roll*float64(total) < float64(res.Team1Power):
		res.Winner = 1
	default:
		res.Winner = 2
	}

	winner := &r.teams[res.Winner-1]
	loser := &r.teams[2-res.Winner]
	switch obj {
	case ObjGrub:
		winner.GrubBuff = true
	case ObjDragon:
		winner.DragonStacks++
	case ObjHerald:
		if r.rng.Float64() < heraldChance {
			res.TowerDestroyed = r.razeTower(loser, 3-res.Winner)
		}
	case ObjBaron:
		winner.BaronBuff = true
		winner.BaronExpiresTurn = r.turn + baronDuration
		res.BuffExpiresTurn = winner.BaronExpiresTurn
		if r.rng.Float64() < baronTowerChance {
			res.TowerDestroyed = r.razeTower(loser, 3-res.Winner)
		}
	case ObjElder:
		winner.ElderBuff = true
		winner.ElderExpiresTurn = r.turn + elderDuration
		res.BuffExpiresTurn = winner.ElderExpiresTurn
		if r.rng.Float64() < elderExecChance {
			for i := range loser.Players {
				p := &loser.Players[i]
				if p.IsDead {
					continue
				}
				kill(p, r.turn)
				res.Executed = append(res.Executed, p.OderID)
			}
		}
	}

	r.log(LogObjective, fmt.Sprintf("Team %d secured %s", res.Winner, obj), map[string]any{
		"objective": obj,
		"winner":    res.Winner,
	})
	if len(res.Executed) > 0 {
		r.log(LogKill, fmt.Sprintf("Elder execute on team %d", 3-res.Winner), map[string]any{
			"executed": res.Executed,
		})
	}
	return res
}

// razeTower instantly destroys the loser's weakest front tower. Only front
// towers are eligible so lane order is preserved.
func (r *resolution) razeTower(t *TeamState, teamNo int) *Lane {
	var target *TowerState
	for _, l := range Lanes {
		tw := t.FrontTower(l)
		if tw == nil {
			continue
		}
		if target == nil || tw.Health < target.Health {
			target = tw
		}
	}
	if target == nil {
		return nil
	}
	target.Health = 0
	target.IsDestroyed = true
	lane := target.Lane
	r.log(LogTower, fmt.Sprintf("Team %d lost %s tower %d", teamNo, lane, target.Position), map[string]any{
		"team": teamNo, "lane": lane, "position": target.Position,
	})
	return &lane
}

// TurnRand is the per-turn random source. Seeding by (match seed, turn) lets
// any turn be replayed from its starting snapshot.
func TurnRand(seed uint64, turn int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(turn)))
}

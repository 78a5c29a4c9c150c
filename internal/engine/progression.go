package engine

import "fmt"

const (
	levelAttack  = 4
	levelDefense = 2
	levelHealth  = 60
)

// ExperienceToNext is the experience needed to go from level to level+1.
func ExperienceToNext(level int) int {
	return 100 + 40*(level-1)
}

// RespawnDelay is how many turns a combatant killed at level stays dead.
// Always at least one, growing by one every six levels.
func RespawnDelay(level int) int {
	return 1 + level/6
}

func grantExperience(p *PlayerState, xp int) {
	if p.Level >= MaxLevel {
		return
	}
	p.Experience += xp
}

// applyLevelUps converts banked experience into levels and returns how many
// levels were gained.
func applyLevelUps(p *PlayerState) int {
	gained := 0
	for p.Level < MaxLevel && p.Experience >= ExperienceToNext(p.Level) {
		p.Experience -= ExperienceToNext(p.Level)
		p.Level++
		p.Attack += levelAttack
		p.Defense += levelDefense
		p.MaxHealth += levelHealth
		if !p.IsDead {
			p.CurrentHealth = clamp(p.CurrentHealth+levelHealth, 0, p.MaxHealth)
		}
		gained++
	}
	if p.Level >= MaxLevel {
		p.Experience = 0
	}
	return gained
}

func kill(p *PlayerState, turn int) {
	p.CurrentHealth = 0
	p.IsDead = true
	p.Deaths++
	p.RespawnTurn = turn + RespawnDelay(p.Level)
}

func respawn(p *PlayerState) {
	p.IsDead = false
	p.CurrentHealth = p.MaxHealth
	p.RespawnTurn = 0
}

// ReviveDue brings back every dead combatant whose respawn turn is at or
// before turn and returns their ids.
func (t *TeamState) ReviveDue(turn int) []string {
	var revived []string
	for i := range t.Players {
		p := &t.Players[i]
		if p.IsDead && p.RespawnTurn <= turn {
			respawn(p)
			revived = append(revived, p.OderID)
		}
	}
	return revived
}

func levelMessage(p *PlayerState) string {
	return fmt.Sprintf("%s reached level %d", p.Name, p.Level)
}

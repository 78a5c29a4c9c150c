package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelUp_CurveAndCap(t *testing.T) {
	p := NewPlayer(1, PlayerSeed{PlayerID: "c1", Position: PosMid, Overall: 60})
	base := p

	grantExperience(&p, ExperienceToNext(1))
	assert.Equal(t, 1, applyLevelUps(&p))
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, base.Attack+levelAttack, p.Attack)
	assert.Equal(t, base.Defense+levelDefense, p.Defense)
	assert.Equal(t, base.MaxHealth+levelHealth, p.MaxHealth)
	assert.Equal(t, p.MaxHealth, p.CurrentHealth)

	grantExperience(&p, 1_000_000)
	applyLevelUps(&p)
	assert.Equal(t, MaxLevel, p.Level)
	assert.Equal(t, 0, p.Experience)

	grantExperience(&p, 500)
	assert.Equal(t, 0, applyLevelUps(&p))
	assert.Equal(t, MaxLevel, p.Level)
}

func TestRespawnDelay_AlwaysInFuture(t *testing.T) {
	prev := 0
	for lvl := 1; lvl <= MaxLevel; lvl++ {
		d := RespawnDelay(lvl)
		assert.GreaterOrEqual(t, d, 1)
		assert.GreaterOrEqual(t, d, prev, "respawn timer never shrinks with level")
		prev = d
	}
}

func TestReviveDue(t *testing.T) {
	team, err := NewTeam(1, "userA", DefaultSeeds("a", 75))
	require.NoError(t, err)
	kill(team.Player("t1-TOP"), 1)
	kill(team.Player("t1-MID"), 1)
	team.Player("t1-MID").RespawnTurn = 5

	assert.Equal(t, []string{"t1-TOP"}, team.ReviveDue(2))
	top := team.Player("t1-TOP")
	assert.False(t, top.IsDead)
	assert.Equal(t, top.MaxHealth, top.CurrentHealth)
	assert.Zero(t, top.RespawnTurn)
	assert.True(t, team.Player("t1-MID").IsDead)

	assert.Empty(t, team.ReviveDue(2), "revival happens once")
	assert.Equal(t, []string{"t1-MID"}, team.ReviveDue(5))
}

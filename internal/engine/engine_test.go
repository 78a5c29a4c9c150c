package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeams(t *testing.T) (TeamState, TeamState) {
	t.Helper()
	t1, err := NewTeam(1, "userA", DefaultSeeds("a", 75))
	require.NoError(t, err)
	t2, err := NewTeam(2, "userB", DefaultSeeds("b", 75))
	require.NoError(t, err)
	return t1, t2
}

// benchAllExcept kills every combatant except the listed ones for the next 100 turns.
func benchAllExcept(team *TeamState, keep ...string) {
	for i := range team.Players {
		p := &team.Players[i]
		alive := false
		for _, k := range keep {
			if p.OderID == k {
				alive = true
			}
		}
		if !alive {
			p.IsDead = true
			p.CurrentHealth = 0
			p.RespawnTurn = 100
		}
	}
}

func assertInvariants(t *testing.T, team TeamState) {
	t.Helper()
	for _, p := range team.Players {
		require.GreaterOrEqual(t, p.CurrentHealth, 0, p.OderID)
		require.LessOrEqual(t, p.CurrentHealth, p.MaxHealth, p.OderID)
		require.LessOrEqual(t, p.Level, MaxLevel)
		require.LessOrEqual(t, len(p.Items), MaxItems)
	}
	for _, tw := range team.Towers {
		require.GreaterOrEqual(t, tw.Health, 0)
		require.LessOrEqual(t, tw.Health, tw.MaxHealth)
	}
	require.GreaterOrEqual(t, team.NexusHealth, 0)
	require.LessOrEqual(t, team.NexusHealth, team.MaxNexusHealth)
	for _, l := range Lanes {
		towers := team.LaneTowers(l)
		for i := 1; i < len(towers); i++ {
			if !towers[i-1].IsDestroyed {
				require.Equal(t, towers[i].MaxHealth, towers[i].Health,
					"%s tower %d damaged while tower %d stands", l, towers[i].Position, towers[i-1].Position)
			}
		}
	}
}

func TestAllowedActions(t *testing.T) {
	cases := []struct {
		pos     Position
		action  Action
		allowed bool
	}{
		{PosTop, ActFight, true},
		{PosTop, ActRoamMid, true},
		{PosTop, ActFarm, false},
		{PosJungle, ActGankBot, true},
		{PosJungle, ActFight, false},
		{PosMid, ActRoamBot, true},
		{PosMid, ActRoamMid, false},
		{PosADC, ActRoamJungle, true},
		{PosADC, ActRoamMid, false},
		{PosSupport, ActRoamMid, true},
		{PosSupport, ActGankTop, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.pos)+"/"+string(tc.action), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.pos.Allows(tc.action))
		})
	}
}

func TestValidateDeck(t *testing.T) {
	full := DefaultSeeds("x", 70)

	require.NoError(t, ValidateDeck(full))

	missing := full[:4]
	assert.True(t, errors.Is(ValidateDeck(missing), ErrDeckIncomplete))

	dup := append([]PlayerSeed{}, full...)
	dup[4].Position = PosTop
	assert.True(t, errors.Is(ValidateDeck(dup), ErrDeckIncomplete))

	empty := append([]PlayerSeed{}, full...)
	empty[2].Overall = 0
	assert.True(t, errors.Is(ValidateDeck(empty), ErrDeckIncomplete))
}

func TestValidateActions_DropsBadEntries(t *testing.T) {
	team, _ := newTeams(t)
	team.Players[2].IsDead = true // mid

	valid, issues := ValidateActions(team, []TurnAction{
		{OderID: "t1-TOP", Action: ActFight},
		{OderID: "t1-JUNGLE", Action: ActFight},
		{OderID: "t1-MID", Action: ActFight},
		{OderID: "nobody", Action: ActFight},
		{OderID: "t1-ADC", Action: ActDefend},
		{OderID: "t1-ADC", Action: ActRoamJungle},
	})

	require.Len(t, valid, 2)
	assert.Equal(t, TurnAction{OderID: "t1-TOP", Action: ActFight}, valid[0])
	assert.Equal(t, ActRoamJungle, valid[1].Action, "later entry for the same combatant wins")
	assert.Len(t, issues, 3)
}

func TestFillDefaults_SynthesizesForSilentSide(t *testing.T) {
	team, _ := newTeams(t)

	actions, defaults := FillDefaults(team, nil)

	require.Len(t, actions, 5)
	assert.Equal(t, 5, defaults)
	for _, a := range actions {
		if a.OderID == "t1-JUNGLE" {
			assert.Equal(t, ActFarm, a.Action)
		} else {
			assert.Equal(t, ActFight, a.Action)
		}
	}
}

func TestFillDefaults_SkipsDead(t *testing.T) {
	team, _ := newTeams(t)
	team.Players[0].IsDead = true

	actions, defaults := FillDefaults(team, []TurnAction{{OderID: "t1-MID", Action: ActRoamBot}})

	require.Len(t, actions, 4)
	assert.Equal(t, 3, defaults)
}

func TestResolve_SimpleKill(t *testing.T) {
	t1, t2 := newTeams(t)
	benchAllExcept(&t1, "t1-TOP")
	benchAllExcept(&t2, "t2-TOP")
	x := t1.Player("t1-TOP")
	x.Attack, x.CritChance, x.LifeSteal = 100, 0, 0
	y := t2.Player("t2-TOP")
	y.Defense, y.CurrentHealth, y.CritChance = 20, 50, 0

	out := Resolve(TurnInput{
		Turn:    3,
		Team1:   t1,
		Team2:   t2,
		Actions: []TurnAction{{OderID: "t1-TOP", Action: ActFight}, {OderID: "t2-TOP", Action: ActFight}},
		Rand:    TurnRand(1, 3),
	})

	dead := out.Team2.Player("t2-TOP")
	assert.Equal(t, 0, dead.CurrentHealth)
	assert.True(t, dead.IsDead)
	assert.Greater(t, dead.RespawnTurn, 3)
	assert.Equal(t, 1, dead.Deaths)
	assert.Equal(t, 1, out.Team1.Player("t1-TOP").Kills)
	assert.True(t, ContainsLog(out.Events, LogKill))
	require.Len(t, out.CombatResults, 1)
	assert.Equal(t, 1, out.CombatResults[0].Winner)
}

func TestResolve_TowerChain(t *testing.T) {
	t1, t2 := newTeams(t)
	benchAllExcept(&t1, "t1-TOP")
	benchAllExcept(&t2)
	outer := t2.LaneTowers(LaneTop)[0]
	outer.Health, outer.IsDestroyed = 0, true

	out := Resolve(TurnInput{
		Turn:    5,
		Team1:   t1,
		Team2:   t2,
		Actions: []TurnAction{{OderID: "t1-TOP", Action: ActFight}},
		Rand:    TurnRand(1, 5),
	})

	towers := out.Team2.LaneTowers(LaneTop)
	assert.True(t, towers[0].IsDestroyed)
	assert.Equal(t, 0, towers[0].Health)
	assert.Less(t, towers[1].Health, towers[1].MaxHealth, "second tower takes the hit")
	assert.Equal(t, towers[2].MaxHealth, towers[2].Health)
	assert.Equal(t, out.Team2.MaxNexusHealth, out.Team2.NexusHealth)
}

func TestResolve_OpenLaneHitsNexus(t *testing.T) {
	t1, t2 := newTeams(t)
	benchAllExcept(&t1, "t1-MID")
	benchAllExcept(&t2)
	for _, tw := range t2.LaneTowers(LaneMid) {
		tw.Health, tw.IsDestroyed = 0, true
	}
	t2.NexusHealth = 10

	out := Resolve(TurnInput{Turn: 7, Team1: t1, Team2: t2, Rand: TurnRand(1, 7)})

	assert.Equal(t, 0, out.Team2.NexusHealth)
	assert.Equal(t, 1, out.Winner)
}

func TestResolve_DefendHoldsTowers(t *testing.T) {
	t1, t2 := newTeams(t)
	benchAllExcept(&t1, "t1-TOP")
	benchAllExcept(&t2)

	out := Resolve(TurnInput{
		Turn:    2,
		Team1:   t1,
		Team2:   t2,
		Actions: []TurnAction{{OderID: "t1-TOP", Action: ActDefend}},
		Rand:    TurnRand(1, 2),
	})

	front := out.Team2.LaneTowers(LaneTop)[0]
	assert.Equal(t, front.MaxHealth, front.Health)
}

func TestResolve_InsufficientGoldLeavesStateAlone(t *testing.T) {
	t1, t2 := newTeams(t)
	before := *t1.Player("t1-ADC")

	out := Resolve(TurnInput{
		Turn:  2,
		Team1: t1,
		Team2: t2,
		Actions: []TurnAction{
			{OderID: "t1-ADC", Action: ActRecall, TargetItemID: "INFINITY_EDGE"},
		},
		Rand: TurnRand(1, 2),
	})

	after := out.Team1.Player("t1-ADC")
	assert.Empty(t, after.Items)
	assert.Equal(t, before.Attack, after.Attack)
	assert.Equal(t, before.Gold+recallGold, after.Gold)
	require.NotEmpty(t, out.Issues)
	assert.Contains(t, out.Issues[0].Reason, ErrInsufficientGold.Error())
}

func TestResolve_PurchaseBeforeCombat(t *testing.T) {
	t1, t2 := newTeams(t)

	out := Resolve(TurnInput{
		Turn:    2,
		Team1:   t1,
		Team2:   t2,
		Actions: []TurnAction{{OderID: "t1-TOP", Action: ActRecall, TargetItemID: "LONG_SWORD"}},
		Rand:    TurnRand(1, 2),
	})

	p := out.Team1.Player("t1-TOP")
	assert.Equal(t, []string{"LONG_SWORD"}, p.Items)
	assert.Equal(t, t1.Player("t1-TOP").Attack+10, p.Attack)
	assert.True(t, ContainsLog(out.Events, LogItem))
}

func TestResolve_TeleportJoinsLane(t *testing.T) {
	t1, t2 := newTeams(t)
	benchAllExcept(&t1, "t1-SUPPORT")
	benchAllExcept(&t2, "t2-TOP")
	sup := t1.Player("t1-SUPPORT")
	sup.Items = []string{ItemTeleport}

	out := Resolve(TurnInput{
		Turn:    2,
		Team1:   t1,
		Team2:   t2,
		Actions: []TurnAction{{OderID: "t1-SUPPORT", Action: ActFight, UseItemTarget: LaneTop}},
		Rand:    TurnRand(1, 2),
	})

	require.Len(t, out.CombatResults, 1)
	assert.Equal(t, ZoneTop, out.CombatResults[0].Zone)
	assert.Equal(t, []string{"t1-SUPPORT"}, out.CombatResults[0].Team1)
	assert.Empty(t, out.Team1.Player("t1-SUPPORT").Items)
}

func TestResolve_FarmingJunglerExposedOnlyToInvaders(t *testing.T) {
	t1, t2 := newTeams(t)
	benchAllExcept(&t1, "t1-JUNGLE")
	benchAllExcept(&t2, "t2-ADC")

	safe := Resolve(TurnInput{Turn: 2, Team1: t1, Team2: t2,
		Actions: []TurnAction{{OderID: "t2-ADC", Action: ActDefend}}, Rand: TurnRand(1, 2)})
	assert.Equal(t, t1.Player("t1-JUNGLE").Gold+farmGold, safe.Team1.Player("t1-JUNGLE").Gold)

	invaded := Resolve(TurnInput{Turn: 2, Team1: t1, Team2: t2,
		Actions: []TurnAction{{OderID: "t2-ADC", Action: ActRoamJungle}}, Rand: TurnRand(1, 2)})
	var jungle *CombatResult
	for i := range invaded.CombatResults {
		if invaded.CombatResults[i].Zone == ZoneJungle {
			jungle = &invaded.CombatResults[i]
		}
	}
	require.NotNil(t, jungle)
	assert.Equal(t, []string{"t1-JUNGLE"}, jungle.Team1)
}

func TestResolve_FarmingJunglersExposedRegardlessOfTeamOrder(t *testing.T) {
	jungleFight := func(out TurnOutput) *CombatResult {
		for i := range out.CombatResults {
			if out.CombatResults[i].Zone == ZoneJungle {
				return &out.CombatResults[i]
			}
		}
		return nil
	}

	tests := []struct {
		name    string
		invader string
		team1   []string
		team2   []string
	}{
		{"team 1 invades", "t1-ADC", []string{"t1-ADC", "t1-JUNGLE"}, []string{"t2-JUNGLE"}},
		{"team 2 invades", "t2-ADC", []string{"t1-JUNGLE"}, []string{"t2-ADC", "t2-JUNGLE"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t1, t2 := newTeams(t)
			benchAllExcept(&t1, tc.team1...)
			benchAllExcept(&t2, tc.team2...)

			out := Resolve(TurnInput{Turn: 2, Team1: t1, Team2: t2,
				Actions: []TurnAction{
					{OderID: tc.invader, Action: ActRoamJungle},
					{OderID: "t1-JUNGLE", Action: ActFarm},
					{OderID: "t2-JUNGLE", Action: ActFarm},
				}, Rand: TurnRand(1, 2)})

			jungle := jungleFight(out)
			require.NotNil(t, jungle)
			assert.ElementsMatch(t, tc.team1, jungle.Team1)
			assert.ElementsMatch(t, tc.team2, jungle.Team2)
		})
	}
}

func TestResolve_FarmingJunglersAloneStaySafe(t *testing.T) {
	t1, t2 := newTeams(t)
	benchAllExcept(&t1, "t1-JUNGLE")
	benchAllExcept(&t2, "t2-JUNGLE")

	out := Resolve(TurnInput{Turn: 2, Team1: t1, Team2: t2,
		Actions: []TurnAction{
			{OderID: "t1-JUNGLE", Action: ActFarm},
			{OderID: "t2-JUNGLE", Action: ActFarm},
		}, Rand: TurnRand(1, 2)})

	assert.Empty(t, out.CombatResults)
	assert.Equal(t, t1.Player("t1-JUNGLE").Gold+farmGold, out.Team1.Player("t1-JUNGLE").Gold)
	assert.Equal(t, t2.Player("t2-JUNGLE").Gold+farmGold, out.Team2.Player("t2-JUNGLE").Gold)
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	t1, t2 := newTeams(t)
	snap1, snap2 := t1.Clone(), t2.Clone()

	Resolve(TurnInput{Turn: 1, Team1: t1, Team2: t2, Rand: TurnRand(9, 1)})

	assert.Equal(t, snap1, t1)
	assert.Equal(t, snap2, t2)
}

func TestResolve_Deterministic(t *testing.T) {
	run := func() ([]LogEntry, TeamState, TeamState) {
		t1, t2 := newTeams(t)
		at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		var log []LogEntry
		for turn := 1; turn <= 40; turn++ {
			obj, _ := ObjectiveAt(turn)
			acts := []TurnAction{{OderID: "t1-MID", Action: ActRoamBot}, {OderID: "t2-JUNGLE", Action: ActGankMid}}
			out := Resolve(TurnInput{Turn: turn, At: at, Team1: t1, Team2: t2, Actions: acts, Objective: obj, Rand: TurnRand(42, turn)})
			log = append(log, out.Events...)
			t1, t2 = out.Team1, out.Team2
			if out.Winner != 0 {
				break
			}
		}
		return log, t1, t2
	}

	log1, a1, b1 := run()
	log2, a2, b2 := run()
	assert.Equal(t, log1, log2)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestResolve_DefaultActionsAlwaysFinish(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3} {
		t1, t2 := newTeams(t)
		winner := 0
		for turn := 1; turn <= 400 && winner == 0; turn++ {
			obj, _ := ObjectiveAt(turn)
			out := Resolve(TurnInput{Turn: turn, Team1: t1, Team2: t2, Objective: obj, Rand: TurnRand(seed, turn)})
			assertInvariants(t, out.Team1)
			assertInvariants(t, out.Team2)
			t1, t2 = out.Team1, out.Team2
			winner = out.Winner
		}
		require.NotZero(t, winner, "seed %d never finished", seed)
		loser := t1
		if winner == 1 {
			loser = t2
		}
		assert.Equal(t, 0, loser.NexusHealth)
	}
}

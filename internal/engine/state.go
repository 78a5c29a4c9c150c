package engine

import (
	"fmt"
	"slices"
	"time"
)

const (
	MaxItems       = 6
	MaxLevel       = 18
	MaxNexusHealth = 5000
	StartingGold   = 500
)

// Tower health by tier, outer to inner.
var towerHealth = [3]int{1500, 2000, 2500}

// PlayerSeed is what the deck collaborator hands over for one role slot.
// Overall already folds in enhancement and synergy bonuses.
type PlayerSeed struct {
	PlayerID string   `json:"playerId"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Overall  int      `json:"overall"`
}

type PlayerState struct {
	OderID        string   `json:"oderId"`
	PlayerID      string   `json:"playerId"`
	Name          string   `json:"name"`
	Position      Position `json:"position"`
	Level         int      `json:"level"`
	Experience    int      `json:"experience"`
	MaxHealth     int      `json:"maxHealth"`
	CurrentHealth int      `json:"currentHealth"`
	Attack        int      `json:"attack"`
	Defense       int      `json:"defense"`
	Speed         int      `json:"speed"`
	CritChance    float64  `json:"critChance"`
	LifeSteal     float64  `json:"lifeSteal"`
	Gold          int      `json:"gold"`
	Items         []string `json:"items"`
	IsDead        bool     `json:"isDead"`
	RespawnTurn   int      `json:"respawnTurn"`
	Kills         int      `json:"kills"`
	Deaths        int      `json:"deaths"`
	Assists       int      `json:"assists"`
}

func (p PlayerState) Alive() bool { return !p.IsDead }

type TowerState struct {
	Lane        Lane `json:"lane"`
	Position    int  `json:"position"`
	Health      int  `json:"health"`
	MaxHealth   int  `json:"maxHealth"`
	IsDestroyed bool `json:"isDestroyed"`
}

type TeamState struct {
	OwnerID          string        `json:"ownerId"`
	Players          []PlayerState `json:"players"`
	Towers           []TowerState  `json:"towers"`
	NexusHealth      int           `json:"nexusHealth"`
	MaxNexusHealth   int           `json:"maxNexusHealth"`
	GrubBuff         bool          `json:"grubBuff"`
	DragonStacks     int           `json:"dragonStacks"`
	BaronBuff        bool          `json:"baronBuff"`
	BaronExpiresTurn int           `json:"baronExpiresTurn"`
	ElderBuff        bool          `json:"elderBuff"`
	ElderExpiresTurn int           `json:"elderExpiresTurn"`
}

// Match is the full client-observable state of one game.
type Match struct {
	MatchID       string     `json:"matchId"`
	MatchType     MatchType  `json:"matchType"`
	Status        Status     `json:"status"`
	CurrentTurn   int        `json:"currentTurn"`
	TurnStartTime time.Time  `json:"turnStartTime"`
	MaxTurnTime   int        `json:"maxTurnTime"`
	Seed          uint64     `json:"-"`
	Team1         TeamState  `json:"team1"`
	Team2         TeamState  `json:"team2"`
	Log           []LogEntry `json:"log"`
	Winner        int        `json:"winner,omitempty"`
	EndReason     EndReason  `json:"endReason,omitempty"`
}

func (m *Match) Team(n int) *TeamState {
	if n == 1 {
		return &m.Team1
	}
	return &m.Team2
}

// Clone returns a deep copy so snapshots handed to other goroutines never
// alias the session's working state.
func (m Match) Clone() Match {
	c := m
	c.Team1 = m.Team1.Clone()
	c.Team2 = m.Team2.Clone()
	c.Log = slices.Clone(m.Log)
	return c
}

// ValidateDeck checks that seeds fill exactly one slot per position.
func ValidateDeck(seeds []PlayerSeed) error {
	if len(seeds) != len(Positions) {
		return fmt.Errorf("%w: %d of %d slots filled", ErrDeckIncomplete, len(seeds), len(Positions))
	}
	seen := make(map[Position]bool, len(Positions))
	for _, s := range seeds {
		if _, ok := ParsePosition(string(s.Position)); !ok {
			return fmt.Errorf("%w: unknown position %q", ErrDeckIncomplete, s.Position)
		}
		if seen[s.Position] {
			return fmt.Errorf("%w: duplicate position %s", ErrDeckIncomplete, s.Position)
		}
		if s.PlayerID == "" || s.Overall <= 0 {
			return fmt.Errorf("%w: empty %s slot", ErrDeckIncomplete, s.Position)
		}
		seen[s.Position] = true
	}
	return nil
}

func NewPlayer(teamNo int, seed PlayerSeed) PlayerState {
	crit, steal := roleTraits(seed.Position)
	health := 500 + 10*seed.Overall
	return PlayerState{
		OderID:        fmt.Sprintf("t%d-%s", teamNo, seed.Position),
		PlayerID:      seed.PlayerID,
		Name:          seed.Name,
		Position:      seed.Position,
		Level:         1,
		MaxHealth:     health,
		CurrentHealth: health,
		Attack:        40 + seed.Overall,
		Defense:       10 + seed.Overall/4,
		Speed:         seed.Overall,
		CritChance:    crit,
		LifeSteal:     steal,
		Gold:          StartingGold,
		Items:         []string{},
	}
}

func roleTraits(p Position) (crit, lifeSteal float64) {
	switch p {
	case PosTop:
		return 0.10, 0.10
	case PosJungle:
		return 0.10, 0.10
	case PosMid:
		return 0.15, 0.05
	case PosADC:
		return 0.25, 0.10
	default:
		return 0.05, 0.05
	}
}

// NewTeam builds a fresh team with full towers and nexus. Players are stored
// in Positions order regardless of seed order.
func NewTeam(teamNo int, ownerID string, seeds []PlayerSeed) (TeamState, error) {
	if err := ValidateDeck(seeds); err != nil {
		return TeamState{}, err
	}
	t := TeamState{
		OwnerID:        ownerID,
		Players:        make([]PlayerState, 0, len(Positions)),
		Towers:         make([]TowerState, 0, len(Lanes)*len(towerHealth)),
		NexusHealth:    MaxNexusHealth,
		MaxNexusHealth: MaxNexusHealth,
	}
	for _, pos := range Positions {
		for _, s := range seeds {
			if s.Position == pos {
				t.Players = append(t.Players, NewPlayer(teamNo, s))
			}
		}
	}
	for _, lane := range Lanes {
		for i, hp := range towerHealth {
			t.Towers = append(t.Towers, TowerState{Lane: lane, Position: i + 1, Health: hp, MaxHealth: hp})
		}
	}
	return t, nil
}

// NewMatch assembles an ACTIVE match at turn 1.
func NewMatch(id string, mt MatchType, seed uint64, turnTime time.Duration, team1, team2 TeamState) Match {
	return Match{
		MatchID:     id,
		MatchType:   mt,
		Status:      StatusActive,
		CurrentTurn: 1,
		MaxTurnTime: int(turnTime / time.Second),
		Seed:        seed,
		Team1:       team1,
		Team2:       team2,
		Log:         []LogEntry{},
	}
}

func (t TeamState) Clone() TeamState {
	c := t
	c.Players = make([]PlayerState, len(t.Players))
	for i, p := range t.Players {
		p.Items = slices.Clone(p.Items)
		c.Players[i] = p
	}
	c.Towers = slices.Clone(t.Towers)
	return c
}

func (t *TeamState) Player(oderID string) *PlayerState {
	for i := range t.Players {
		if t.Players[i].OderID == oderID {
			return &t.Players[i]
		}
	}
	return nil
}

// LaneTowers returns pointers to the lane's towers ordered outer to inner.
func (t *TeamState) LaneTowers(l Lane) []*TowerState {
	out := make([]*TowerState, 0, len(towerHealth))
	for i := range t.Towers {
		if t.Towers[i].Lane == l {
			out = append(out, &t.Towers[i])
		}
	}
	slices.SortFunc(out, func(a, b *TowerState) int { return a.Position - b.Position })
	return out
}

// FrontTower is the outer-most standing tower of a lane, nil if the lane is open.
func (t *TeamState) FrontTower(l Lane) *TowerState {
	for _, tw := range t.LaneTowers(l) {
		if !tw.IsDestroyed {
			return tw
		}
	}
	return nil
}

func (t TeamState) TowersStanding() int {
	n := 0
	for _, tw := range t.Towers {
		if !tw.IsDestroyed {
			n++
		}
	}
	return n
}

func (t TeamState) Kills() int {
	n := 0
	for _, p := range t.Players {
		n += p.Kills
	}
	return n
}

func (t TeamState) LivingCount() int {
	n := 0
	for _, p := range t.Players {
		if p.Alive() {
			n++
		}
	}
	return n
}

package engine

import (
	"fmt"
	"time"
)

const (
	critPct          = 175
	defendPct        = 150
	grubPct          = 125
	structureFactor  = 2
	dragonAttackPct  = 5
	baronAttackPct   = 20
	elderAttackPct   = 30
	killGold         = 300
	assistGold       = 150
	killXP           = 100
	assistXP         = 50
	winGold, winXP   = 100, 120
	loseGold, loseXP = 60, 80
	farmGold, farmXP = 150, 100
	recallGold       = 50
	recallXP         = 30
)

// Random is the only source of chance the resolver consults.
type Random interface {
	Float64() float64
}

// TurnInput is everything needed to resolve one turn. Actions may contain
// entries for both teams; membership is decided by oderId.
type TurnInput struct {
	Turn      int
	At        time.Time
	Team1     TeamState
	Team2     TeamState
	Actions   []TurnAction
	Objective Objective
	Rand      Random
}

type TurnOutput struct {
	Team1         TeamState        `json:"team1State"`
	Team2         TeamState        `json:"team2State"`
	CombatResults []CombatResult   `json:"combatResults"`
	Events        []LogEntry       `json:"events"`
	Objective     *ObjectiveResult `json:"objectiveResult,omitempty"`
	Winner        int              `json:"-"`
	Issues        []ActionIssue    `json:"-"`
	Defaults      int              `json:"-"`
}

type DamageRecord struct {
	Attacker string `json:"attacker"`
	Target   string `json:"target"`
	Amount   int    `json:"amount"`
	Crit     bool   `json:"crit,omitempty"`
}

type KillRecord struct {
	Killer  string   `json:"killer"`
	Victim  string   `json:"victim"`
	Assists []string `json:"assists,omitempty"`
}

type CombatResult struct {
	Zone            Zone           `json:"zone"`
	Team1           []string       `json:"team1"`
	Team2           []string       `json:"team2"`
	Winner          int            `json:"winner"`
	Damage          []DamageRecord `json:"damage,omitempty"`
	Kills           []KillRecord   `json:"kills,omitempty"`
	StructureDamage int            `json:"structureDamage,omitempty"`
}

type combatant struct {
	team int // 0 or 1
	p    *PlayerState
	act  Action
}

type resolution struct {
	turn      int
	at        time.Time
	teams     [2]TeamState
	rng       Random
	events    []LogEntry
	takedowns map[string]int
	actions   map[string]TurnAction
	exposed   map[string]bool
	winner    int
}

// Resolve computes the outcome of one turn. The input teams are not modified.
// Given the same input and an identically seeded Rand the output is identical.
func Resolve(in TurnInput) TurnOutput {
	r := &resolution{
		turn:      in.Turn,
		at:        in.At,
		teams:     [2]TeamState{in.Team1.Clone(), in.Team2.Clone()},
		rng:       in.Rand,
		events:    []LogEntry{},
		takedowns: map[string]int{},
		actions:   map[string]TurnAction{},
		exposed:   map[string]bool{},
	}
	out := TurnOutput{CombatResults: []CombatResult{}}

	r.prepare()
	out.Issues, out.Defaults = r.collectActions(in.Actions)
	out.Issues = append(out.Issues, r.shop()...)

	zones := r.group()
	results := make(map[Zone]*CombatResult, len(zoneOrder))
	for _, z := range zoneOrder {
		if len(zones[z]) == 0 {
			continue
		}
		res := r.fight(z, zones[z])
		results[z] = &res
	}
	r.farm()
	for _, z := range zoneOrder {
		if res, ok := results[z]; ok {
			r.siege(z, zones[z], res)
			out.CombatResults = append(out.CombatResults, *res)
		}
	}
	r.levelUp()
	if in.Objective != "" {
		out.Objective = contestObjective(r, in.Objective)
	}

	out.Team1, out.Team2 = r.teams[0], r.teams[1]
	out.Events = r.events
	out.Winner = r.winner
	return out
}

func (r *resolution) log(t LogType, msg string, data map[string]any) {
	r.events = append(r.events, LogEntry{Turn: r.turn, Timestamp: r.at, Type: t, Message: msg, Data: data})
}

// prepare expires buffs and revives combatants whose timer elapsed.
func (r *resolution) prepare() {
	for ti := range r.teams {
		t := &r.teams[ti]
		if t.BaronBuff && r.turn > t.BaronExpiresTurn {
			t.BaronBuff = false
			r.log(LogInfo, fmt.Sprintf("Team %d baron buff expired", ti+1), nil)
		}
		if t.ElderBuff && r.turn > t.ElderExpiresTurn {
			t.ElderBuff = false
			r.log(LogInfo, fmt.Sprintf("Team %d elder buff expired", ti+1), nil)
		}
		t.ReviveDue(r.turn)
	}
}

func (r *resolution) collectActions(all []TurnAction) ([]ActionIssue, int) {
	var issues []ActionIssue
	defaults := 0
	for ti := range r.teams {
		t := r.teams[ti]
		var mine []TurnAction
		for _, a := range all {
			if t.Player(a.OderID) != nil {
				mine = append(mine, a)
			}
		}
		_, bad := ValidateActions(t, mine)
		issues = append(issues, bad...)
		filled, n := FillDefaults(t, mine)
		defaults += n
		for _, a := range filled {
			r.actions[a.OderID] = a
		}
	}
	for _, a := range all {
		if r.teams[0].Player(a.OderID) == nil && r.teams[1].Player(a.OderID) == nil {
			issues = append(issues, ActionIssue{OderID: a.OderID, Action: a.Action, Reason: "unknown combatant"})
		}
	}
	return issues, defaults
}

func (r *resolution) shop() []ActionIssue {
	var issues []ActionIssue
	r.eachLiving(func(ti int, p *PlayerState) {
		a := r.actions[p.OderID]
		if a.SellItemID != "" {
			if err := SellItem(p, a.SellItemID); err != nil {
				issues = append(issues, ActionIssue{OderID: p.OderID, Action: a.Action, Reason: err.Error()})
			} else {
				r.log(LogItem, fmt.Sprintf("%s sold %s", p.Name, a.SellItemID), map[string]any{
					"oderId": p.OderID, "item": a.SellItemID, "sold": true,
				})
			}
		}
		if a.TargetItemID != "" {
			if err := BuyItem(p, a.TargetItemID); err != nil {
				issues = append(issues, ActionIssue{OderID: p.OderID, Action: a.Action, Reason: err.Error()})
			} else {
				r.log(LogItem, fmt.Sprintf("%s bought %s", p.Name, a.TargetItemID), map[string]any{
					"oderId": p.OderID, "item": a.TargetItemID,
				})
			}
		}
	})
	return issues
}

// group places every living combatant into the zone its action leads to.
// Recalling and safely farming combatants are left out.
func (r *resolution) group() map[Zone][]combatant {
	zones := make(map[Zone][]combatant, len(zoneOrder))
	var farmers []combatant
	r.eachLiving(func(ti int, p *PlayerState) {
		a := r.actions[p.OderID]
		c := combatant{team: ti, p: p, act: a.Action}
		if a.UseItemTarget != "" && a.Action != ActRecall && consumeItem(p, ItemTeleport) {
			z := Zone(a.UseItemTarget)
			r.log(LogItem, fmt.Sprintf("%s teleported to %s", p.Name, z), map[string]any{
				"oderId": p.OderID, "item": ItemTeleport, "lane": a.UseItemTarget,
			})
			zones[z] = append(zones[z], c)
			return
		}
		switch a.Action {
		case ActFight, ActDefend:
			zones[p.Position.HomeZone()] = append(zones[p.Position.HomeZone()], c)
		case ActRoamTop, ActGankTop:
			zones[ZoneTop] = append(zones[ZoneTop], c)
		case ActRoamMid, ActGankMid:
			zones[ZoneMid] = append(zones[ZoneMid], c)
		case ActRoamBot, ActGankBot:
			zones[ZoneBot] = append(zones[ZoneBot], c)
		case ActRoamJungle:
			zones[ZoneJungle] = append(zones[ZoneJungle], c)
		case ActFarm:
			farmers = append(farmers, c)
		}
	})

	// A farming jungler is only exposed when an enemy is in the jungle.
	// Exposure is decided from the non-farmers first; an exposed farmer in
	// turn exposes an enemy farmer.
	var farming, exposed [2]bool
	for _, f := range farmers {
		farming[f.team] = true
	}
	for _, c := range zones[ZoneJungle] {
		exposed[1-c.team] = farming[1-c.team]
	}
	for ti := range exposed {
		if exposed[1-ti] && farming[ti] {
			exposed[ti] = true
		}
	}
	for _, f := range farmers {
		if exposed[f.team] {
			zones[ZoneJungle] = append(zones[ZoneJungle], f)
		}
	}
	for _, cs := range zones {
		for _, c := range cs {
			r.exposed[c.p.OderID] = true
		}
	}
	return zones
}

func (r *resolution) attackPct(ti int) int {
	t := r.teams[ti]
	pct := 100 + dragonAttackPct*t.DragonStacks
	if t.BaronBuff {
		pct += baronAttackPct
	}
	if t.ElderBuff {
		pct += elderAttackPct
	}
	return pct
}

func (r *resolution) fight(z Zone, cs []combatant) CombatResult {
	res := CombatResult{Zone: z, Team1: []string{}, Team2: []string{}}
	present := [2]bool{}
	for _, c := range cs {
		present[c.team] = true
		if c.team == 0 {
			res.Team1 = append(res.Team1, c.p.OderID)
		} else {
			res.Team2 = append(res.Team2, c.p.OderID)
		}
	}

	if !present[0] || !present[1] {
		w := 0
		if !present[0] {
			w = 1
		}
		res.Winner = w + 1
		for _, c := range cs {
			c.p.Gold += winGold
			grantExperience(c.p, winXP)
		}
		return res
	}

	// Targets are chosen from start-of-combat health and all damage lands at once.
	startHP := make(map[string]int, len(cs))
	for _, c := range cs {
		startHP[c.p.OderID] = c.p.CurrentHealth
	}
	dealt := map[string]int{}
	taken := map[string]map[string]int{}
	for _, a := range cs {
		var target *combatant
		for i := range cs {
			d := &cs[i]
			if d.team == a.team {
				continue
			}
			if target == nil || startHP[d.p.OderID] < startHP[target.p.OderID] {
				target = d
			}
		}
		def := target.p.Defense
		if target.act == ActDefend {
			def = def * defendPct / 100
		}
		dmg := a.p.Attack*r.attackPct(a.team)/100 - def
		if dmg < 1 {
			dmg = 1
		}
		crit := r.rng.Float64() < a.p.CritChance
		if crit {
			dmg = dmg * critPct / 100
		}
		res.Damage = append(res.Damage, DamageRecord{Attacker: a.p.OderID, Target: target.p.OderID, Amount: dmg, Crit: crit})
		dealt[a.p.OderID] += dmg
		if taken[target.p.OderID] == nil {
			taken[target.p.OderID] = map[string]int{}
		}
		taken[target.p.OderID][a.p.OderID] += dmg
	}

	for _, d := range res.Damage {
		v := r.find(d.Target)
		v.CurrentHealth = clamp(v.CurrentHealth-d.Amount, 0, v.MaxHealth)
	}
	for _, c := range cs {
		if c.p.CurrentHealth > 0 && c.p.LifeSteal > 0 {
			heal := int(float64(dealt[c.p.OderID]) * c.p.LifeSteal)
			c.p.CurrentHealth = clamp(c.p.CurrentHealth+heal, 0, c.p.MaxHealth)
		}
	}

	for _, c := range cs {
		if c.p.CurrentHealth > 0 {
			continue
		}
		kill(c.p, r.turn)
		rec := r.creditKill(c.p, taken[c.p.OderID], cs)
		res.Kills = append(res.Kills, rec)
	}

	res.Winner = r.skirmishWinner(cs, dealt)
	for _, c := range cs {
		if c.p.IsDead {
			continue
		}
		if c.team+1 == res.Winner {
			c.p.Gold += winGold
			grantExperience(c.p, winXP)
		} else {
			c.p.Gold += loseGold
			grantExperience(c.p, loseXP)
		}
	}
	return res
}

// creditKill gives the kill to the heaviest damage dealer and assists to the
// rest of the damage dealers. Ties go to the earlier combatant in group order.
func (r *resolution) creditKill(victim *PlayerState, by map[string]int, cs []combatant) KillRecord {
	rec := KillRecord{Victim: victim.OderID}
	best := -1
	for _, c := range cs {
		if amt, ok := by[c.p.OderID]; ok && amt > best {
			best = amt
			rec.Killer = c.p.OderID
		}
	}
	for _, c := range cs {
		id := c.p.OderID
		if _, ok := by[id]; !ok {
			continue
		}
		r.takedowns[id]++
		if id == rec.Killer {
			c.p.Kills++
			c.p.Gold += killGold
			grantExperience(c.p, killXP)
			continue
		}
		rec.Assists = append(rec.Assists, id)
		c.p.Assists++
		c.p.Gold += assistGold
		grantExperience(c.p, assistXP)
	}
	msg := fmt.Sprintf("%s died", victim.Name)
	if killer := r.find(rec.Killer); killer != nil {
		msg = fmt.Sprintf("%s killed %s", killer.Name, victim.Name)
	}
	r.log(LogKill, msg, map[string]any{
		"killer":  rec.Killer,
		"victim":  rec.Victim,
		"assists": rec.Assists,
	})
	return rec
}

func (r *resolution) skirmishWinner(cs []combatant, dealt map[string]int) int {
	var alive, hp, dmg [2]int
	for _, c := range cs {
		dmg[c.team] += dealt[c.p.OderID]
		if !c.p.IsDead {
			alive[c.team]++
			hp[c.team] += c.p.CurrentHealth
		}
	}
	switch {
	case alive[0] == 0 && alive[1] == 0:
		return 0
	case alive[1] == 0:
		return 1
	case alive[0] == 0:
		return 2
	case hp[0] != hp[1]:
		if hp[0] > hp[1] {
			return 1
		}
		return 2
	case dmg[0] != dmg[1]:
		if dmg[0] > dmg[1] {
			return 1
		}
		return 2
	case r.rng.Float64() < 0.5:
		return 1
	default:
		return 2
	}
}

func (r *resolution) farm() {
	r.eachLiving(func(ti int, p *PlayerState) {
		if r.exposed[p.OderID] {
			return
		}
		switch r.actions[p.OderID].Action {
		case ActFarm:
			p.Gold += farmGold
			grantExperience(p, farmXP)
		case ActRecall:
			p.CurrentHealth = p.MaxHealth
			p.Gold += recallGold
			grantExperience(p, recallXP)
		}
	})
}

// siege applies a lane winner's pressure to the loser's front tower, or to the
// nexus once the lane is open. Baron or elder adds a direct nexus hit.
func (r *resolution) siege(z Zone, cs []combatant, res *CombatResult) {
	lane, ok := z.Lane()
	if !ok || res.Winner == 0 || r.winner != 0 {
		return
	}
	wi := res.Winner - 1
	sum := 0
	for _, c := range cs {
		if c.team == wi && !c.p.IsDead && c.act != ActDefend {
			sum += c.p.Attack * r.attackPct(wi) / 100
		}
	}
	if sum == 0 {
		return
	}
	dmg := sum * structureFactor
	if r.teams[wi].GrubBuff {
		dmg = dmg * grubPct / 100
	}
	res.StructureDamage = dmg

	enemy := &r.teams[1-wi]
	if tw := enemy.FrontTower(lane); tw != nil {
		tw.Health = clamp(tw.Health-dmg, 0, tw.MaxHealth)
		if tw.Health == 0 {
			tw.IsDestroyed = true
			r.log(LogTower, fmt.Sprintf("Team %d destroyed %s tower %d", wi+1, lane, tw.Position), map[string]any{
				"team": 2 - wi, "lane": lane, "position": tw.Position,
			})
		}
		if r.teams[wi].BaronBuff || r.teams[wi].ElderBuff {
			r.hitNexus(wi, max(1, dmg/2))
		}
		return
	}
	r.hitNexus(wi, dmg)
}

func (r *resolution) hitNexus(attacker int, dmg int) {
	if r.winner != 0 {
		return
	}
	enemy := &r.teams[1-attacker]
	enemy.NexusHealth = clamp(enemy.NexusHealth-dmg, 0, enemy.MaxNexusHealth)
	r.log(LogInfo, fmt.Sprintf("Team %d hit the enemy nexus for %d", attacker+1, dmg), map[string]any{
		"team": 2 - attacker, "damage": dmg, "nexusHealth": enemy.NexusHealth,
	})
	if enemy.NexusHealth == 0 {
		r.winner = attacker + 1
		r.log(LogTower, fmt.Sprintf("Team %d destroyed the nexus", attacker+1), map[string]any{"team": 2 - attacker})
	}
}

func (r *resolution) levelUp() {
	for ti := range r.teams {
		for i := range r.teams[ti].Players {
			p := &r.teams[ti].Players[i]
			if applyLevelUps(p) > 0 {
				r.log(LogLevelUp, levelMessage(p), map[string]any{"oderId": p.OderID, "level": p.Level})
			}
		}
	}
}

func (r *resolution) eachLiving(fn func(ti int, p *PlayerState)) {
	for ti := range r.teams {
		for i := range r.teams[ti].Players {
			p := &r.teams[ti].Players[i]
			if !p.IsDead {
				fn(ti, p)
			}
		}
	}
}

func (r *resolution) find(oderID string) *PlayerState {
	if p := r.teams[0].Player(oderID); p != nil {
		return p
	}
	return r.teams[1].Player(oderID)
}

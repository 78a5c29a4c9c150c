package match

import (
	"context"
	"fmt"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/DoyleJ11/moba-match-engine/internal/settlement"
	"github.com/DoyleJ11/moba-match-engine/pkg/types"
	"go.uber.org/zap"
)

func (s *Session) start() {
	s.startedAt = s.deps.Now()
	s.deps.Metrics.MatchStarted(string(s.match.MatchType))
	s.log.Info("match started",
		zap.String("type", string(s.match.MatchType)),
		zap.String("team1", s.participants[0].UserID),
		zap.String("team2", s.participants[1].UserID),
	)
	for team := 1; team <= 2; team++ {
		s.sendTo(team, EvtMatchFound, s.matchFound(team))
	}
	s.openTurn()
}

// openTurn revives combatants due back this turn, arms the deadline and
// announces the turn.
func (s *Session) openTurn() {
	s.phase = PhaseAwaitingActions
	s.pending = [2][]engine.TurnAction{}
	s.submitted = [2]bool{}
	s.timedOut = false
	s.match.TurnStartTime = s.deps.Now()

	turn := s.match.CurrentTurn
	for team := 1; team <= 2; team++ {
		for _, id := range s.match.Team(team).ReviveDue(turn) {
			s.log.Debug("combatant respawned", zap.Int("turn", turn), zap.String("oder_id", id))
		}
	}
	s.stopTimer()
	s.timer = time.AfterFunc(s.cfg.TurnTime, func() {
		select {
		case s.inbox <- turnDeadline{Turn: turn}:
		case <-s.done:
		}
	})

	s.broadcast(EvtTurnStart, TurnStart{Turn: turn, TimeLimit: s.match.MaxTurnTime})
	if obj, ok := engine.ObjectiveAt(turn); ok && obj.Teamfight() {
		s.broadcast(EvtTeamfightAlert, TeamfightAlert{
			Event:     obj,
			EventName: objectiveNames[obj],
			Message:   fmt.Sprintf("%s is contested this turn.", objectiveNames[obj]),
		})
	}
	s.publishListing()
}

func (s *Session) resolveTurn() {
	s.phase = PhaseResolving
	s.stopTimer()

	turn := s.match.CurrentTurn
	obj, _ := engine.ObjectiveAt(turn)
	actions := make([]engine.TurnAction, 0, 2*len(engine.Positions))
	actions = append(actions, s.pending[0]...)
	actions = append(actions, s.pending[1]...)

	began := time.Now()
	out, err := s.safeResolve(engine.TurnInput{
		Turn:      turn,
		At:        s.deps.Now(),
		Team1:     s.match.Team1,
		Team2:     s.match.Team2,
		Actions:   actions,
		Objective: obj,
		Rand:      engine.TurnRand(s.match.Seed, turn),
	})
	if err != nil {
		s.log.Error("turn resolution failed", zap.Int("turn", turn), zap.Error(err))
		s.end(0, engine.ReasonEngineError, nil)
		return
	}
	s.lastTurn = turn
	s.deps.Metrics.TurnResolved(time.Since(began), out.Defaults, s.timedOut)
	for _, iss := range out.Issues {
		s.log.Warn("action dropped during resolution",
			zap.Int("turn", turn),
			zap.String("oder_id", iss.OderID),
			zap.String("reason", iss.Reason),
		)
	}

	s.match.Team1, s.match.Team2 = out.Team1, out.Team2
	s.match.Log = append(s.match.Log, out.Events...)
	s.match.CurrentTurn++

	result := TurnResult{
		Turn:            turn,
		Events:          out.Events,
		Team1State:      out.Team1.Clone(),
		Team2State:      out.Team2.Clone(),
		CombatResults:   out.CombatResults,
		ObjectiveResult: out.Objective,
	}
	if out.Winner != 0 {
		s.end(out.Winner, engine.ReasonNexusDestroyed, &result)
		return
	}
	s.broadcast(EvtTurnResult, result)
	s.openTurn()
}

func (s *Session) safeResolve(in engine.TurnInput) (out engine.TurnOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver panic: %v", r)
		}
	}()
	return s.deps.Resolve(in), nil
}

// end moves the session to ENDED. winner is 0 for a no contest. When the end
// was produced by a turn, that turn's result goes out first carrying the
// game end.
func (s *Session) end(winner int, reason engine.EndReason, last *TurnResult) {
	s.stopTimer()
	s.phase = PhaseEnded
	s.match.Status = engine.StatusEnded
	s.match.Winner = winner
	s.match.EndReason = reason

	ge := GameEnd{Winner: winner, Reason: reason}
	msg := "Match ended without a result"
	if winner != 0 {
		ge.WinnerID = s.participants[winner-1].UserID
		msg = fmt.Sprintf("Team %d wins", winner)
	}
	s.match.Log = append(s.match.Log, engine.LogEntry{
		Turn:      s.lastTurn,
		Timestamp: s.deps.Now(),
		Type:      engine.LogGameEnd,
		Message:   msg,
		Data:      map[string]any{"winner": winner, "reason": reason},
	})
	ge.FinalState = s.match.Clone()

	if last != nil {
		last.GameEnd = &ge
		s.broadcast(EvtTurnResult, *last)
	}
	s.broadcast(EvtGameEnd, ge)
	s.log.Info("match ended", zap.Int("winner", winner), zap.String("reason", string(reason)), zap.Int("turns", s.lastTurn))

	s.removeListing()
	s.settle(ge)
	s.deps.Metrics.MatchEnded(string(s.match.MatchType), string(reason))
	s.deps.Metrics.SpectatorsChanged(-len(s.spectators))
	clear(s.spectators)
	if s.deps.OnEnd != nil {
		s.deps.OnEnd(s.match.MatchID)
	}
}

func (s *Session) settle(ge GameEnd) {
	if s.deps.Settler == nil {
		return
	}
	res := settlement.Result{
		MatchID:    s.match.MatchID,
		MatchType:  s.match.MatchType,
		Team1ID:    s.participants[0].UserID,
		Team2ID:    s.participants[1].UserID,
		WinnerTeam: ge.Winner,
		Reason:     ge.Reason,
		Turns:      s.lastTurn,
		Seed:       s.match.Seed,
		EndedAt:    s.deps.Now(),
		Final:      ge.FinalState,
	}
	if ge.Winner != 0 {
		res.WinnerID = s.participants[ge.Winner-1].UserID
		res.LoserID = s.participants[engine.Opponent(ge.Winner)-1].UserID
	}

	// the session context may already be cancelled on shutdown
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), s.cfg.SettleTimeout)
	defer cancel()
	if err := s.deps.Settler.Settle(ctx, res); err != nil {
		s.log.Error("settlement failed", zap.Error(err))
	}
}

func (s *Session) listing() types.LiveMatch {
	summary := func(i int, t engine.TeamState) types.TeamSummary {
		return types.TeamSummary{
			UserID:       s.participants[i].UserID,
			Username:     s.participants[i].Username,
			Kills:        t.Kills(),
			Towers:       t.TowersStanding(),
			NexusHealth:  t.NexusHealth,
			DragonStacks: t.DragonStacks,
		}
	}
	return types.LiveMatch{
		MatchID:        s.match.MatchID,
		MatchType:      string(s.match.MatchType),
		CurrentTurn:    s.match.CurrentTurn,
		Team1:          summary(0, s.match.Team1),
		Team2:          summary(1, s.match.Team2),
		SpectatorCount: len(s.spectators),
		Status:         string(s.match.Status),
		StartedAt:      s.startedAt,
		UpdatedAt:      s.deps.Now(),
	}
}

func (s *Session) publishListing() {
	if s.deps.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()
	if err := s.deps.Publisher.Publish(ctx, s.listing()); err != nil {
		s.log.Warn("publish live listing", zap.Error(err))
	}
}

func (s *Session) removeListing() {
	if s.deps.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), 2*time.Second)
	defer cancel()
	if err := s.deps.Publisher.Remove(ctx, s.match.MatchID); err != nil {
		s.log.Warn("remove live listing", zap.Error(err))
	}
}

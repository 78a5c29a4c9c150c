package match

import "go.uber.org/zap"

// deliver never blocks the session. Outboxes are owned by the connection, so
// they are dropped here but never closed.
func (s *Session) deliver(ch chan<- Event, ev Event) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- ev:
		return true
	default:
		return false
	}
}

func (s *Session) sendTo(team int, t EventType, payload any) {
	p := &s.participants[team-1]
	if p.Outbox == nil {
		return
	}
	if !s.deliver(p.Outbox, Event{Type: t, MatchID: s.match.MatchID, Payload: payload}) {
		// the match keeps running on defaults; Attach restores the feed
		s.log.Warn("participant outbox full, detaching", zap.String("user_id", p.UserID))
		p.Outbox = nil
	}
}

// broadcast sends to both participants and every spectator. Spectators that
// cannot keep up are removed and the remaining ones get a new count.
func (s *Session) broadcast(t EventType, payload any) {
	s.sendTo(1, t, payload)
	s.sendTo(2, t, payload)

	ev := Event{Type: t, MatchID: s.match.MatchID, Payload: payload}
	dropped := 0
	for id, ch := range s.spectators {
		if !s.deliver(ch, ev) {
			delete(s.spectators, id)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Warn("dropped slow spectators", zap.Int("count", dropped))
		s.deps.Metrics.SpectatorsChanged(-dropped)
		s.broadcastCount()
	}
}

func (s *Session) broadcastCount() {
	s.broadcast(EvtSpectatorCount, SpectatorCount{Count: len(s.spectators)})
}

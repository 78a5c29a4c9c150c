package hub

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/DoyleJ11/moba-match-engine/internal/match"
	"github.com/DoyleJ11/moba-match-engine/internal/queue"
	"github.com/lithammer/shortuuid"
	"go.uber.org/zap"
)

type HubMsg interface{ isHubMsg() }

type CreateMatch struct {
	Match engine.Match
	Team1 match.Participant
	Team2 match.Participant
	Reply chan *match.Session
}

type GetMatch struct {
	ID    string
	Reply chan *match.Session
}

type ListMatches struct {
	Reply chan []string
}

type RemoveMatch struct {
	ID string
}

type ShutdownHub struct{}

func (CreateMatch) isHubMsg() {}
func (GetMatch) isHubMsg()    {}
func (ListMatches) isHubMsg() {}
func (RemoveMatch) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Hub owns every live session. Sessions remove themselves once settled.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*match.Session
	cfg      match.Config
	deps     match.Deps
	log      *zap.Logger

	newID   func() string
	newSeed func() uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub starts the registry. deps is the template every session is created
// with; its OnEnd is replaced by the hub.
func NewHub(parent context.Context, cfg match.Config, deps match.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*match.Session),
		cfg:      cfg,
		deps:     deps,
		log:      deps.Logger,
		newID:    shortuuid.New,
		newSeed:  rand.Uint64,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateMatch:
				if s := h.sessions[msg.Match.MatchID]; s != nil {
					msg.Reply <- s
					break
				}
				deps := h.deps
				deps.OnEnd = h.onEnd
				s := match.NewSession(h.ctx, msg.Match, msg.Team1, msg.Team2, h.cfg, deps)
				h.sessions[msg.Match.MatchID] = s
				msg.Reply <- s

			case GetMatch:
				msg.Reply <- h.sessions[msg.ID] // may be nil

			case ListMatches:
				ids := make([]string, 0, len(h.sessions))
				for id := range h.sessions {
					ids = append(ids, id)
				}
				msg.Reply <- ids

			case RemoveMatch:
				delete(h.sessions, msg.ID)

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		s.Stop()
	}
	clear(h.sessions)
}

// onEnd runs on a session goroutine, so it must not block on a stopped hub.
func (h *Hub) onEnd(id string) {
	select {
	case h.inbox <- RemoveMatch{ID: id}:
	case <-h.ctx.Done():
	}
}

// Get returns the live session for id.
func (h *Hub) Get(ctx context.Context, id string) (*match.Session, error) {
	reply := make(chan *match.Session, 1)
	select {
	case h.inbox <- GetMatch{ID: id, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, match.ErrMatchNotFound
	}
	select {
	case s := <-reply:
		if s == nil {
			return nil, match.ErrMatchNotFound
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// StartMatch builds both teams from the tickets' decks and starts a session.
// It satisfies queue.Starter.
func (h *Hub) StartMatch(ctx context.Context, a, b queue.Ticket) (string, error) {
	t1, err := engine.NewTeam(1, a.UserID, a.Deck)
	if err != nil {
		return "", fmt.Errorf("team 1: %w", err)
	}
	t2, err := engine.NewTeam(2, b.UserID, b.Deck)
	if err != nil {
		return "", fmt.Errorf("team 2: %w", err)
	}
	m := engine.NewMatch(h.newID(), a.MatchType, h.newSeed(), h.cfg.TurnTime, t1, t2)

	reply := make(chan *match.Session, 1)
	msg := CreateMatch{
		Match: m,
		Team1: match.Participant{UserID: a.UserID, Username: a.Username, Outbox: a.Outbox},
		Team2: match.Participant{UserID: b.UserID, Username: b.Username, Outbox: b.Outbox},
		Reply: reply,
	}
	select {
	case h.inbox <- msg:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-h.ctx.Done():
		return "", fmt.Errorf("hub stopped")
	}
	select {
	case s := <-reply:
		return s.ID(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

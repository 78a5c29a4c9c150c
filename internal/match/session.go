package match

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/DoyleJ11/moba-match-engine/internal/metrics"
	"github.com/DoyleJ11/moba-match-engine/internal/settlement"
	"github.com/DoyleJ11/moba-match-engine/pkg/types"
	"go.uber.org/zap"
)

var (
	// ErrMatchNotFound is returned for unknown matches and for matches that
	// have already ended.
	ErrMatchNotFound     = errors.New("match not found")
	ErrSpectateDenied    = errors.New("spectate denied")
	ErrSurrenderTooEarly = errors.New("surrender not allowed yet")
	ErrNotParticipant    = errors.New("not a participant")
	ErrTooManyActions    = errors.New("too many actions")
)

type Phase string

const (
	PhaseAwaitingActions Phase = "AWAITING_ACTIONS"
	PhaseResolving       Phase = "RESOLVING"
	PhaseEnded           Phase = "ENDED"
)

type Msg interface{ isSessionMsg() }

type Submit struct {
	UserID  string
	Actions []engine.TurnAction
	Reply   chan SubmitReply
}

type SubmitReply struct {
	Turn     int
	Accepted int
	Rejected []engine.ActionIssue
	Err      error
}

type Surrender struct {
	UserID string
	Reply  chan error
}

// Spectate registers a read-only observer. On success the snapshot arrives on
// Outbox as EvtSpectateJoined ahead of any later event.
type Spectate struct {
	ClientID string
	Outbox   chan<- Event
	Reply    chan error
}

type Unspectate struct{ ClientID string }

// Attach rebinds a participant's outbox, e.g. after a reconnect. A fresh
// EvtMatchFound is sent on the new outbox.
type Attach struct {
	UserID string
	Outbox chan<- Event
	Reply  chan error
}

type GetState struct {
	Reply chan View
}

type Shutdown struct{}

type turnDeadline struct{ Turn int }

func (Submit) isSessionMsg()       {}
func (Surrender) isSessionMsg()    {}
func (Spectate) isSessionMsg()     {}
func (Unspectate) isSessionMsg()   {}
func (Attach) isSessionMsg()       {}
func (GetState) isSessionMsg()     {}
func (Shutdown) isSessionMsg()     {}
func (turnDeadline) isSessionMsg() {}

// View is a race-free copy of the session's internals.
type View struct {
	Phase         Phase
	Match         engine.Match
	NumSpectators int
	Submitted     [2]bool
}

// Participant is one of the two users playing the match.
type Participant struct {
	UserID   string
	Username string
	Outbox   chan<- Event
}

type Settler interface {
	Settle(ctx context.Context, res settlement.Result) error
}

type Publisher interface {
	Publish(ctx context.Context, m types.LiveMatch) error
	Remove(ctx context.Context, matchID string) error
}

type Config struct {
	TurnTime         time.Duration
	SurrenderMinTurn int
	SettleTimeout    time.Duration
}

type Deps struct {
	Logger    *zap.Logger
	Settler   Settler
	Publisher Publisher
	Metrics   *metrics.Recorder
	// OnEnd runs on the session goroutine after settlement.
	OnEnd func(matchID string)
	Now   func() time.Time
	// Resolve defaults to engine.Resolve.
	Resolve func(engine.TurnInput) engine.TurnOutput
}

type Session struct {
	inbox chan Msg
	done  chan struct{}

	match        engine.Match
	phase        Phase
	participants [2]Participant
	pending      [2][]engine.TurnAction
	submitted    [2]bool
	spectators   map[string]chan<- Event
	timer        *time.Timer
	timedOut     bool
	lastTurn     int // last successfully resolved turn
	startedAt    time.Time

	cfg  Config
	deps Deps
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession starts the session goroutine. Both participants receive
// EvtMatchFound followed by the first EvtTurnStart.
func NewSession(parent context.Context, m engine.Match, p1, p2 Participant, cfg Config, deps Deps) *Session {
	ctx, cancel := context.WithCancel(parent)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Resolve == nil {
		deps.Resolve = engine.Resolve
	}
	if cfg.TurnTime <= 0 {
		cfg.TurnTime = 60 * time.Second
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = 30 * time.Second
	}

	s := &Session{
		inbox:        make(chan Msg, 64),
		done:         make(chan struct{}),
		match:        m,
		phase:        PhaseAwaitingActions,
		participants: [2]Participant{p1, p2},
		spectators:   make(map[string]chan<- Event),
		cfg:          cfg,
		deps:         deps,
		log:          deps.Logger.With(zap.String("match_id", m.MatchID)),
		ctx:          ctx,
		cancel:       cancel,
	}
	go s.loop()
	return s
}

func (s *Session) ID() string { return s.match.MatchID }

// Inbox exposes the mailbox so tests or the websocket layer can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session has ended and stopped accepting messages.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) loop() {
	defer close(s.done)
	defer s.cancel()

	s.start()
	for s.phase != PhaseEnded {
		select {
		case <-s.ctx.Done():
			s.stop()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Submit:
				s.onSubmit(msg)

			case Surrender:
				s.onSurrender(msg)

			case Spectate:
				s.onSpectate(msg)

			case Unspectate:
				if _, ok := s.spectators[msg.ClientID]; ok {
					delete(s.spectators, msg.ClientID)
					s.deps.Metrics.SpectatorsChanged(-1)
					s.broadcastCount()
				}

			case Attach:
				msg.Reply <- s.onAttach(msg)

			case GetState:
				msg.Reply <- View{
					Phase:         s.phase,
					Match:         s.match.Clone(),
					NumSpectators: len(s.spectators),
					Submitted:     s.submitted,
				}

			case turnDeadline:
				if msg.Turn != s.match.CurrentTurn || s.phase != PhaseAwaitingActions {
					break // stale timer
				}
				s.timedOut = true
				s.resolveTurn()

			case Shutdown:
				s.stop()
				return
			}
		}
	}
}

func (s *Session) teamOf(userID string) int {
	for i, p := range s.participants {
		if p.UserID == userID {
			return i + 1
		}
	}
	return 0
}

func (s *Session) onSubmit(msg Submit) {
	team := s.teamOf(msg.UserID)
	switch {
	case team == 0:
		msg.Reply <- SubmitReply{Err: ErrNotParticipant}
		return
	case len(msg.Actions) > len(engine.Positions):
		msg.Reply <- SubmitReply{Err: ErrTooManyActions}
		return
	}

	valid, issues := engine.ValidateActions(*s.match.Team(team), msg.Actions)
	for _, iss := range issues {
		s.log.Warn("action rejected",
			zap.String("user_id", msg.UserID),
			zap.String("oder_id", iss.OderID),
			zap.String("action", string(iss.Action)),
			zap.String("reason", iss.Reason),
		)
	}
	// a resubmission replaces the earlier one for the same turn
	s.pending[team-1] = valid
	s.submitted[team-1] = true
	msg.Reply <- SubmitReply{Turn: s.match.CurrentTurn, Accepted: len(valid), Rejected: issues}

	if s.submitted[0] && s.submitted[1] {
		s.resolveTurn()
	}
}

func (s *Session) onSurrender(msg Surrender) {
	team := s.teamOf(msg.UserID)
	if team == 0 {
		msg.Reply <- ErrNotParticipant
		return
	}
	if s.match.CurrentTurn < s.cfg.SurrenderMinTurn {
		msg.Reply <- ErrSurrenderTooEarly
		return
	}
	msg.Reply <- nil
	s.match.Log = append(s.match.Log, engine.LogEntry{
		Turn:      s.match.CurrentTurn,
		Timestamp: s.deps.Now(),
		Type:      engine.LogInfo,
		Message:   s.participants[team-1].Username + " surrendered",
	})
	s.end(engine.Opponent(team), engine.ReasonSurrender, nil)
}

func (s *Session) onSpectate(msg Spectate) {
	if s.teamOf(msg.ClientID) != 0 {
		msg.Reply <- ErrSpectateDenied
		return
	}
	if _, ok := s.spectators[msg.ClientID]; !ok {
		s.deps.Metrics.SpectatorsChanged(1)
	}
	s.spectators[msg.ClientID] = msg.Outbox
	msg.Reply <- nil

	ev := Event{Type: EvtSpectateJoined, MatchID: s.match.MatchID, Payload: SpectateJoined{
		State:          s.match.Clone(),
		SpectatorCount: len(s.spectators),
		Usernames: map[string]string{
			"team1": s.participants[0].Username,
			"team2": s.participants[1].Username,
		},
	}}
	if !s.deliver(msg.Outbox, ev) {
		delete(s.spectators, msg.ClientID)
		s.deps.Metrics.SpectatorsChanged(-1)
		return
	}
	s.broadcastCount()
}

func (s *Session) onAttach(msg Attach) error {
	team := s.teamOf(msg.UserID)
	if team == 0 {
		return ErrNotParticipant
	}
	s.participants[team-1].Outbox = msg.Outbox
	s.sendTo(team, EvtMatchFound, s.matchFound(team))
	s.sendTo(team, EvtTurnStart, TurnStart{Turn: s.match.CurrentTurn, TimeLimit: s.match.MaxTurnTime})
	return nil
}

func (s *Session) matchFound(team int) MatchFound {
	opp := s.participants[engine.Opponent(team)-1]
	return MatchFound{
		State:      s.match.Clone(),
		TeamNumber: team,
		Opponent:   Opponent{UserID: opp.UserID, Username: opp.Username},
	}
}

// stop halts the session without a result, e.g. on server shutdown.
func (s *Session) stop() {
	s.stopTimer()
	if s.phase != PhaseEnded {
		s.phase = PhaseEnded
		s.removeListing()
		s.deps.Metrics.MatchEnded(string(s.match.MatchType), "SHUTDOWN")
	}
	s.deps.Metrics.SpectatorsChanged(-len(s.spectators))
	clear(s.spectators)
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// send posts msg unless the session has already finished.
func (s *Session) send(ctx context.Context, msg Msg) error {
	select {
	case s.inbox <- msg:
		return nil
	case <-s.done:
		return ErrMatchNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, s *Session, reply chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		// the reply may have been written just before the loop exited
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrMatchNotFound
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Session) SubmitActions(ctx context.Context, userID string, actions []engine.TurnAction) (SubmitReply, error) {
	reply := make(chan SubmitReply, 1)
	if err := s.send(ctx, Submit{UserID: userID, Actions: actions, Reply: reply}); err != nil {
		return SubmitReply{}, err
	}
	r, err := await(ctx, s, reply)
	if err != nil {
		return SubmitReply{}, err
	}
	return r, r.Err
}

func (s *Session) Surrender(ctx context.Context, userID string) error {
	return s.call(ctx, func(reply chan error) Msg { return Surrender{UserID: userID, Reply: reply} })
}

func (s *Session) Spectate(ctx context.Context, clientID string, outbox chan<- Event) error {
	return s.call(ctx, func(reply chan error) Msg { return Spectate{ClientID: clientID, Outbox: outbox, Reply: reply} })
}

func (s *Session) Attach(ctx context.Context, userID string, outbox chan<- Event) error {
	return s.call(ctx, func(reply chan error) Msg { return Attach{UserID: userID, Outbox: outbox, Reply: reply} })
}

func (s *Session) Unspectate(ctx context.Context, clientID string) error {
	return s.send(ctx, Unspectate{ClientID: clientID})
}

func (s *Session) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.send(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	return await(ctx, s, reply)
}

// Stop asks the session to halt without settling. It does not wait.
func (s *Session) Stop() {
	select {
	case s.inbox <- Shutdown{}:
	case <-s.done:
	default:
		s.cancel()
	}
}

func (s *Session) call(ctx context.Context, build func(chan error) Msg) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, build(reply)); err != nil {
		return err
	}
	err, waitErr := await(ctx, s, reply)
	if waitErr != nil {
		return waitErr
	}
	return err
}

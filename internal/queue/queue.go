package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/DoyleJ11/moba-match-engine/internal/match"
	"github.com/DoyleJ11/moba-match-engine/internal/metrics"
	"go.uber.org/zap"
)

var (
	ErrAlreadyQueued = errors.New("already queued")
	ErrInvalidType   = errors.New("invalid match type")
)

// Ticket is one waiting user.
type Ticket struct {
	UserID     string
	Username   string
	MatchType  engine.MatchType
	DeckSlot   int
	Deck       []engine.PlayerSeed
	Outbox     chan<- match.Event
	EnqueuedAt time.Time
}

// DeckSource resolves a user's active deck for a slot.
type DeckSource interface {
	ActiveDeck(ctx context.Context, userID string, slot int) ([]engine.PlayerSeed, error)
}

// Starter creates the match for a pair. The first ticket plays team 1.
type Starter interface {
	StartMatch(ctx context.Context, a, b Ticket) (string, error)
}

type JoinResult struct {
	Position int    // 1-based place in line; 0 when paired immediately
	MatchID  string // set when paired immediately
}

// Queue pairs users first-come first-served, separately per match type.
type Queue struct {
	mu      sync.Mutex
	waiting map[engine.MatchType][]Ticket

	decks   DeckSource
	starter Starter
	logger  *zap.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

func New(decks DeckSource, starter Starter, logger *zap.Logger, rec *metrics.Recorder) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		waiting: make(map[engine.MatchType][]Ticket),
		decks:   decks,
		starter: starter,
		logger:  logger,
		metrics: rec,
		now:     time.Now,
	}
}

// Join validates the user's deck and enqueues them. When a partner is
// already waiting the match is started before Join returns.
func (q *Queue) Join(ctx context.Context, t Ticket) (JoinResult, error) {
	if _, ok := engine.ParseMatchType(string(t.MatchType)); !ok {
		return JoinResult{}, fmt.Errorf("%w: %q", ErrInvalidType, t.MatchType)
	}
	if q.contains(t.UserID) {
		return JoinResult{}, ErrAlreadyQueued
	}

	deck, err := q.decks.ActiveDeck(ctx, t.UserID, t.DeckSlot)
	if err != nil {
		return JoinResult{}, fmt.Errorf("load deck: %w", err)
	}
	if err := engine.ValidateDeck(deck); err != nil {
		return JoinResult{}, err
	}
	t.Deck = deck
	t.EnqueuedAt = q.now()

	q.mu.Lock()
	if q.containsLocked(t.UserID) {
		q.mu.Unlock()
		return JoinResult{}, ErrAlreadyQueued
	}
	line := append(q.waiting[t.MatchType], t)
	var pair []Ticket
	if len(line) >= 2 {
		pair = []Ticket{line[0], line[1]}
		line = line[2:]
	}
	q.waiting[t.MatchType] = line
	pos := len(line)
	q.metrics.QueueDepth(string(t.MatchType), pos)
	q.mu.Unlock()

	if pair == nil {
		q.logger.Debug("queued", zap.String("user_id", t.UserID), zap.String("type", string(t.MatchType)), zap.Int("position", pos))
		return JoinResult{Position: pos}, nil
	}

	id, err := q.starter.StartMatch(ctx, pair[0], pair[1])
	if err != nil {
		// the partner keeps its place; the joiner gets the error
		var keep []Ticket
		for _, p := range pair {
			if p.UserID != t.UserID {
				keep = append(keep, p)
			}
		}
		q.requeue(keep)
		q.logger.Error("start match", zap.Error(err))
		return JoinResult{}, fmt.Errorf("start match: %w", err)
	}
	q.logger.Info("paired",
		zap.String("match_id", id),
		zap.String("team1", pair[0].UserID),
		zap.String("team2", pair[1].UserID),
		zap.Duration("waited", q.now().Sub(pair[0].EnqueuedAt)),
	)
	if pair[0].UserID != t.UserID && pair[1].UserID != t.UserID {
		// a requeued pair went first; t is still waiting
		return JoinResult{Position: pos}, nil
	}
	return JoinResult{MatchID: id}, nil
}

// requeue puts tickets back at the head of their line after a failed start.
func (q *Queue) requeue(tickets []Ticket) {
	if len(tickets) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	mt := tickets[0].MatchType
	q.waiting[mt] = append(slices.Clone(tickets), q.waiting[mt]...)
	q.metrics.QueueDepth(string(mt), len(q.waiting[mt]))
}

// Leave removes the user from whichever line they are in.
func (q *Queue) Leave(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for mt, line := range q.waiting {
		i := slices.IndexFunc(line, func(t Ticket) bool { return t.UserID == userID })
		if i < 0 {
			continue
		}
		q.waiting[mt] = slices.Delete(line, i, i+1)
		q.metrics.QueueDepth(string(mt), len(q.waiting[mt]))
		return true
	}
	return false
}

func (q *Queue) Len(mt engine.MatchType) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting[mt])
}

func (q *Queue) contains(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.containsLocked(userID)
}

func (q *Queue) containsLocked(userID string) bool {
	for _, line := range q.waiting {
		if slices.ContainsFunc(line, func(t Ticket) bool { return t.UserID == userID }) {
			return true
		}
	}
	return false
}

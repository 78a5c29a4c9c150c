package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Result is the outcome of a finished match as handed over by the session.
type Result struct {
	MatchID    string
	MatchType  engine.MatchType
	Team1ID    string
	Team2ID    string
	WinnerTeam int // 0 for no contest
	WinnerID   string
	LoserID    string
	Reason     engine.EndReason
	Turns      int
	Seed       uint64
	EndedAt    time.Time
	Final      engine.Match
}

// NoContest reports whether the match ended without a valid result. No
// rewards or ratings are applied for it.
func (r Result) NoContest() bool {
	return r.Reason == engine.ReasonEngineError || r.WinnerTeam == 0
}

// Delta is the change applied to one user's economy and rating.
type Delta struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
	Rating int    `json:"rating"`
}

// Report is what the economy/rating service receives.
type Report struct {
	MatchID   string           `json:"matchId"`
	MatchType engine.MatchType `json:"matchType"`
	Reason    engine.EndReason `json:"reason"`
	Turns     int              `json:"turns"`
	Winner    Delta            `json:"winner"`
	Loser     Delta            `json:"loser"`
}

// Reporter delivers a report to the external economy/rating service.
type Reporter interface {
	Report(ctx context.Context, r Report) error
}

// History persists final results. It is optional.
type History interface {
	SaveResult(ctx context.Context, r Result) error
}

type Settler struct {
	rewards  RewardTable
	reporter Reporter
	history  History
	logger   *zap.Logger
	// newBackOff builds the retry policy per report; tests shorten it.
	newBackOff func() backoff.BackOff
}

type Option func(*Settler)

func WithHistory(h History) Option { return func(s *Settler) { s.history = h } }

func WithRewards(t RewardTable) Option { return func(s *Settler) { s.rewards = t } }

func WithBackOff(fn func() backoff.BackOff) Option { return func(s *Settler) { s.newBackOff = fn } }

func New(reporter Reporter, logger *zap.Logger, opts ...Option) *Settler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Settler{
		rewards:  DefaultRewards(),
		reporter: reporter,
		logger:   logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxElapsedTime = 20 * time.Second
			return b
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Settle records the result and, unless it is a no contest, reports the
// reward deltas for both users. Each step is attempted even if the other fails.
func (s *Settler) Settle(ctx context.Context, res Result) error {
	log := s.logger.With(zap.String("match_id", res.MatchID), zap.String("reason", string(res.Reason)))
	var errs []error

	if s.history != nil {
		if err := s.history.SaveResult(ctx, res); err != nil {
			log.Error("save match result", zap.Error(err))
			errs = append(errs, fmt.Errorf("save result: %w", err))
		}
	}

	if res.NoContest() {
		log.Warn("match settled as no contest")
		return errors.Join(errs...)
	}

	rep := s.rewards.Report(res)
	attempt := 0
	op := func() error {
		attempt++
		err := s.reporter.Report(ctx, rep)
		if err != nil && !isPermanent(err) {
			log.Warn("reward report failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		log.Error("reward report abandoned", zap.Int("attempts", attempt), zap.Error(err))
		errs = append(errs, fmt.Errorf("report rewards: %w", err))
	} else {
		log.Info("match settled",
			zap.String("winner", rep.Winner.UserID),
			zap.Int("winner_points", rep.Winner.Points),
			zap.Int("loser_points", rep.Loser.Points),
		)
	}
	return errors.Join(errs...)
}

func isPermanent(err error) bool {
	var p *backoff.PermanentError
	return errors.As(err, &p)
}

package livefeed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = 10 * time.Second

// Refresher periodically prunes listing entries that have not been updated
// within staleAfter, e.g. matches owned by a crashed instance.
type Refresher struct {
	store      Store
	logger     *zap.Logger
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

func NewRefresher(store Store, logger *zap.Logger, interval, staleAfter time.Duration) *Refresher {
	if interval <= 0 {
		interval = defaultInterval
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		store:      store,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called.
func (r *Refresher) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	r.logger.Info("live listing refresher started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return nil
		case <-t.C:
			if _, err := r.Prune(ctx); err != nil {
				r.logger.Warn("prune live listing", zap.Error(err))
			}
		}
	}
}

func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// Prune removes stale entries and reports how many went.
func (r *Refresher) Prune(ctx context.Context) (int, error) {
	list, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := r.now().Add(-r.staleAfter)
	n := 0
	for _, m := range list {
		if m.UpdatedAt.Before(cutoff) {
			if err := r.store.Remove(ctx, m.MatchID); err != nil {
				return n, err
			}
			n++
		}
	}
	if n > 0 {
		r.logger.Info("pruned stale live matches", zap.Int("count", n))
	}
	return n, nil
}

package livefeed

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/moba-match-engine/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Publish(ctx, types.LiveMatch{MatchID: "old", StartedAt: base}))
	require.NoError(t, s.Publish(ctx, types.LiveMatch{MatchID: "new", StartedAt: base.Add(time.Minute)}))
	require.NoError(t, s.Publish(ctx, types.LiveMatch{MatchID: "old", StartedAt: base, CurrentTurn: 7}))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].MatchID)
	assert.Equal(t, 7, list[1].CurrentTurn)

	require.NoError(t, s.Remove(ctx, "new"))
	require.NoError(t, s.Remove(ctx, "missing"))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRefresher_PrunesStale(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Publish(ctx, types.LiveMatch{MatchID: "fresh", UpdatedAt: now.Add(-time.Minute)}))
	require.NoError(t, s.Publish(ctx, types.LiveMatch{MatchID: "stale", UpdatedAt: now.Add(-10 * time.Minute)}))

	r := NewRefresher(s, nil, time.Second, 5*time.Minute)
	r.now = func() time.Time { return now }

	n, err := r.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, _ := s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "fresh", list[0].MatchID)
}

func TestRefresher_RunStops(t *testing.T) {
	r := NewRefresher(NewMemoryStore(), nil, 5*time.Millisecond, time.Minute)
	errc := make(chan error, 1)
	go func() { errc <- r.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	r.Stop()
	r.Stop()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

package livefeed

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/DoyleJ11/moba-match-engine/pkg/types"
)

// Store holds the public listing of live matches. Sessions publish into it;
// the read API lists from it.
type Store interface {
	Publish(ctx context.Context, m types.LiveMatch) error
	Remove(ctx context.Context, matchID string) error
	List(ctx context.Context) ([]types.LiveMatch, error)
}

// MemoryStore keeps the listing in process.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]types.LiveMatch
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{matches: make(map[string]types.LiveMatch)}
}

func (s *MemoryStore) Publish(_ context.Context, m types.LiveMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.MatchID] = m
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, matchID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]types.LiveMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.LiveMatch, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, m)
	}
	sortListing(out)
	return out, nil
}

// sortListing orders newest matches first, ties by id.
func sortListing(ms []types.LiveMatch) {
	slices.SortFunc(ms, func(a, b types.LiveMatch) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.MatchID, b.MatchID)
	})
}

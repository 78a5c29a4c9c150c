package livefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DoyleJ11/moba-match-engine/pkg/types"
	"github.com/redis/go-redis/v9"
)

const RedisKeyLiveMatches = "moba:live_matches"

// RedisStore shares the listing between server instances as one hash keyed
// by match id.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, key: RedisKeyLiveMatches}
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Publish(ctx context.Context, m types.LiveMatch) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.key, m.MatchID, b).Err()
}

func (s *RedisStore) Remove(ctx context.Context, matchID string) error {
	return s.rdb.HDel(ctx, s.key, matchID).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]types.LiveMatch, error) {
	raw, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.LiveMatch, 0, len(raw))
	for id, v := range raw {
		var m types.LiveMatch
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			// corrupt entries are dropped rather than failing the listing
			_ = s.rdb.HDel(ctx, s.key, id).Err()
			continue
		}
		out = append(out, m)
	}
	sortListing(out)
	return out, nil
}

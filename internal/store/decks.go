package store

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGDeckSource reads active decks from the card collection tables.
type PGDeckSource struct {
	pool *pgxpool.Pool
}

func NewPGDeckSource(pool *pgxpool.Pool) *PGDeckSource {
	return &PGDeckSource{pool: pool}
}

// ActiveDeck returns the seeds in the user's deck slot. Overall already
// includes enhancement and synergy bonuses. A partially filled deck is
// returned as is; validation is the caller's job.
func (d *PGDeckSource) ActiveDeck(ctx context.Context, userID string, slot int) ([]engine.PlayerSeed, error) {
	query := `
		SELECT c.player_id, c.name, ds.position, c.overall + c.enhancement_bonus + ds.synergy_bonus
		FROM deck_slots ds
		JOIN decks d ON d.id = ds.deck_id
		JOIN cards c ON c.id = ds.card_id
		WHERE d.user_id = $1 AND d.slot = $2 AND d.is_active
		ORDER BY ds.position
	`
	rows, err := d.pool.Query(ctx, query, userID, slot)
	if err != nil {
		return nil, fmt.Errorf("query deck: %w", err)
	}
	seeds, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (engine.PlayerSeed, error) {
		var s engine.PlayerSeed
		var pos string
		if err := row.Scan(&s.PlayerID, &s.Name, &pos, &s.Overall); err != nil {
			return s, err
		}
		s.Position = engine.Position(pos)
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan deck: %w", err)
	}
	return seeds, nil
}

// StaticDeckSource hands every user a full deck whose strength is derived
// from the user id. Used when no database is configured.
type StaticDeckSource struct {
	Min, Max int
}

func (s StaticDeckSource) ActiveDeck(_ context.Context, userID string, _ int) ([]engine.PlayerSeed, error) {
	lo, hi := s.Min, s.Max
	if lo <= 0 {
		lo = 60
	}
	if hi < lo {
		hi = lo + 30
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	overall := lo + int(h.Sum32()%uint32(hi-lo+1))
	return engine.DefaultSeeds(userID, overall), nil
}

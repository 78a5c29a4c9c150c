package store

import (
	"context"
	"testing"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/DoyleJ11/moba-match-engine/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDeckSource(t *testing.T) {
	src := StaticDeckSource{Min: 60, Max: 90}
	ctx := context.Background()

	a1, err := src.ActiveDeck(ctx, "userA", 0)
	require.NoError(t, err)
	a2, err := src.ActiveDeck(ctx, "userA", 3)
	require.NoError(t, err)

	require.NoError(t, engine.ValidateDeck(a1))
	assert.Equal(t, a1, a2, "same user gets the same deck")
	for _, s := range a1 {
		assert.GreaterOrEqual(t, s.Overall, 60)
		assert.LessOrEqual(t, s.Overall, 90)
	}
}

func TestToRecords(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res := settlement.Result{
		MatchID: "m1", MatchType: engine.MatchRanked,
		Team1ID: "userA", Team2ID: "userB",
		WinnerTeam: 2, WinnerID: "userB", LoserID: "userA",
		Reason: engine.ReasonSurrender, Turns: 18, Seed: 1 << 63, EndedAt: now,
		Final: engine.Match{MatchID: "m1", Log: []engine.LogEntry{
			{Turn: 1, Type: engine.LogKill, Message: "first blood", Data: map[string]any{"killer": "t1-MID"}},
			{Turn: 18, Type: engine.LogGameEnd, Message: "Team 2 wins"},
		}},
	}

	rec, logs, err := toRecords(res)
	require.NoError(t, err)
	assert.Equal(t, "m1", rec.MatchID)
	assert.Equal(t, "SURRENDER", rec.Reason)
	assert.False(t, rec.NoContest)
	assert.Equal(t, uint64(1<<63), uint64(rec.Seed))
	assert.Contains(t, string(rec.FinalState), `"matchId":"m1"`)

	require.Len(t, logs, 2)
	assert.Equal(t, 0, logs[0].Seq)
	assert.JSONEq(t, `{"killer":"t1-MID"}`, string(logs[0].Data))
	assert.Nil(t, logs[1].Data)
	assert.Equal(t, "GAME_END", logs[1].Type)
}

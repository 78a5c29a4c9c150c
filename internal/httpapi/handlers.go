package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/DoyleJ11/moba-match-engine/internal/store"
	"github.com/DoyleJ11/moba-match-engine/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Lister reads the live-match projection.
type Lister interface {
	List(ctx context.Context) ([]types.LiveMatch, error)
}

// HistoryReader reads settled matches.
type HistoryReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]store.MatchRecord, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// LiveMatches lists active ranked matches, newest first.
func LiveMatches(l Lister, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := l.List(r.Context())
		if err != nil {
			logger.Error("list live matches", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "live matches unavailable")
			return
		}
		live := lo.Filter(all, func(m types.LiveMatch, _ int) bool {
			return m.MatchType == string(engine.MatchRanked) && m.Status == string(engine.StatusActive)
		})
		writeJSON(w, http.StatusOK, live)
	}
}

// Items returns the shop catalog, optionally narrowed by ?position=.
func Items(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("position")
	if raw == "" {
		writeJSON(w, http.StatusOK, engine.Catalog())
		return
	}
	pos, ok := engine.ParsePosition(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown position")
		return
	}
	writeJSON(w, http.StatusOK, engine.ItemsFor(pos))
}

type matchSummary struct {
	MatchID    string `json:"matchId"`
	MatchType  string `json:"matchType"`
	Opponent   string `json:"opponentId"`
	Won        bool   `json:"won"`
	NoContest  bool   `json:"noContest"`
	Reason     string `json:"reason"`
	Turns      int    `json:"turns"`
	EndedAtUTC string `json:"endedAt"`
}

// UserMatches lists a user's recently settled matches.
func UserMatches(h HistoryReader, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		limit := defaultHistoryLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		recs, err := h.Recent(r.Context(), userID, limit)
		if err != nil {
			logger.Error("load match history", zap.String("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		out := lo.Map(recs, func(m store.MatchRecord, _ int) matchSummary {
			opp := m.Team2ID
			if m.Team2ID == userID {
				opp = m.Team1ID
			}
			return matchSummary{
				MatchID:    m.MatchID,
				MatchType:  m.MatchType,
				Opponent:   opp,
				Won:        m.WinnerID == userID,
				NoContest:  m.NoContest,
				Reason:     m.Reason,
				Turns:      m.Turns,
				EndedAtUTC: m.EndedAt.UTC().Format("2006-01-02T15:04:05Z"),
			}
		})
		writeJSON(w, http.StatusOK, out)
	}
}

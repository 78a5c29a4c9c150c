package types

import (
	"encoding/json"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
)

// Client message types.
const (
	TypeAuthenticate  = "authenticate"
	TypeQueueJoin     = "moba_queue_join"
	TypeQueueLeave    = "moba_queue_leave"
	TypeSubmitActions = "moba_submit_actions"
	TypeSurrender     = "moba_surrender"
	TypeSpectate      = "moba_spectate"
	TypeSpectateLeave = "moba_spectate_leave"
	TypeGetItems      = "moba_get_items"
)

// Server-only message types. Session events keep their own names.
const (
	TypeAuthenticated    = "authenticated"
	TypeQueueJoined      = "moba_queue_joined"
	TypeQueueLeft        = "moba_queue_left"
	TypeActionsSubmitted = "moba_actions_submitted"
	TypeItemsList        = "moba_items_list"
	TypeError            = "moba_error"
)

// Error codes carried in moba_error.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeDeckIncomplete  = "DECK_INCOMPLETE"
	CodeInvalidAction   = "INVALID_ACTION"
	CodeMatchNotFound   = "MATCH_NOT_FOUND"
	CodeSpectateDenied  = "SPECTATE_DENIED"
	CodeSurrenderDenied = "SURRENDER_DENIED"
	CodeAlreadyQueued   = "ALREADY_QUEUED"
	CodeInternal        = "INTERNAL"
)

type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// AuthenticateData identifies the connection. MatchID rebinds a player that
// reconnects mid-match.
type AuthenticateData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	MatchID  string `json:"matchId,omitempty"`
}

type QueueJoinData struct {
	MatchType string `json:"matchType"`
	DeckSlot  int    `json:"deckSlot"`
}

type SubmitActionsData struct {
	MatchID string              `json:"matchId"`
	Actions []engine.TurnAction `json:"actions"`
}

type MatchRef struct {
	MatchID string `json:"matchId"`
}

type GetItemsData struct {
	Position string `json:"position"`
}

type QueueJoined struct {
	Position int `json:"position"`
}

type ActionsSubmitted struct {
	Turn     int                  `json:"turn"`
	Accepted int                  `json:"accepted"`
	Rejected []engine.ActionIssue `json:"rejected,omitempty"`
}

type ItemsList struct {
	Position engine.Position `json:"position"`
	Items    []engine.Item   `json:"items"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

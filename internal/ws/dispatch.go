package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/moba-match-engine/internal/engine"
	"github.com/DoyleJ11/moba-match-engine/internal/match"
	"github.com/DoyleJ11/moba-match-engine/internal/queue"
	"github.com/DoyleJ11/moba-match-engine/internal/types"
	"go.uber.org/zap"
)

func (c *conn) dispatch(ctx context.Context, cm types.ClientMessage) {
	switch cm.Type {
	case types.TypeAuthenticate:
		c.authenticate(ctx, cm.Data)
		return
	case types.TypeGetItems:
		c.getItems(ctx, cm.Data)
		return
	case types.TypeSpectate:
		c.spectate(ctx, cm.Data)
		return
	case types.TypeSpectateLeave:
		c.spectateLeave(ctx, cm.Data)
		return
	}

	if c.userID == "" {
		c.fail("", types.CodeUnauthenticated, "authenticate first")
		return
	}
	switch cm.Type {
	case types.TypeQueueJoin:
		c.queueJoin(ctx, cm.Data)
	case types.TypeQueueLeave:
		c.queue.Leave(c.userID)
		c.send(ctx, types.ServerMessage{Type: types.TypeQueueLeft})
	case types.TypeSubmitActions:
		c.submitActions(ctx, cm.Data)
	case types.TypeSurrender:
		c.surrender(ctx, cm.Data)
	default:
		c.fail("", types.CodeBadRequest, fmt.Sprintf("unknown type %q", cm.Type))
	}
}

func decode[T any](c *conn, raw json.RawMessage) (T, bool) {
	var v T
	if len(raw) == 0 {
		return v, true
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		c.fail("", types.CodeBadRequest, "bad payload")
		return v, false
	}
	return v, true
}

func (c *conn) authenticate(ctx context.Context, raw json.RawMessage) {
	d, ok := decode[types.AuthenticateData](c, raw)
	if !ok {
		return
	}
	if d.UserID == "" {
		c.fail("", types.CodeUnauthenticated, "userId required")
		return
	}
	if c.userID != "" && c.userID != d.UserID {
		c.fail("", types.CodeUnauthenticated, "connection already authenticated")
		return
	}
	c.userID, c.username = d.UserID, d.Username
	if c.username == "" {
		c.username = d.UserID
	}
	c.log = c.log.With(zap.String("user_id", c.userID))
	c.send(ctx, types.ServerMessage{Type: types.TypeAuthenticated, Data: d})

	if d.MatchID != "" {
		s, err := c.matches.Get(ctx, d.MatchID)
		if err == nil {
			err = s.Attach(ctx, c.userID, c.events)
		}
		if err != nil {
			c.fail(d.MatchID, errorCode(err), err.Error())
		}
	}
}

func (c *conn) queueJoin(ctx context.Context, raw json.RawMessage) {
	d, ok := decode[types.QueueJoinData](c, raw)
	if !ok {
		return
	}
	res, err := c.queue.Join(ctx, queue.Ticket{
		UserID:    c.userID,
		Username:  c.username,
		MatchType: engine.MatchType(d.MatchType),
		DeckSlot:  d.DeckSlot,
		Outbox:    c.events,
	})
	if err != nil {
		c.fail("", errorCode(err), err.Error())
		return
	}
	if res.MatchID == "" {
		c.send(ctx, types.ServerMessage{Type: types.TypeQueueJoined, Data: types.QueueJoined{Position: res.Position}})
	}
}

func (c *conn) submitActions(ctx context.Context, raw json.RawMessage) {
	d, ok := decode[types.SubmitActionsData](c, raw)
	if !ok {
		return
	}
	s, err := c.matches.Get(ctx, d.MatchID)
	if err != nil {
		c.fail(d.MatchID, errorCode(err), err.Error())
		return
	}
	r, err := s.SubmitActions(ctx, c.userID, d.Actions)
	if err != nil {
		c.fail(d.MatchID, errorCode(err), err.Error())
		return
	}
	c.send(ctx, types.ServerMessage{Type: types.TypeActionsSubmitted, MatchID: d.MatchID, Data: types.ActionsSubmitted{
		Turn:     r.Turn,
		Accepted: r.Accepted,
		Rejected: r.Rejected,
	}})
}

func (c *conn) surrender(ctx context.Context, raw json.RawMessage) {
	d, ok := decode[types.MatchRef](c, raw)
	if !ok {
		return
	}
	s, err := c.matches.Get(ctx, d.MatchID)
	if err == nil {
		err = s.Surrender(ctx, c.userID)
	}
	if err != nil {
		c.fail(d.MatchID, errorCode(err), err.Error())
	}
}

func (c *conn) spectate(ctx context.Context, raw json.RawMessage) {
	d, ok := decode[types.MatchRef](c, raw)
	if !ok {
		return
	}
	s, err := c.matches.Get(ctx, d.MatchID)
	if err == nil {
		err = s.Spectate(ctx, c.spectatorID(), c.events)
	}
	if err != nil {
		c.fail(d.MatchID, types.CodeSpectateDenied, err.Error())
		return
	}
	c.spectating[d.MatchID] = s
}

func (c *conn) spectateLeave(ctx context.Context, raw json.RawMessage) {
	d, ok := decode[types.MatchRef](c, raw)
	if !ok {
		return
	}
	s, ok := c.spectating[d.MatchID]
	if !ok {
		return
	}
	delete(c.spectating, d.MatchID)
	_ = s.Unspectate(ctx, c.spectatorID())
}

func (c *conn) getItems(ctx context.Context, raw json.RawMessage) {
	d, ok := decode[types.GetItemsData](c, raw)
	if !ok {
		return
	}
	items := engine.Catalog()
	pos, known := engine.ParsePosition(d.Position)
	if d.Position != "" {
		if !known {
			c.fail("", types.CodeBadRequest, fmt.Sprintf("unknown position %q", d.Position))
			return
		}
		items = engine.ItemsFor(pos)
	}
	c.send(ctx, types.ServerMessage{Type: types.TypeItemsList, Data: types.ItemsList{Position: pos, Items: items}})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrDeckIncomplete):
		return types.CodeDeckIncomplete
	case errors.Is(err, match.ErrMatchNotFound):
		return types.CodeMatchNotFound
	case errors.Is(err, match.ErrSpectateDenied):
		return types.CodeSpectateDenied
	case errors.Is(err, match.ErrSurrenderTooEarly):
		return types.CodeSurrenderDenied
	case errors.Is(err, match.ErrNotParticipant), errors.Is(err, match.ErrTooManyActions):
		return types.CodeInvalidAction
	case errors.Is(err, queue.ErrAlreadyQueued):
		return types.CodeAlreadyQueued
	case errors.Is(err, queue.ErrInvalidType):
		return types.CodeBadRequest
	default:
		return types.CodeInternal
	}
}

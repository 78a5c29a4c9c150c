package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/match"
	"github.com/DoyleJ11/moba-match-engine/internal/queue"
	"github.com/DoyleJ11/moba-match-engine/internal/types"
	"github.com/coder/websocket"
	"github.com/lithammer/shortuuid"
	"go.uber.org/zap"
)

const (
	writeTimeout = 5 * time.Second
	readLimit    = 64 << 10
	// events buffered per connection before the session starts dropping it
	outboxSize = 64
)

// Matches finds live sessions.
type Matches interface {
	Get(ctx context.Context, id string) (*match.Session, error)
}

// Queue is the matchmaking side of the connection.
type Queue interface {
	Join(ctx context.Context, t queue.Ticket) (queue.JoinResult, error)
	Leave(userID string) bool
}

type Options struct {
	Logger         *zap.Logger
	OriginPatterns []string
}

func Handler(matches Matches, q Queue, opts Options) http.HandlerFunc {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Debug("websocket accept", zap.Error(err))
			return
		}
		defer ws.CloseNow()
		ws.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &conn{
			ws:         ws,
			matches:    matches,
			queue:      q,
			clientID:   shortuuid.New(),
			events:     make(chan match.Event, outboxSize),
			direct:     make(chan types.ServerMessage, 16),
			spectating: make(map[string]*match.Session),
		}
		c.log = logger.With(zap.String("client_id", c.clientID))
		defer c.cleanup()

		go c.writeLoop(ctx, cancel)
		c.readLoop(ctx)
		ws.Close(websocket.StatusNormalClosure, "bye")
	}
}

type conn struct {
	ws      *websocket.Conn
	matches Matches
	queue   Queue
	log     *zap.Logger

	clientID string
	userID   string
	username string

	// events is handed to sessions. It is never closed since a session may
	// still hold it after the connection is gone.
	events chan match.Event
	direct chan types.ServerMessage

	// only touched by the reader goroutine
	spectating map[string]*match.Session
}

func (c *conn) readLoop(ctx context.Context) {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					c.log.Debug("websocket read", zap.Error(err))
				}
			}
			return
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.fail("", types.CodeBadRequest, "bad json")
			continue
		}
		c.dispatch(ctx, cm)
	}
}

func (c *conn) writeLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	for {
		var msg types.ServerMessage
		select {
		case <-ctx.Done():
			return
		case m := <-c.direct:
			msg = m
		case ev := <-c.events:
			msg = types.ServerMessage{Type: string(ev.Type), MatchID: ev.MatchID, Data: ev.Payload}
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			c.log.Error("encode server message", zap.String("type", msg.Type), zap.Error(err))
			continue
		}
		wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
		err = c.ws.Write(wctx, websocket.MessageText, payload)
		wcancel()
		if err != nil {
			return
		}
	}
}

// cleanup leaves the queue and every spectated match. Matches the user
// plays in keep running on default actions.
func (c *conn) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if c.userID != "" {
		c.queue.Leave(c.userID)
	}
	for id, s := range c.spectating {
		_ = s.Unspectate(ctx, c.spectatorID())
		delete(c.spectating, id)
	}
}

func (c *conn) send(ctx context.Context, msg types.ServerMessage) {
	select {
	case c.direct <- msg:
	case <-ctx.Done():
	}
}

func (c *conn) fail(matchID, code, message string) {
	msg := types.ServerMessage{Type: types.TypeError, MatchID: matchID, Data: types.ErrorData{Code: code, Message: message}}
	select {
	case c.direct <- msg:
	default:
		c.log.Warn("dropping error for slow client", zap.String("code", code))
	}
}

// spectatorID keys this connection in a session's spectator set. It is the
// user id when authenticated so a participant cannot sneak in as a viewer.
func (c *conn) spectatorID() string {
	if c.userID != "" {
		return c.userID
	}
	return c.clientID
}

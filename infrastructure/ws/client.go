package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"talkline/domain"
	"talkline/domain/event"
	"talkline/services"
	"talkline/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// pingPeriod is the period for sending pings to peer. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize is the maximum frame size allowed from a peer.
	maxMessageSize = 4096
)

// client bridges one authenticated websocket connection and the chat service.
// The read pump dispatches inbound events; the write pump drains the sink.
type client struct {
	log      *slog.Logger
	conn     *websocket.Conn
	identity domain.Identity
	connID   string
	chat     services.IChatService
	sink     *sink.Buffered
}

func newClient(log *slog.Logger, conn *websocket.Conn, identity domain.Identity,
	chat services.IChatService, bufferSize int) *client {
	return &client{
		log:      log,
		conn:     conn,
		identity: identity,
		connID:   uuid.NewString(),
		chat:     chat,
		sink:     sink.NewBuffered(bufferSize),
	}
}

// readPump pumps inbound events from the connection into the chat service.
// There is at most one reader per connection. Returning from it is the one
// place presence gets torn down, whatever the reason for termination.
func (c *client) readPump() {
	defer func() {
		c.chat.Disconnect(c.identity.UserID, c.connID)
		_ = c.conn.Close()
		c.log.Debug("Connection closed", "user", c.identity.DisplayName, "conn", c.connID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn("Read error", "user", c.identity.DisplayName, "error", err)
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.log.Debug("Ignoring malformed frame", "user", c.identity.DisplayName)
			continue
		}
		c.dispatch(envelope)
	}
}

func (c *client) dispatch(envelope Envelope) {
	ctx := context.Background()

	switch envelope.Event {
	case "send_message":
		var payload sendMessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.log.Debug("Ignoring malformed send_message payload")
			return
		}
		cmd := domain.SendMessageCommand{
			Sender:  c.identity,
			To:      payload.To,
			Content: payload.Content,
		}
		if err := c.chat.Send(ctx, cmd, c.sink); err != nil {
			c.log.Error("Send failed", "user", c.identity.DisplayName, "error", err)
		}

	case "request_history":
		var payload requestHistoryPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			c.log.Debug("Ignoring malformed request_history payload")
			return
		}
		messages, found, err := c.chat.History(domain.HistoryCommand{
			ViewerID: c.identity.UserID,
			With:     payload.With,
		})
		if err != nil {
			c.log.Error("History failed", "user", c.identity.DisplayName, "error", err)
			return
		}
		if !found {
			return
		}
		_ = c.sink.Consume(ctx, event.HistoryLoaded{With: payload.With, Messages: messages})

	default:
		c.log.Debug("Ignoring unknown event", "event", envelope.Event)
	}
}

// writePump drains the sink towards the connection and keeps it alive with
// pings. There is at most one writer per connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.sink.Events:
			envelope, err := encodeEvent(evt)
			if err != nil {
				c.log.Error("Failed to encode event", "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(envelope); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

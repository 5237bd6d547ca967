package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"talkline/domain"
	"talkline/domain/event"
)

// Envelope is the wire frame for both directions: a named event plus its
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads.
type sendMessagePayload struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

type requestHistoryPayload struct {
	With string `json:"with"`
}

// Outbound payloads.
type newMessagePayload struct {
	From      string    `json:"from"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type historyPayload struct {
	With     string           `json:"with"`
	Messages []domain.Message `json:"messages"`
}

// encodeEvent turns a domain event into its wire envelope.
func encodeEvent(e event.DomainEvent) (Envelope, error) {
	var payload any
	switch evt := e.(type) {
	case event.MessageStored:
		payload = evt.Message
	case event.DirectMessage:
		payload = newMessagePayload{From: evt.From, Content: evt.Content, CreatedAt: evt.At}
	case event.HistoryLoaded:
		messages := evt.Messages
		if messages == nil {
			messages = []domain.Message{}
		}
		payload = historyPayload{With: evt.With, Messages: messages}
	default:
		return Envelope{}, fmt.Errorf("unsupported event %T", e)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: e.Name(), Data: data}, nil
}

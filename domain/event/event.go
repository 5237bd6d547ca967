package event

import (
	"talkline/domain"
	"time"
)

// DomainEvent is anything a live connection can receive.
// Name is the wire-level event name the transport layer uses.
type DomainEvent interface {
	Name() string
}

// MessageStored acknowledges the sender's own send with the persisted message.
type MessageStored struct {
	Message domain.Message
}

func (MessageStored) Name() string { return "message_sent" }

// DirectMessage is the push delivered to the recipient's live connections.
type DirectMessage struct {
	From    string
	Content string
	At      time.Time
}

func (DirectMessage) Name() string { return "new_message" }

// HistoryLoaded replaces the client's current conversation view entirely.
type HistoryLoaded struct {
	With     string
	Messages []domain.Message
}

func (HistoryLoaded) Name() string { return "history" }

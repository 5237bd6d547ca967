// Package domain contains core concepts of the messaging system.
// This file defines Message and related rules.
// Messages are immutable once persisted.
package domain

import (
	"time"
)

// Message represents an immutable direct message between two users.
// ID and CreatedAt are assigned by the conversation store at persistence time.
type Message struct {
	ID         uint64    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

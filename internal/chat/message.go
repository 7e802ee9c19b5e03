// Package chat is the conversation layer: the offline rule-based
// responder, memory extraction, the persisted chat log and the switch
// between a hosted companion and the offline responder.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MaxMessages is the default chat log length.
const MaxMessages = 30

// Message is one chat line.
type Message struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix ms
}

// NewMessage stamps a message with a fresh ID.
func NewMessage(role Role, text string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: now.UnixMilli(),
	}
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/util"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the in-memory copy of one backend conversation for its
// display lifetime. The authoritative copy lives server-side; within a turn
// the message list is append-only from the client's perspective.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []*Message `json:"messages"`

	// MessageCount is denormalized from the list endpoint; it can run ahead
	// of len(Messages) while another client is writing.
	MessageCount int `json:"message_count"`
}

// FromWire converts a fetched conversation into the display model.
func FromWire(wire *api.Conversation) *Conversation {
	conv := &Conversation{
		ID:       wire.ID,
		Title:    wire.Title,
		Messages: make([]*Message, 0, len(wire.Messages)),
	}
	if t, err := time.Parse(time.RFC3339, wire.CreatedAt); err == nil {
		conv.CreatedAt = t
	}

	for _, wm := range wire.Messages {
		msg := &Message{
			ID:       newMessageID(),
			Role:     Role(wm.Role),
			Content:  wm.Content,
			Stage1:   wm.Stage1,
			Stage2:   wm.Stage2,
			Stage3:   wm.Stage3,
			Metadata: wm.Metadata,
		}
		conv.Messages = append(conv.Messages, msg)
	}
	conv.MessageCount = len(conv.Messages)
	return conv
}

// =============================================================================
// ACCESSORS
// =============================================================================

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageByID returns a message by its local ID, or nil.
func (c *Conversation) MessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Append adds messages to the end of the conversation.
func (c *Conversation) Append(msgs ...*Message) {
	c.Messages = append(c.Messages, msgs...)
	c.MessageCount = len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// GetTitle returns the title or a default for untitled conversations.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// Preview returns a short sidebar preview from the first user message.
func (c *Conversation) Preview(maxWidth int) string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg.Preview(maxWidth)
		}
	}
	return util.TruncateWidth("Empty conversation", maxWidth)
}

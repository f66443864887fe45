// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the client-side conversation state: conversations,
// messages with their per-stage payloads, and the reconciler that applies
// stream events to the pending turn.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/util"
)

// VoicePlaceholder is the optimistic content of a voice turn's user message
// until the transcription event replaces it.
const VoicePlaceholder = "🎤 Processing voice..."

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Council"
	default:
		return string(r)
	}
}

// =============================================================================
// LOADING FLAGS
// =============================================================================

// Loading tracks which parts of an assistant message are still in flight.
// Within one turn a flag only ever transitions true -> false; the completion
// event (or an error ending the turn) clears it and nothing sets it again.
type Loading struct {
	Stage1 bool `json:"stage1,omitempty"`
	Stage2 bool `json:"stage2,omitempty"`
	Stage3 bool `json:"stage3,omitempty"`
	Image  bool `json:"image,omitempty"`
}

// Any reports whether anything is still loading.
func (l Loading) Any() bool {
	return l.Stage1 || l.Stage2 || l.Stage3 || l.Image
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation. User messages carry Content
// only. Assistant messages fill in stage payloads as the pipeline reports
// progress, or image fields for image turns.
type Message struct {
	// ID is assigned locally. For the pending assistant message of a turn it
	// is the provisional turn-scoped identifier that event patches target;
	// the backend does not hand out message IDs until the turn completes.
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	Content string `json:"content,omitempty"`

	// Pipeline stage payloads (assistant messages only).
	Stage1   []api.ModelResponse `json:"stage1,omitempty"`
	Stage2   []api.ModelRanking  `json:"stage2,omitempty"`
	Stage3   *api.ModelResponse  `json:"stage3,omitempty"`
	Metadata json.RawMessage     `json:"metadata,omitempty"`

	// AudioURL is the spoken rendering of the final answer on voice turns.
	AudioURL string `json:"audio_url,omitempty"`

	// Image generation results.
	ImageURL      string `json:"image,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`

	Loading Loading `json:"loading"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        newMessageID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewPendingAssistantMessage creates the assistant message for a council
// turn with all three stage flags loading.
func NewPendingAssistantMessage() *Message {
	return &Message{
		ID:        newMessageID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Loading:   Loading{Stage1: true, Stage2: true, Stage3: true},
	}
}

// NewPendingImageMessage creates the assistant message for an image turn.
func NewPendingImageMessage() *Message {
	return &Message{
		ID:        newMessageID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
		Loading:   Loading{Image: true},
	}
}

// FinalText returns the best text to show for the message: the chairman's
// answer for completed assistant messages, otherwise the plain content.
func (m *Message) FinalText() string {
	if m.Role == RoleAssistant && m.Stage3 != nil {
		return m.Stage3.Response
	}
	return m.Content
}

// Preview returns a truncated single-line preview of the message.
func (m *Message) Preview(maxWidth int) string {
	return util.TruncateWidth(util.FirstLine(m.FinalText()), maxWidth)
}

// IsPending reports whether any part of the message is still loading.
func (m *Message) IsPending() bool {
	return m.Loading.Any()
}

// newMessageID generates the provisional client-side message ID.
func newMessageID() string {
	return "msg_" + uuid.NewString()
}

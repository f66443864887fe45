// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"sync"

	"github.com/councilchat/council-tui/internal/api"
)

// Reconciler errors.
var (
	// ErrTurnInProgress means a turn is already outstanding; call sites must
	// not start another until it ends.
	ErrTurnInProgress = errors.New("a turn is already in progress")

	// ErrNoConversation means no conversation is selected.
	ErrNoConversation = errors.New("no conversation selected")
)

// =============================================================================
// TURN
// =============================================================================

// Turn is one user input and its assistant response lifecycle, from
// submission to terminal event. It pins the conversation it was started in
// and the provisional IDs of its message pair, so event patches keep
// landing on the right messages even if the user switches the displayed
// conversation mid-turn and back.
type Turn struct {
	ConversationID string
	UserMsgID      string
	AssistantMsgID string

	conv *Conversation
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler owns the active conversation and applies stream events as
// incremental patches. A single boolean-style gate (the live *Turn) keeps
// two turns from interleaving their patches; the UI loop is single-threaded
// but events arrive from the stream goroutine, so access is mutex-guarded.
type Reconciler struct {
	mu   sync.Mutex
	conv *Conversation
	turn *Turn
}

// NewReconciler creates a reconciler with no conversation selected.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// SetConversation switches the displayed conversation. An outstanding turn
// keeps patching the conversation it started in.
func (r *Reconciler) SetConversation(c *Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conv = c
}

// Conversation returns the displayed conversation, or nil.
func (r *Reconciler) Conversation() *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conv
}

// TurnInProgress reports whether a turn is outstanding.
func (r *Reconciler) TurnInProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn != nil
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

// BeginTurn appends the optimistic user message and the pending assistant
// message as a pair, synchronously, before any network call. It fails with
// ErrTurnInProgress or ErrNoConversation instead of corrupting the
// outstanding turn's patch target.
func (r *Reconciler) BeginTurn(userContent string) (*Turn, error) {
	return r.begin(userContent, NewPendingAssistantMessage())
}

// BeginVoiceTurn is BeginTurn for audio input: the user message holds a
// placeholder until the transcription event replaces it.
func (r *Reconciler) BeginVoiceTurn() (*Turn, error) {
	return r.begin(VoicePlaceholder, NewPendingAssistantMessage())
}

// BeginImageTurn starts an image generation turn. Only the image loading
// flag is set; there are no pipeline stages.
func (r *Reconciler) BeginImageTurn(prompt string) (*Turn, error) {
	return r.begin("🎨 Generate image: "+prompt, NewPendingImageMessage())
}

func (r *Reconciler) begin(userContent string, assistant *Message) (*Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conv == nil {
		return nil, ErrNoConversation
	}
	if r.turn != nil {
		return nil, ErrTurnInProgress
	}

	user := NewUserMessage(userContent)
	// Appended together: no observer sees the assistant message without its
	// paired user message.
	r.conv.Append(user, assistant)

	r.turn = &Turn{
		ConversationID: r.conv.ID,
		UserMsgID:      user.ID,
		AssistantMsgID: assistant.ID,
		conv:           r.conv,
	}
	return r.turn, nil
}

// EndTurn releases the turn gate. Idempotent.
func (r *Reconciler) EndTurn() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turn = nil
}

// =============================================================================
// EVENT APPLICATION
// =============================================================================

// ApplyResult reports the side effects the caller owes after a patch.
type ApplyResult struct {
	// RefreshList is set on title_complete and complete: the conversation
	// list (titles, message counts) should be re-fetched.
	RefreshList bool

	// TurnEnded is set on the terminal events; the turn gate has already
	// been released when it is true.
	TurnEnded bool

	// ErrMessage carries the diagnostic text of an in-band error event.
	ErrMessage string
}

// ApplyEvent patches the outstanding turn's messages for one stream event.
// It is a no-op (beyond the returned side effects) when no turn is
// outstanding — a straggler event after an error cannot corrupt state.
// Stage patches touch only their own fields, and loading flags are only
// ever cleared here, never set.
func (r *Reconciler) ApplyEvent(ev api.Event) ApplyResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res ApplyResult

	switch ev := ev.(type) {
	case api.TranscriptionEvent:
		if msg := r.turnMessage(func(t *Turn) string { return t.UserMsgID }); msg != nil {
			// Replace, never concatenate: the placeholder is display-only.
			msg.Content = ev.Text
		}

	case api.Stage1Event:
		if msg := r.assistantMessage(); msg != nil {
			msg.Stage1 = ev.Responses
			msg.Loading.Stage1 = false
		}

	case api.Stage2Event:
		if msg := r.assistantMessage(); msg != nil {
			msg.Stage2 = ev.Rankings
			msg.Metadata = ev.Metadata
			msg.Loading.Stage2 = false
		}

	case api.Stage3Event:
		if msg := r.assistantMessage(); msg != nil {
			msg.Stage3 = &ev.Answer
			msg.AudioURL = ev.AudioURL
			msg.Loading.Stage3 = false
		}

	case api.TitleEvent:
		if r.turn != nil && ev.Title != "" {
			r.turn.conv.Title = ev.Title
		}
		res.RefreshList = true

	case api.CompleteEvent:
		r.turn = nil
		res.RefreshList = true
		res.TurnEnded = true

	case api.ErrorEvent:
		// No rollback: completed stages stay visible, unfinished flags stay
		// set so the UI shows where the pipeline stopped.
		r.turn = nil
		res.TurnEnded = true
		res.ErrMessage = ev.Message
	}

	return res
}

// ApplyImage completes an image turn with the generated result.
func (r *Reconciler) ApplyImage(result *api.ImageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg := r.assistantMessage(); msg != nil {
		msg.ImageURL = result.URL
		msg.RevisedPrompt = result.RevisedPrompt
		msg.Loading.Image = false
	}
	r.turn = nil
}

// FailImage ends an image turn without a result.
func (r *Reconciler) FailImage() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turn = nil
}

// assistantMessage resolves the outstanding turn's pending assistant
// message, or nil when no turn is live.
func (r *Reconciler) assistantMessage() *Message {
	return r.turnMessage(func(t *Turn) string { return t.AssistantMsgID })
}

func (r *Reconciler) turnMessage(pick func(*Turn) string) *Message {
	if r.turn == nil {
		return nil
	}
	return r.turn.conv.MessageByID(pick(r.turn))
}

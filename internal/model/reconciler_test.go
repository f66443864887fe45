// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"testing"

	"github.com/councilchat/council-tui/internal/api"
)

func newTestConversation(id string) *Conversation {
	return &Conversation{ID: id, Title: "Test"}
}

// =============================================================================
// TURN LIFECYCLE TESTS
// =============================================================================

func TestReconciler_BeginTurnAppendsPair(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))

	turn, err := r.BeginTurn("hello")
	if err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}

	conv := r.Conversation()
	if len(conv.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2 (user + pending assistant)", len(conv.Messages))
	}

	user := conv.Messages[0]
	if user.Role != RoleUser || user.Content != "hello" {
		t.Errorf("user message = %+v", user)
	}
	if user.ID != turn.UserMsgID {
		t.Errorf("UserMsgID mismatch")
	}

	asst := conv.Messages[1]
	if asst.Role != RoleAssistant {
		t.Errorf("assistant role = %s", asst.Role)
	}
	if asst.ID != turn.AssistantMsgID {
		t.Errorf("AssistantMsgID mismatch")
	}
	if !asst.Loading.Stage1 || !asst.Loading.Stage2 || !asst.Loading.Stage3 {
		t.Errorf("all stage flags should start loading: %+v", asst.Loading)
	}
	if asst.Loading.Image {
		t.Error("image flag should not be set on a council turn")
	}
}

func TestReconciler_BeginTurnRequiresConversation(t *testing.T) {
	r := NewReconciler()
	if _, err := r.BeginTurn("hello"); !errors.Is(err, ErrNoConversation) {
		t.Errorf("err = %v, want ErrNoConversation", err)
	}
}

func TestReconciler_SecondTurnRejected(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))

	if _, err := r.BeginTurn("first"); err != nil {
		t.Fatalf("BeginTurn failed: %v", err)
	}
	if _, err := r.BeginTurn("second"); !errors.Is(err, ErrTurnInProgress) {
		t.Errorf("err = %v, want ErrTurnInProgress", err)
	}

	// The failed attempt must not have touched the message list.
	if got := len(r.Conversation().Messages); got != 2 {
		t.Errorf("len(Messages) = %d, want 2", got)
	}

	r.EndTurn()
	if _, err := r.BeginTurn("third"); err != nil {
		t.Errorf("BeginTurn after EndTurn failed: %v", err)
	}
}

func TestReconciler_EndTurnIdempotent(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))
	r.BeginTurn("hello")

	r.EndTurn()
	r.EndTurn()
	if r.TurnInProgress() {
		t.Error("turn should be released")
	}
}

func TestReconciler_BeginVoiceTurnPlaceholder(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))

	if _, err := r.BeginVoiceTurn(); err != nil {
		t.Fatalf("BeginVoiceTurn failed: %v", err)
	}
	if got := r.Conversation().Messages[0].Content; got != VoicePlaceholder {
		t.Errorf("user content = %q, want placeholder", got)
	}
}

// =============================================================================
// EVENT APPLICATION TESTS
// =============================================================================

func TestReconciler_StagePatches(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))
	turn, _ := r.BeginTurn("question")

	r.ApplyEvent(api.Stage1Event{Responses: []api.ModelResponse{{Model: "m1", Response: "a1"}}})

	asst := r.Conversation().MessageByID(turn.AssistantMsgID)
	if len(asst.Stage1) != 1 {
		t.Fatalf("Stage1 = %+v", asst.Stage1)
	}
	if asst.Loading.Stage1 {
		t.Error("stage1 flag should clear")
	}
	if !asst.Loading.Stage2 || !asst.Loading.Stage3 {
		t.Error("later stage flags must stay set")
	}

	r.ApplyEvent(api.Stage2Event{Rankings: []api.ModelRanking{{Model: "m1", Ranking: "1. A"}}})
	if asst.Loading.Stage2 {
		t.Error("stage2 flag should clear")
	}

	r.ApplyEvent(api.Stage3Event{
		Answer:   api.ModelResponse{Model: "chair", Response: "final"},
		AudioURL: "https://example.com/a.mp3",
	})
	if asst.Stage3 == nil || asst.Stage3.Response != "final" {
		t.Errorf("Stage3 = %+v", asst.Stage3)
	}
	if asst.AudioURL == "" {
		t.Error("AudioURL should be set")
	}
	if asst.Loading.Any() {
		t.Errorf("no flags should remain: %+v", asst.Loading)
	}

	res := r.ApplyEvent(api.CompleteEvent{})
	if !res.TurnEnded || !res.RefreshList {
		t.Errorf("res = %+v", res)
	}
	if r.TurnInProgress() {
		t.Error("gate should be released on complete")
	}
}

func TestReconciler_TranscriptionReplacesPlaceholder(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))
	turn, _ := r.BeginVoiceTurn()

	r.ApplyEvent(api.TranscriptionEvent{Text: "what I actually said"})

	if got := r.Conversation().MessageByID(turn.UserMsgID).Content; got != "what I actually said" {
		t.Errorf("content = %q", got)
	}
}

func TestReconciler_TitleEvent(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))
	r.BeginTurn("question")

	res := r.ApplyEvent(api.TitleEvent{Title: "A better title"})
	if !res.RefreshList {
		t.Error("title event should request a list refresh")
	}
	if res.TurnEnded {
		t.Error("title event must not end the turn")
	}
	if got := r.Conversation().Title; got != "A better title" {
		t.Errorf("Title = %q", got)
	}
}

func TestReconciler_ErrorKeepsCompletedStages(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))
	turn, _ := r.BeginTurn("question")

	r.ApplyEvent(api.Stage1Event{Responses: []api.ModelResponse{{Model: "m1", Response: "a1"}}})
	res := r.ApplyEvent(api.ErrorEvent{Message: "pipeline died"})

	if !res.TurnEnded || res.ErrMessage != "pipeline died" {
		t.Errorf("res = %+v", res)
	}

	asst := r.Conversation().MessageByID(turn.AssistantMsgID)
	if len(asst.Stage1) != 1 {
		t.Error("completed stage data must survive the error")
	}
	// Unfinished flags stay set so the UI shows where the pipeline stopped.
	if !asst.Loading.Stage2 || !asst.Loading.Stage3 {
		t.Error("unfinished flags should remain set")
	}
	if r.TurnInProgress() {
		t.Error("gate should be released on error")
	}
}

func TestReconciler_StragglerEventIgnored(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))
	r.BeginTurn("question")
	r.ApplyEvent(api.ErrorEvent{Message: "died"})

	// Events after the terminal one must not patch anything.
	res := r.ApplyEvent(api.Stage3Event{Answer: api.ModelResponse{Response: "late"}})
	if res.TurnEnded {
		t.Error("straggler must not report turn end")
	}
	for _, msg := range r.Conversation().Messages {
		if msg.Stage3 != nil {
			t.Error("straggler patch must not land")
		}
	}
}

func TestReconciler_TurnPinsConversation(t *testing.T) {
	r := NewReconciler()
	orig := newTestConversation("c1")
	r.SetConversation(orig)
	turn, _ := r.BeginTurn("question")

	// User switches away mid-turn.
	r.SetConversation(newTestConversation("c2"))

	r.ApplyEvent(api.Stage3Event{Answer: api.ModelResponse{Response: "final"}})

	if asst := orig.MessageByID(turn.AssistantMsgID); asst == nil || asst.Stage3 == nil {
		t.Error("patch should land on the pinned conversation")
	}
	if len(r.Conversation().Messages) != 0 {
		t.Error("displayed conversation must stay untouched")
	}

	// Title patch follows the pin too.
	r.ApplyEvent(api.TitleEvent{Title: "Pinned"})
	if orig.Title != "Pinned" {
		t.Errorf("orig.Title = %q", orig.Title)
	}
	if r.Conversation().Title == "Pinned" {
		t.Error("displayed conversation title must not change")
	}
}

// =============================================================================
// IMAGE TURN TESTS
// =============================================================================

func TestReconciler_ImageTurn(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))

	turn, err := r.BeginImageTurn("a lighthouse")
	if err != nil {
		t.Fatalf("BeginImageTurn failed: %v", err)
	}

	asst := r.Conversation().MessageByID(turn.AssistantMsgID)
	if !asst.Loading.Image {
		t.Error("image flag should be loading")
	}
	if asst.Loading.Stage1 {
		t.Error("stage flags do not apply to image turns")
	}

	r.ApplyImage(&api.ImageResult{URL: "https://img/1.png", RevisedPrompt: "revised"})
	if asst.ImageURL != "https://img/1.png" || asst.RevisedPrompt != "revised" {
		t.Errorf("message = %+v", asst)
	}
	if asst.Loading.Image {
		t.Error("image flag should clear")
	}
	if r.TurnInProgress() {
		t.Error("gate should be released")
	}
}

func TestReconciler_FailImageReleasesGate(t *testing.T) {
	r := NewReconciler()
	r.SetConversation(newTestConversation("c1"))
	r.BeginImageTurn("prompt")

	r.FailImage()
	if r.TurnInProgress() {
		t.Error("gate should be released")
	}
}

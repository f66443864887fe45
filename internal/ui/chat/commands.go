// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/model"
)

// requestTimeout bounds the non-streaming commands issued from the UI.
const requestTimeout = 30 * time.Second

// =============================================================================
// SESSION COMMANDS
// =============================================================================

func (m *Model) checkSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		session, err := m.authMgr.Session(ctx)
		return sessionMsg{session: session, err: err}
	}
}

func (m *Model) signIn(email, password string, register bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			resp *api.AuthResponse
			err  error
		)
		if register {
			resp, err = m.authMgr.SignUp(ctx, email, password)
		} else {
			resp, err = m.authMgr.SignIn(ctx, email, password)
		}
		return authResultMsg{resp: resp, err: err}
	}
}

func (m *Model) signOut() tea.Cmd {
	return func() tea.Msg {
		if err := m.authMgr.SignOut(); err != nil {
			return errMsg{err: err}
		}
		return sessionMsg{session: nil}
	}
}

// =============================================================================
// CONVERSATION COMMANDS
// =============================================================================

func (m *Model) loadConversations() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := m.client.ListConversations(ctx)
		return conversationsMsg{conversations: list, err: err}
	}
}

func (m *Model) loadConversation(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		wire, err := m.client.GetConversation(ctx, id)
		if err != nil {
			return conversationMsg{err: err}
		}
		return conversationMsg{conversation: model.FromWire(wire)}
	}
}

func (m *Model) createConversation() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		wire, err := m.client.CreateConversation(ctx)
		if err != nil {
			return conversationCreatedMsg{err: err}
		}
		return conversationCreatedMsg{conversation: model.FromWire(wire)}
	}
}

// =============================================================================
// STREAM COMMANDS
// =============================================================================

// startStream opens the turn stream and stores the channels on the model.
// The actual pumping happens through waitForEvent.
func (m *Model) startStream(conversationID, content string) tea.Cmd {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel
	m.events, m.streamErrs = m.client.StreamTurn(ctx, conversationID, content, m.tier, m.danMode)
	return m.waitForEvent()
}

// startAudioStream opens a voice turn stream for a captured clip.
func (m *Model) startAudioStream(conversationID string, audio []byte) tea.Cmd {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel
	m.events, m.streamErrs = m.client.StreamAudioTurn(ctx, conversationID, audio, m.tier)
	return m.waitForEvent()
}

// waitForEvent blocks on the stream channels and resolves to the next
// event, or to streamDoneMsg when the turn is over.
func (m *Model) waitForEvent() tea.Cmd {
	events, errs := m.events, m.streamErrs
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamDoneMsg{err: <-errs, from: events}
		}
		return streamEventMsg{ev: ev}
	}
}

// =============================================================================
// VOICE AND IMAGE COMMANDS
// =============================================================================

// stopVoice finishes the capture and submits it as a voice turn.
func (m *Model) stopVoice(conversationID string) tea.Cmd {
	audio, err := m.recorder.Stop()
	if err != nil {
		return func() tea.Msg { return voiceSentMsg{err: err} }
	}
	return m.startAudioStream(conversationID, audio)
}

func (m *Model) generateImage(prompt string) tea.Cmd {
	return func() tea.Msg {
		// Image generation is slow; give it more room than a JSON call.
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		result, err := m.client.GenerateImage(ctx, prompt)
		return imageMsg{result: result, err: err}
	}
}

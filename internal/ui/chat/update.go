// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/auth"
	"github.com/councilchat/council-tui/internal/util"
)

// imageCommand prefixes a composer line that requests image generation
// instead of a council turn.
const imageCommand = "/image "

// =============================================================================
// UPDATE
// =============================================================================

// Update is the Bubble Tea message dispatcher.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		return m, m.spinner.Update(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sessionMsg:
		return m.handleSession(msg)

	case sessionChangedMsg:
		m.session = msg.session
		// Another process signed in or out; our conversation list is stale
		// either way.
		return m, tea.Batch(m.loadConversations(), m.waitSessionChange())

	case conversationsMsg:
		return m.handleConversations(msg)

	case conversationMsg:
		return m.handleConversationLoaded(msg)

	case conversationCreatedMsg:
		return m.handleConversationCreated(msg)

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case streamDoneMsg:
		return m.handleStreamDone(msg)

	case authResultMsg:
		return m.handleAuthResult(msg)

	case voiceSentMsg:
		if msg.err != nil {
			m.recon.EndTurn()
			m.spinner.Stop()
			m.errText = msg.err.Error()
			m.refreshThread()
		}
		return m, nil

	case imageMsg:
		if msg.err != nil {
			m.recon.FailImage()
			m.errText = msg.err.Error()
		} else {
			m.recon.ApplyImage(msg.result)
		}
		m.spinner.Stop()
		m.refreshThread()
		return m, nil

	case errMsg:
		m.errText = msg.err.Error()
		return m, nil
	}

	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	sidebarWidth := m.cfg.UI.SidebarWidth
	if !m.sidebarVisible() {
		sidebarWidth = 0
	}

	threadWidth := width - sidebarWidth
	inputHeight := m.input.Height() + 2
	threadHeight := height - inputHeight - 2 // header + status bar

	if !m.ready {
		m.viewport = newViewport(threadWidth, threadHeight)
		m.ready = true
	} else {
		m.viewport.Width = threadWidth
		m.viewport.Height = threadHeight
	}

	m.sidebar.SetSize(sidebarWidth, threadHeight)
	m.statusBar.SetWidth(width)
	m.msgView.SetWidth(threadWidth - 2)
	m.input.SetWidth(width - 4)
	m.refreshThread()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit always works, even inside the auth overlay.
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return m, tea.Quit
	}

	if m.showAuth {
		return m.handleAuthKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.handleCancel()

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.NewConv):
		if m.session == nil {
			m.showAuth = true
			return m, nil
		}
		return m, m.createConversation()

	case key.Matches(msg, m.keys.PrevConv):
		return m.switchConversation(-1)

	case key.Matches(msg, m.keys.NextConv):
		return m.switchConversation(1)

	case key.Matches(msg, m.keys.CycleTier):
		m.tier = nextTier(m.tier)
		return m, nil

	case key.Matches(msg, m.keys.ToggleDan):
		m.danMode = nextDanMode(m.danMode)
		return m, nil

	case key.Matches(msg, m.keys.Voice):
		return m.handleVoice()

	case key.Matches(msg, m.keys.Stages):
		m.msgView.ShowStages = !m.msgView.ShowStages
		m.refreshThread()
		return m, nil

	case key.Matches(msg, m.keys.Account):
		if m.session != nil {
			return m, m.signOut()
		}
		m.authOverlay.Reset()
		m.showAuth = true
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.showAuth = false
		return m, nil
	}
	submitted, cmd := m.authOverlay.Update(msg)
	if submitted {
		m.authOverlay.SetBusy(true)
		return m, m.signIn(m.authOverlay.Email(), m.authOverlay.Password(), m.authOverlay.Register())
	}
	return m, cmd
}

func (m *Model) handleCancel() (tea.Model, tea.Cmd) {
	switch {
	case m.recording:
		m.recorder.Cancel()
		m.recording = false
	case m.streaming():
		// The stream goroutine unwinds and delivers streamDoneMsg.
		m.cancelStream()
	default:
		m.errText = ""
	}
	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := util.NormalizeInput(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.session == nil {
		m.authOverlay.Reset()
		m.showAuth = true
		return m, nil
	}
	if m.recon.TurnInProgress() {
		m.errText = "the council is still deliberating"
		return m, nil
	}
	if m.currentConversation() == nil {
		// No conversation yet: create one first, then submit.
		m.pendingConvLoad = true
		return m, m.createConversation()
	}

	return m.submitText(text)
}

func (m *Model) submitText(text string) (tea.Model, tea.Cmd) {
	if prompt, ok := strings.CutPrefix(text, imageCommand); ok {
		return m.submitImage(strings.TrimSpace(prompt))
	}

	turn, err := m.recon.BeginTurn(text)
	if err != nil {
		m.errText = err.Error()
		return m, nil
	}

	m.input.Reset()
	m.errText = ""
	m.refreshThread()
	return m, tea.Batch(
		m.spinner.Start(),
		m.startStream(turn.ConversationID, text),
	)
}

func (m *Model) submitImage(prompt string) (tea.Model, tea.Cmd) {
	if prompt == "" {
		m.errText = "usage: /image <prompt>"
		return m, nil
	}
	if _, err := m.recon.BeginImageTurn(prompt); err != nil {
		m.errText = err.Error()
		return m, nil
	}
	m.input.Reset()
	m.errText = ""
	m.refreshThread()
	return m, tea.Batch(m.spinner.Start(), m.generateImage(prompt))
}

func (m *Model) handleVoice() (tea.Model, tea.Cmd) {
	if m.recorder == nil {
		m.errText = "voice capture is disabled"
		return m, nil
	}
	if m.session == nil {
		m.authOverlay.Reset()
		m.showAuth = true
		return m, nil
	}

	if !m.recording {
		if m.recon.TurnInProgress() {
			m.errText = "the council is still deliberating"
			return m, nil
		}
		if m.currentConversation() == nil {
			m.errText = "start a conversation first (ctrl+n)"
			return m, nil
		}
		if err := m.recorder.Start(); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.recording = true
		return m, nil
	}

	// Second press: finish the capture and submit it.
	m.recording = false
	turn, err := m.recon.BeginVoiceTurn()
	if err != nil {
		m.recorder.Cancel()
		m.errText = err.Error()
		return m, nil
	}
	m.refreshThread()
	return m, tea.Batch(
		m.spinner.Start(),
		m.stopVoice(turn.ConversationID),
	)
}

func (m *Model) switchConversation(delta int) (tea.Model, tea.Cmd) {
	if len(m.conversations) == 0 {
		return m, nil
	}
	before := m.sidebar.Cursor()
	m.sidebar.MoveCursor(delta, len(m.conversations))
	if m.sidebar.Cursor() == before {
		return m, nil
	}
	// Switching away mid-turn is fine: the live turn stays pinned to its
	// own conversation and keeps reconciling in the background.
	return m, m.loadConversation(m.selectedConversationID())
}

// =============================================================================
// ASYNC RESULT HANDLING
// =============================================================================

func (m *Model) handleSession(msg sessionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errText = msg.err.Error()
		return m, nil
	}
	m.session = msg.session
	if m.session == nil && !m.showAuth {
		m.authOverlay.Reset()
		m.showAuth = true
	}
	return m, nil
}

func (m *Model) handleConversations(msg conversationsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrUnauthorized) {
			m.session = nil
			if !m.showAuth {
				m.authOverlay.Reset()
				m.showAuth = true
			}
			return m, nil
		}
		m.errText = msg.err.Error()
		return m, nil
	}

	m.conversations = msg.conversations
	m.sidebar.SetCursor(m.sidebar.Cursor(), len(m.conversations))

	// First load: open the most recent conversation.
	if m.currentConversation() == nil && len(m.conversations) > 0 && !m.pendingConvLoad {
		m.sidebar.SetCursor(0, len(m.conversations))
		return m, m.loadConversation(m.conversations[0].ID)
	}
	return m, nil
}

func (m *Model) handleConversationLoaded(msg conversationMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errText = msg.err.Error()
		return m, nil
	}
	m.recon.SetConversation(msg.conversation)
	m.refreshThread()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) handleConversationCreated(msg conversationCreatedMsg) (tea.Model, tea.Cmd) {
	m.pendingConvLoad = false
	if msg.err != nil {
		m.errText = msg.err.Error()
		return m, nil
	}
	m.recon.SetConversation(msg.conversation)
	m.sidebar.SetCursor(0, len(m.conversations)+1)
	m.refreshThread()

	// Refresh the list so the new conversation appears in the sidebar, and
	// submit any text that was waiting on the conversation.
	cmds := []tea.Cmd{m.loadConversations()}
	if text := util.NormalizeInput(m.input.Value()); text != "" {
		var cmd tea.Cmd
		_, cmd = m.submitText(text)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	res := m.recon.ApplyEvent(msg.ev)

	if res.ErrMessage != "" {
		m.errText = res.ErrMessage
	}
	if res.TurnEnded {
		m.spinner.Stop()
	}
	m.refreshThread()
	m.viewport.GotoBottom()

	cmds := []tea.Cmd{m.waitForEvent()}
	if res.RefreshList {
		cmds = append(cmds, m.loadConversations())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	// A done message from an earlier stream can straddle the gap between
	// its terminal event and a freshly started turn; it must not touch
	// the live stream's state.
	if msg.from != m.events {
		return m, nil
	}
	m.events = nil
	m.streamErrs = nil
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
	m.spinner.Stop()

	// A transport failure or cancellation can end the stream without a
	// terminal event; release the turn gate so the user can try again.
	if m.recon.TurnInProgress() {
		m.recon.EndTurn()
	}
	if msg.err != nil {
		m.errText = msg.err.Error()
	}
	m.refreshThread()
	return m, nil
}

func (m *Model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.authOverlay.SetError(authErrorText(msg.err))
		return m, nil
	}
	m.session = &auth.Session{User: msg.resp.User}
	m.showAuth = false
	m.authOverlay.Reset()
	return m, m.loadConversations()
}

// =============================================================================
// HELPERS
// =============================================================================

func nextTier(tier string) string {
	switch tier {
	case api.TierPro:
		return api.TierBudget
	case api.TierBudget:
		return api.TierUncensored
	default:
		return api.TierPro
	}
}

// nextDanMode cycles off -> each persona -> off.
func nextDanMode(mode string) string {
	if mode == "" {
		return api.DanModes[0]
	}
	for i, id := range api.DanModes {
		if id == mode {
			if i+1 < len(api.DanModes) {
				return api.DanModes[i+1]
			}
			return ""
		}
	}
	return ""
}

// authErrorText keeps server detail when present but flattens transport
// noise into something a user can act on.
func authErrorText(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}

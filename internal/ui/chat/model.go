// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the council chat view: a conversation sidebar, a
// message thread, a composer, and the status line, driven by the Bubble Tea
// event loop. Turn streams run on background goroutines and feed events
// back into Update as messages.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/auth"
	"github.com/councilchat/council-tui/internal/config"
	"github.com/councilchat/council-tui/internal/model"
	"github.com/councilchat/council-tui/internal/ui/components"
	"github.com/councilchat/council-tui/internal/ui/styles"
	"github.com/councilchat/council-tui/internal/voice"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the top-level Bubble Tea model for the chat interface.
type Model struct {
	cfg      *config.Config
	client   *api.Client
	authMgr  *auth.Manager
	recon    *model.Reconciler
	recorder *voice.Recorder

	theme *styles.Theme
	keys  KeyMap

	sidebar   components.Sidebar
	statusBar components.StatusBar
	spinner   components.StageSpinner
	msgView   components.MessageView
	markdown  *components.Markdown
	viewport  viewport.Model
	input     textarea.Model

	conversations []api.ConversationMeta
	session       *auth.Session

	authOverlay *AuthOverlay
	showAuth    bool

	// Live turn stream. Nil when no turn is in flight.
	events       <-chan api.Event
	streamErrs   <-chan error
	cancelStream context.CancelFunc

	// Token changes made by other processes arrive here.
	sessionChanges chan *auth.Session
	unsubscribe    func()

	tier    string
	danMode string

	width   int
	height  int
	ready   bool
	errText string
	showHelp bool
	recording bool
	pendingConvLoad bool
}

// New creates the chat model. The recorder may be nil when voice is
// disabled in config.
func New(cfg *config.Config, client *api.Client, authMgr *auth.Manager, recorder *voice.Recorder) *Model {
	theme := styles.NewTheme()
	markdown := components.NewMarkdown(cfg.UI.GlamourStyle)

	input := textarea.New()
	input.Placeholder = "Ask the council anything..."
	input.Prompt = "> "
	input.SetHeight(2)
	input.CharLimit = 8192
	input.ShowLineNumbers = false
	input.Focus()

	msgView := components.NewMessageView(theme, markdown)
	msgView.ShowStages = cfg.UI.ShowStages

	m := &Model{
		cfg:            cfg,
		client:         client,
		authMgr:        authMgr,
		recon:          model.NewReconciler(),
		recorder:       recorder,
		theme:          theme,
		keys:           DefaultKeyMap(),
		sidebar:        components.NewSidebar(theme, cfg.UI.SidebarWidth),
		statusBar:      components.NewStatusBar(theme),
		spinner:        components.NewStageSpinner(theme),
		msgView:        msgView,
		markdown:       markdown,
		input:          input,
		authOverlay:    NewAuthOverlay(theme),
		sessionChanges: make(chan *auth.Session, 1),
		tier:           cfg.Chat.Tier,
		danMode:        cfg.Chat.DanMode,
	}

	// Token changes from other processes land on a channel the event loop
	// drains; Bubble Tea models cannot be called from foreign goroutines.
	m.unsubscribe = authMgr.Subscribe(func(s *auth.Session) {
		select {
		case m.sessionChanges <- s:
		default:
		}
	})

	return m
}

// Init starts the initial session check and conversation list load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.checkSession(),
		m.loadConversations(),
		m.waitSessionChange(),
	)
}

// waitSessionChange re-arms the cross-process session listener.
func (m *Model) waitSessionChange() tea.Cmd {
	return func() tea.Msg {
		return sessionChangedMsg{session: <-m.sessionChanges}
	}
}

// streaming reports whether a turn stream is live.
func (m *Model) streaming() bool {
	return m.events != nil
}

// currentConversation returns the reconciler's active conversation.
func (m *Model) currentConversation() *model.Conversation {
	return m.recon.Conversation()
}

// selectedConversationID returns the sidebar selection's id, or "".
func (m *Model) selectedConversationID() string {
	if len(m.conversations) == 0 {
		return ""
	}
	i := m.sidebar.Cursor()
	if i < 0 || i >= len(m.conversations) {
		return ""
	}
	return m.conversations[i].ID
}

// Close releases background resources. Called after the program exits.
func (m *Model) Close() {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.recorder != nil {
		m.recorder.Cancel()
	}
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/councilchat/council-tui/internal/ui/components"
	"github.com/councilchat/council-tui/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat interface.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showAuth {
		return centerOverlay(m.width, m.height, m.authOverlay.View())
	}
	if m.showHelp {
		return centerOverlay(m.width, m.height, m.renderHelp())
	}

	header := m.renderHeader()
	body := m.renderBody()
	input := m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
	status := m.statusBar.View(m.statusState())

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, status)
}

func (m *Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("⚖ council")
	title := ""
	if conv := m.currentConversation(); conv != nil {
		title = m.theme.HeaderTitle.Render("  " + conv.GetTitle())
	}
	return m.theme.Header.Width(m.width).Render(brand + title)
}

func (m *Model) renderBody() string {
	if m.sidebarVisible() {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			m.sidebar.View(m.conversations),
			m.viewport.View(),
		)
	}
	return m.viewport.View()
}

func (m *Model) statusState() components.StatusState {
	email := ""
	if m.session != nil {
		email = m.session.User.Email
	}
	return components.StatusState{
		Tier:      m.tier,
		DanMode:   m.danMode,
		Recording: m.recording,
		Streaming: m.streaming(),
		UserEmail: email,
	}
}

// sidebarVisible hides the conversation list on narrow terminals.
func (m *Model) sidebarVisible() bool {
	return m.theme.GetLayoutMode() == styles.LayoutWide
}

// =============================================================================
// THREAD RENDERING
// =============================================================================

// refreshThread re-renders the message thread into the viewport.
func (m *Model) refreshThread() {
	if !m.ready {
		return
	}

	conv := m.currentConversation()
	if conv == nil || conv.IsEmpty() {
		m.viewport.SetContent(m.renderWelcome())
		return
	}

	var sections []string
	for _, msg := range conv.Messages {
		sections = append(sections, m.msgView.Render(msg))
		if msg.IsPending() && m.spinner.Active() {
			sections = append(sections, m.spinner.View(msg.Loading))
		}
	}

	if m.errText != "" {
		sections = append(sections, m.theme.ErrorBox.Width(m.viewport.Width-2).Render(m.errText))
	}

	m.viewport.SetContent(strings.Join(sections, "\n\n"))
}

func (m *Model) renderWelcome() string {
	lines := []string{
		m.theme.HeaderBrand.Render("The council is in session."),
		"",
		m.theme.ThinkingText.Render("Several models answer, rank each other, and a chairman"),
		m.theme.ThinkingText.Render("synthesizes the final reply."),
		"",
		m.theme.ShortcutDesc.Render("Type a question and press enter to begin."),
	}
	if m.errText != "" {
		lines = append(lines, "", m.theme.ErrorBox.Render(m.errText))
	}
	return lipgloss.Place(m.viewport.Width, m.viewport.Height,
		lipgloss.Center, lipgloss.Center,
		strings.Join(lines, "\n"))
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.OverlayTitle.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(m.theme.ShortcutKey.Render(padRight(h.Key, 10)))
			b.WriteString(" ")
			b.WriteString(m.theme.ShortcutDesc.Render(h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.ShortcutDesc.Render("press ctrl+? again to close"))
	return m.theme.OverlayBox.Render(b.String())
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// newViewport builds the thread viewport.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.MouseWheelEnabled = true
	return vp
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/ui/styles"
	"github.com/councilchat/council-tui/internal/util"
)

// =============================================================================
// CONVERSATION SIDEBAR
// =============================================================================

// Sidebar lists conversations newest-first with one selected. It owns only
// cursor and scroll state; the conversation list itself lives on the chat
// model and is passed in per render.
type Sidebar struct {
	theme  *styles.Theme
	width  int
	height int

	cursor int
	offset int
}

// NewSidebar creates a sidebar.
func NewSidebar(theme *styles.Theme, width int) Sidebar {
	return Sidebar{theme: theme, width: width}
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Width returns the sidebar's column width.
func (s *Sidebar) Width() int {
	return s.width
}

// Cursor returns the selected index.
func (s *Sidebar) Cursor() int {
	return s.cursor
}

// SetCursor moves the selection, clamped to the list.
func (s *Sidebar) SetCursor(i, count int) {
	if count == 0 {
		s.cursor = 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= count {
		i = count - 1
	}
	s.cursor = i
	s.scrollIntoView(count)
}

// MoveCursor shifts the selection by delta.
func (s *Sidebar) MoveCursor(delta, count int) {
	s.SetCursor(s.cursor+delta, count)
}

func (s *Sidebar) scrollIntoView(count int) {
	visible := s.visibleRows()
	if visible <= 0 {
		return
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}
	if s.offset > count-visible {
		s.offset = count - visible
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// visibleRows is the height minus the title row.
func (s *Sidebar) visibleRows() int {
	return s.height - 2
}

// View renders the conversation list.
func (s Sidebar) View(conversations []api.ConversationMeta) string {
	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	if len(conversations) == 0 {
		b.WriteString(s.theme.SidebarEmpty.Render("No conversations yet"))
		return s.theme.Sidebar.Height(s.height).Width(s.width).Render(b.String())
	}

	visible := s.visibleRows()
	end := s.offset + visible
	if end > len(conversations) {
		end = len(conversations)
	}

	itemWidth := s.width - 4
	for i := s.offset; i < end; i++ {
		conv := conversations[i]
		title := conv.Title
		if title == "" {
			title = "New Conversation"
		}
		line := util.TruncateWidth(title, itemWidth)
		if i == s.cursor {
			b.WriteString(s.theme.SidebarItemSelected.Render(line))
		} else {
			b.WriteString(s.theme.SidebarItem.Render(line))
		}
		b.WriteString("\n")
	}

	if len(conversations) > visible {
		b.WriteString(s.theme.SidebarItemTimestamp.Render(
			fmt.Sprintf(" %d/%d", s.cursor+1, len(conversations))))
	}

	return s.theme.Sidebar.Height(s.height).Width(s.width).Render(b.String())
}

// FormatAge renders a conversation timestamp as a compact relative age.
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

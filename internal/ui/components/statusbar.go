// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusState is everything the status bar displays.
type StatusState struct {
	Tier      string
	DanMode   string // persona id, "" = off
	Recording bool
	Streaming bool
	UserEmail string // "" = guest
}

// StatusBar renders the bottom status line: tier, persona, auth identity,
// and contextual shortcuts.
type StatusBar struct {
	theme *styles.Theme
	width int
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// View renders the status bar.
func (s StatusBar) View(state StatusState) string {
	var left []string

	left = append(left, s.tierBadge(state.Tier))
	if state.DanMode != "" {
		left = append(left, s.theme.DanBadge.Render("DAN:"+state.DanMode))
	}
	if state.Recording {
		left = append(left, s.theme.Recording.Render("REC"))
	}

	if state.UserEmail != "" {
		left = append(left, s.theme.SignedIn.Render(state.UserEmail))
	} else {
		left = append(left, s.theme.SignedOut.Render("guest"))
	}

	right := s.shortcuts(state)

	leftStr := strings.Join(left, " ")
	gap := s.width - lipgloss.Width(leftStr) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return s.theme.StatusBar.Width(s.width).Render(
		leftStr + strings.Repeat(" ", gap) + right)
}

func (s StatusBar) tierBadge(tier string) string {
	switch tier {
	case api.TierBudget:
		return s.theme.TierBudget.Render(tier)
	case api.TierUncensored:
		return s.theme.TierUncensored.Render(tier)
	default:
		return s.theme.TierPro.Render(tier)
	}
}

func (s StatusBar) shortcuts(state StatusState) string {
	type hint struct{ key, desc string }
	var hints []hint
	if state.Streaming {
		hints = []hint{{"esc", "cancel"}}
	} else if state.Recording {
		hints = []hint{{"C-v", "send"}, {"esc", "discard"}}
	} else {
		hints = []hint{
			{"C-n", "new"},
			{"C-t", "tier"},
			{"C-v", "voice"},
			{"tab", "stages"},
			{"?", "help"},
		}
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = s.theme.ShortcutKey.Render(h.key) + " " + s.theme.ShortcutDesc.Render(h.desc)
	}
	return strings.Join(parts, "  ")
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the council TUI.
package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders model output as styled terminal markdown. Renderers are
// cached per width because glamour re-wraps on construction, not on render.
type Markdown struct {
	mu       sync.Mutex
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer with the given glamour style ("auto",
// "dark", "light", "notty", "dracula").
func NewMarkdown(style string) *Markdown {
	return &Markdown{style: style, width: 80}
}

// SetWidth sets the wrap width. The underlying renderer is rebuilt lazily.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	m.mu.Lock()
	if width != m.width {
		m.width = width
		m.renderer = nil
	}
	m.mu.Unlock()
}

// Render renders markdown text. On renderer failure the raw text comes back
// unchanged; a markdown glitch must never drop an answer.
func (m *Markdown) Render(text string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer == nil {
		opts := []glamour.TermRendererOption{
			glamour.WithWordWrap(m.width),
			glamour.WithEmoji(),
		}
		if m.style == "auto" || m.style == "" {
			opts = append(opts, glamour.WithAutoStyle())
		} else {
			opts = append(opts, glamour.WithStandardStyle(m.style))
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return text
		}
		m.renderer = r
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

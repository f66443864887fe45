// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	PrevConv key.Binding
	NextConv key.Binding
	Submit   key.Binding
	Cancel   key.Binding
	NewConv  key.Binding
	CycleTier key.Binding
	ToggleDan key.Binding
	Voice     key.Binding
	Stages    key.Binding
	Account   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		PrevConv: key.NewBinding(
			key.WithKeys("ctrl+up", "ctrl+p"),
			key.WithHelp("C-up", "previous conversation"),
		),
		NextConv: key.NewBinding(
			key.WithKeys("ctrl+down", "ctrl+j"),
			key.WithHelp("C-down", "next conversation"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),
		NewConv: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new conversation"),
		),
		CycleTier: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "cycle tier"),
		),
		ToggleDan: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("C-g", "toggle dan mode"),
		),
		Voice: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("C-v", "start/stop voice"),
		),
		Stages: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "expand stages"),
		),
		Account: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "sign in/out"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+_"),
			key.WithHelp("C-?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the most commonly used shortcuts.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NewConv, k.Voice, k.Quit}
}

// FullHelp returns all bindings grouped for the help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.PrevConv, k.NextConv, k.NewConv},
		{k.Submit, k.Cancel, k.Voice, k.Stages},
		{k.CycleTier, k.ToggleDan, k.Account, k.Help, k.Quit},
	}
}

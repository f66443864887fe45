// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/councilchat/council-tui/internal/ui/styles"
)

// =============================================================================
// AUTH OVERLAY
// =============================================================================

// authField indexes the focused input in the overlay.
type authField int

const (
	fieldEmail authField = iota
	fieldPassword
)

// AuthOverlay is the modal sign-in/sign-up form. Tab switches fields,
// ctrl+r flips between login and register, enter submits.
type AuthOverlay struct {
	theme    *styles.Theme
	email    textinput.Model
	password textinput.Model
	focused  authField
	register bool
	busy     bool
	errText  string
}

// NewAuthOverlay creates the overlay with the email field focused.
func NewAuthOverlay(theme *styles.Theme) *AuthOverlay {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 36
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	return &AuthOverlay{
		theme:    theme,
		email:    email,
		password: password,
	}
}

// SetBusy marks the form as submitting; input is ignored while busy.
func (a *AuthOverlay) SetBusy(busy bool) {
	a.busy = busy
}

// SetError shows a failure message under the form.
func (a *AuthOverlay) SetError(msg string) {
	a.busy = false
	a.errText = msg
}

// Reset clears the form for the next use.
func (a *AuthOverlay) Reset() {
	a.email.SetValue("")
	a.password.SetValue("")
	a.errText = ""
	a.busy = false
	a.focused = fieldEmail
	a.email.Focus()
	a.password.Blur()
}

// Update handles key input. It returns (submitted, cmd): submitted is true
// when the user pressed enter with both fields filled.
func (a *AuthOverlay) Update(msg tea.Msg) (bool, tea.Cmd) {
	if a.busy {
		return false, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "shift+tab", "up", "down":
			a.toggleFocus()
			return false, nil
		case "ctrl+r":
			a.register = !a.register
			return false, nil
		case "enter":
			if a.Email() != "" && a.Password() != "" {
				a.errText = ""
				return true, nil
			}
			a.errText = "email and password are required"
			return false, nil
		}
	}

	var cmd tea.Cmd
	if a.focused == fieldEmail {
		a.email, cmd = a.email.Update(msg)
	} else {
		a.password, cmd = a.password.Update(msg)
	}
	return false, cmd
}

func (a *AuthOverlay) toggleFocus() {
	if a.focused == fieldEmail {
		a.focused = fieldPassword
		a.email.Blur()
		a.password.Focus()
	} else {
		a.focused = fieldEmail
		a.password.Blur()
		a.email.Focus()
	}
}

// Email returns the trimmed email value.
func (a *AuthOverlay) Email() string {
	return strings.TrimSpace(a.email.Value())
}

// Password returns the password value.
func (a *AuthOverlay) Password() string {
	return a.password.Value()
}

// Register reports whether the form is in sign-up mode.
func (a *AuthOverlay) Register() bool {
	return a.register
}

// View renders the overlay box.
func (a *AuthOverlay) View() string {
	title := "Sign in"
	action := "need an account? ctrl+r to register"
	if a.register {
		title = "Create account"
		action = "have an account? ctrl+r to sign in"
	}

	var b strings.Builder
	b.WriteString(a.theme.OverlayTitle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(a.theme.OverlayLabel.Render("Email"))
	b.WriteString("\n")
	b.WriteString(a.email.View())
	b.WriteString("\n\n")
	b.WriteString(a.theme.OverlayLabel.Render("Password"))
	b.WriteString("\n")
	b.WriteString(a.password.View())
	b.WriteString("\n\n")

	if a.busy {
		b.WriteString(a.theme.ThinkingText.Render("Signing in..."))
	} else if a.errText != "" {
		b.WriteString(a.theme.ErrorMessage.Render(a.errText))
	} else {
		b.WriteString(a.theme.ShortcutDesc.Render(action))
	}
	b.WriteString("\n")
	b.WriteString(a.theme.ShortcutDesc.Render("enter to submit · esc to stay signed out"))

	return a.theme.OverlayBox.Render(b.String())
}

// centerOverlay positions overlay content in the middle of the screen.
func centerOverlay(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

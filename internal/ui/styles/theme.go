// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the council TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderTitle lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar              lipgloss.Style
	SidebarTitle         lipgloss.Style
	SidebarItem          lipgloss.Style
	SidebarItemSelected  lipgloss.Style
	SidebarItemTimestamp lipgloss.Style
	SidebarEmpty         lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel     lipgloss.Style
	UserMessage   lipgloss.Style
	CouncilLabel  lipgloss.Style
	CouncilAnswer lipgloss.Style
	StageHeading  lipgloss.Style
	StageBody     lipgloss.Style
	StageModel    lipgloss.Style
	Timestamp     lipgloss.Style
	AudioHint     lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar      lipgloss.Style
	TierPro        lipgloss.Style
	TierBudget     lipgloss.Style
	TierUncensored lipgloss.Style
	DanBadge       lipgloss.Style
	Recording      lipgloss.Style
	SignedIn       lipgloss.Style
	SignedOut      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ThinkingTime lipgloss.Style

	// ==========================================================================
	// OVERLAY STYLES
	// ==========================================================================

	OverlayBox   lipgloss.Style
	OverlayTitle lipgloss.Style
	OverlayLabel lipgloss.Style

	// ==========================================================================
	// ERROR STYLES
	// ==========================================================================

	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Bold(true).
		Padding(0, 1)

	t.SidebarItemTimestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.SidebarEmpty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 1)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.UserMessage = lipgloss.NewStyle().
		Foreground(UserFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBorder).
		PaddingLeft(1)

	t.CouncilLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.CouncilAnswer = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(CouncilBorder).
		PaddingLeft(1)

	t.StageHeading = lipgloss.NewStyle().
		Bold(true).
		Foreground(StageFg)

	t.StageBody = lipgloss.NewStyle().
		Foreground(StageFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(StageBorder).
		PaddingLeft(1)

	t.StageModel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.AudioHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.TierPro = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)

	t.TierBudget = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.TierUncensored = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.DanBadge = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Amber).
		Padding(0, 1)

	t.Recording = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextInverse).
		Background(Rose).
		Padding(0, 1)

	t.SignedIn = lipgloss.NewStyle().
		Foreground(Emerald)

	t.SignedOut = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Indigo)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ThinkingTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Overlays (auth prompt)
	t.OverlayBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(1, 3)

	t.OverlayTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.OverlayLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Errors
	t.ErrorBox = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		PaddingLeft(1)

	t.ErrorTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 70 {
		return LayoutNarrow
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // sidebar hidden
	LayoutWide                     // sidebar visible
)

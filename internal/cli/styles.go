// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/councilchat/council-tui/internal/ui/styles"
)

// =============================================================================
// CLI OUTPUT STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Indigo).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	stageStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true)

	modelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// printError writes a styled error line to stderr.
func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+fmt.Sprintf(format, args...))
}

// fail prints the error and exits non-zero.
func fail(format string, args ...any) {
	printError(format, args...)
	os.Exit(1)
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/councilchat/council-tui/internal/model"
	"github.com/councilchat/council-tui/internal/ui/styles"
)

// =============================================================================
// STAGE SPINNER
// =============================================================================

// StageSpinner is the loading indicator for an in-flight turn. Its label
// follows the deliberation pipeline: which stage is running is derived from
// the pending message's loading flags, never stored separately.
type StageSpinner struct {
	spinner   spinner.Model
	theme     *styles.Theme
	startTime time.Time
	active    bool
}

// NewStageSpinner creates a stage spinner.
func NewStageSpinner(theme *styles.Theme) StageSpinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = theme.Spinner
	return StageSpinner{spinner: s, theme: theme}
}

// Start begins the animation and the elapsed timer.
func (s *StageSpinner) Start() tea.Cmd {
	s.active = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop halts the animation.
func (s *StageSpinner) Stop() {
	s.active = false
}

// Active reports whether the spinner is animating.
func (s *StageSpinner) Active() bool {
	return s.active
}

// Update advances the animation frame.
func (s *StageSpinner) Update(msg tea.Msg) tea.Cmd {
	if !s.active {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// StageLabel maps loading flags onto the running pipeline stage. Stages
// finish in order, so the first still-loading stage is the active one.
func StageLabel(loading model.Loading) string {
	switch {
	case loading.Image:
		return "Generating image"
	case loading.Stage1:
		return "Consulting the council"
	case loading.Stage2:
		return "Council members are ranking each other"
	case loading.Stage3:
		return "Chairman is synthesizing the final answer"
	default:
		return "Finishing up"
	}
}

// View renders the spinner with the stage label and elapsed time.
func (s StageSpinner) View(loading model.Loading) string {
	if !s.active {
		return ""
	}
	elapsed := time.Since(s.startTime).Seconds()
	return fmt.Sprintf("%s %s%s %s",
		s.spinner.View(),
		s.theme.ThinkingText.Render(StageLabel(loading)),
		s.theme.ThinkingText.Render("..."),
		s.theme.ThinkingTime.Render(fmt.Sprintf("(%.0fs)", elapsed)),
	)
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/councilchat/council-tui/internal/model"
	"github.com/councilchat/council-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE VIEW
// =============================================================================

// MessageView renders chat messages into the thread viewport. The final
// council answer goes through the markdown pipeline; intermediate stage
// detail renders as muted plain text behind a toggle.
type MessageView struct {
	theme    *styles.Theme
	markdown *Markdown
	width    int

	// ShowStages expands the stage 1/2 deliberation detail.
	ShowStages bool
}

// NewMessageView creates a message view.
func NewMessageView(theme *styles.Theme, markdown *Markdown) MessageView {
	return MessageView{theme: theme, markdown: markdown, width: 80}
}

// SetWidth updates the render width and reflows markdown.
func (v *MessageView) SetWidth(width int) {
	v.width = width
	v.markdown.SetWidth(width - 4)
}

// Render renders a single message.
func (v MessageView) Render(msg *model.Message) string {
	if msg.Role == model.RoleUser {
		return v.renderUser(msg)
	}
	return v.renderAssistant(msg)
}

func (v MessageView) renderUser(msg *model.Message) string {
	header := v.theme.UserLabel.Render(msg.Role.DisplayName()) + " " +
		v.theme.Timestamp.Render(FormatAge(msg.Timestamp))

	content := msg.Content
	if content == model.VoicePlaceholder {
		return header + "\n" + v.theme.AudioHint.Render(content)
	}
	return header + "\n" + v.theme.UserMessage.Width(v.width-2).Render(content)
}

func (v MessageView) renderAssistant(msg *model.Message) string {
	var sections []string

	header := v.theme.CouncilLabel.Render(msg.Role.DisplayName()) + " " +
		v.theme.Timestamp.Render(FormatAge(msg.Timestamp))
	sections = append(sections, header)

	if s := v.renderStage1(msg); s != "" {
		sections = append(sections, s)
	}
	if s := v.renderStage2(msg); s != "" {
		sections = append(sections, s)
	}
	if s := v.renderStage3(msg); s != "" {
		sections = append(sections, s)
	}
	if s := v.renderImage(msg); s != "" {
		sections = append(sections, s)
	}

	return strings.Join(sections, "\n")
}

func (v MessageView) renderStage1(msg *model.Message) string {
	if len(msg.Stage1) == 0 {
		return ""
	}
	if !v.ShowStages {
		return v.theme.StageHeading.Render(
			fmt.Sprintf("Stage 1 · %d responses", len(msg.Stage1))) +
			v.theme.Timestamp.Render("  (tab to expand)")
	}

	var b strings.Builder
	b.WriteString(v.theme.StageHeading.Render("Stage 1 · First opinions"))
	for _, resp := range msg.Stage1 {
		b.WriteString("\n")
		b.WriteString(v.theme.StageModel.Render(resp.Model))
		b.WriteString("\n")
		b.WriteString(v.renderStageText(resp.Response))
	}
	return b.String()
}

func (v MessageView) renderStage2(msg *model.Message) string {
	if len(msg.Stage2) == 0 {
		return ""
	}
	if !v.ShowStages {
		return v.theme.StageHeading.Render(
			fmt.Sprintf("Stage 2 · %d rankings", len(msg.Stage2))) +
			v.theme.Timestamp.Render("  (tab to expand)")
	}

	var b strings.Builder
	b.WriteString(v.theme.StageHeading.Render("Stage 2 · Peer review"))
	for _, r := range msg.Stage2 {
		b.WriteString("\n")
		b.WriteString(v.theme.StageModel.Render(r.Model))
		b.WriteString("\n")
		b.WriteString(v.renderStageText(r.Ranking))
	}
	return b.String()
}

// renderStageText renders raw stage output, routing fenced code blocks
// through the syntax highlighter and prose through the muted stage style.
// Stage detail skips the markdown pipeline, so fences are handled here.
func (v MessageView) renderStageText(text string) string {
	var out []string
	var prose, code []string
	var lang string
	inCode := false

	flushProse := func() {
		if len(prose) > 0 {
			out = append(out, v.theme.StageBody.Width(v.width-2).Render(strings.Join(prose, "\n")))
			prose = nil
		}
	}
	flushCode := func() {
		block := NewCodeBlock(lang, strings.Join(code, "\n"))
		block.MaxWidth = v.width - 2
		out = append(out, block.Render())
		code = nil
		inCode = false
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flushCode()
			} else {
				flushProse()
				lang = strings.TrimPrefix(trimmed, "```")
				inCode = true
			}
			continue
		}
		if inCode {
			code = append(code, line)
		} else {
			prose = append(prose, line)
		}
	}
	if inCode {
		// Unterminated fence: show what arrived as code anyway.
		flushCode()
	}
	flushProse()
	return strings.Join(out, "\n")
}

func (v MessageView) renderStage3(msg *model.Message) string {
	if msg.Stage3 == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(v.theme.StageModel.Render("Final answer · " + msg.Stage3.Model))
	b.WriteString("\n")
	b.WriteString(v.theme.CouncilAnswer.Width(v.width - 2).Render(
		v.markdown.Render(msg.Stage3.Response)))
	if msg.AudioURL != "" {
		b.WriteString("\n")
		b.WriteString(v.theme.AudioHint.Render("🔊 audio reply: " + msg.AudioURL))
	}
	return b.String()
}

func (v MessageView) renderImage(msg *model.Message) string {
	if msg.ImageURL == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(v.theme.StageModel.Render("Image"))
	b.WriteString("\n")
	b.WriteString(v.theme.CouncilAnswer.Width(v.width - 2).Render(msg.ImageURL))
	if msg.RevisedPrompt != "" {
		b.WriteString("\n")
		b.WriteString(v.theme.AudioHint.Render(msg.RevisedPrompt))
	}
	return b.String()
}

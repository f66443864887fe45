// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/councilchat/council-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders conversations as Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the Markdown MIME type.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

// Export renders the conversation.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(conv.GetTitle())))
		if !conv.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(conv.Messages)))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: council-tui\n")
		sb.WriteString("---\n\n")
	}

	sb.WriteString(fmt.Sprintf("# %s\n\n", conv.GetTitle()))

	for _, msg := range conv.Messages {
		e.writeMessage(&sb, msg)
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeMessage(sb *strings.Builder, msg *model.Message) {
	switch msg.Role {
	case model.RoleUser:
		sb.WriteString("## 🧑 You\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")

	case model.RoleAssistant:
		sb.WriteString("## ⚖ Council\n\n")

		if e.options.IncludeStages {
			e.writeStages(sb, msg)
		}

		if msg.Stage3 != nil {
			sb.WriteString(fmt.Sprintf("**Final answer** (%s):\n\n", msg.Stage3.Model))
			sb.WriteString(msg.Stage3.Response)
			sb.WriteString("\n\n")
		}
		if msg.AudioURL != "" {
			sb.WriteString(fmt.Sprintf("Audio reply: %s\n\n", msg.AudioURL))
		}
		if msg.ImageURL != "" {
			sb.WriteString(fmt.Sprintf("![generated image](%s)\n\n", msg.ImageURL))
			if msg.RevisedPrompt != "" {
				sb.WriteString(fmt.Sprintf("> %s\n\n", msg.RevisedPrompt))
			}
		}
	}
}

func (e *MarkdownExporter) writeStages(sb *strings.Builder, msg *model.Message) {
	if len(msg.Stage1) > 0 {
		sb.WriteString("<details><summary>Stage 1 · First opinions</summary>\n\n")
		for _, r := range msg.Stage1 {
			sb.WriteString(fmt.Sprintf("**%s**:\n\n%s\n\n", r.Model, r.Response))
		}
		sb.WriteString("</details>\n\n")
	}
	if len(msg.Stage2) > 0 {
		sb.WriteString("<details><summary>Stage 2 · Peer review</summary>\n\n")
		for _, r := range msg.Stage2 {
			sb.WriteString(fmt.Sprintf("**%s**:\n\n%s\n\n", r.Model, r.Ranking))
		}
		sb.WriteString("</details>\n\n")
	}
}

// escapeYAML keeps titles on one line inside the frontmatter.
func escapeYAML(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	if strings.ContainsAny(s, ":#{}[]&*?|<>=!%@`\"'") {
		s = "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
	}
	return s
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/councilchat/council-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter renders conversations as a JSON document for programmatic
// use. It always carries full stage detail; consumers can ignore fields.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }

// jsonDocument is the export envelope.
type jsonDocument struct {
	Title      string           `json:"title"`
	CreatedAt  string           `json:"created_at,omitempty"`
	ExportedAt string           `json:"exported_at"`
	Generator  string           `json:"generator"`
	Messages   []*model.Message `json:"messages"`
}

// Export renders the conversation.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	doc := jsonDocument{
		Title:      conv.GetTitle(),
		ExportedAt: time.Now().Format(time.RFC3339),
		Generator:  "council-tui",
		Messages:   conv.Messages,
	}
	if !conv.CreatedAt.IsZero() {
		doc.CreatedAt = conv.CreatedAt.Format(time.RFC3339)
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return out, nil
}

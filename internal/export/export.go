// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders council conversations into portable formats.
// The backend owns the data; exports are snapshots of a fetched
// conversation, full deliberation detail included.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/councilchat/council-tui/internal/model"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a conversation to a target format.
type Exporter interface {
	// Export renders the conversation and returns the content.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g. ".md").
	FileExtension() string

	// MimeType returns the MIME type of the exported format.
	MimeType() string
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format: %s (want md or json)", format)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files are saved. Default: cwd.
	OutputDir string

	// IncludeMetadata includes the conversation header (dates, counts).
	IncludeMetadata bool

	// IncludeStages includes stage 1 responses and stage 2 rankings, not
	// just the final answers.
	IncludeStages bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
		IncludeStages:   false,
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders the conversation and writes it next to the caller.
// Returns the output file path.
func ExportToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("council_%s_%s%s",
		sanitizeFilename(conv.GetTitle()),
		timestamp,
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// validate rejects conversations that cannot produce a useful export.
func validate(conv *model.Conversation) error {
	if conv == nil {
		return fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return fmt.Errorf("conversation has no messages")
	}
	return nil
}

// sanitizeFilename reduces a title to a safe filename fragment.
func sanitizeFilename(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('_')
		}
		if sb.Len() >= 40 {
			break
		}
	}
	if sb.Len() == 0 {
		return "conversation"
	}
	return sb.String()
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/model"
)

func testConversation() *model.Conversation {
	conv := &model.Conversation{
		ID:        "c1",
		Title:     "On Lighthouses",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	user := model.NewUserMessage("Why do lighthouses blink?")
	asst := model.NewPendingAssistantMessage()
	asst.Stage1 = []api.ModelResponse{{Model: "m1", Response: "First opinion"}}
	asst.Stage2 = []api.ModelRanking{{Model: "m1", Ranking: "1. Response A"}}
	asst.Stage3 = &api.ModelResponse{Model: "chairman", Response: "Because of light codes."}
	asst.Loading = model.Loading{}
	conv.Append(user, asst)
	return conv
}

// =============================================================================
// FORMAT SELECTION TESTS
// =============================================================================

func TestForFormat(t *testing.T) {
	for _, name := range []string{"md", "markdown", "MD", "json", "JSON"} {
		if _, err := ForFormat(name, nil); err != nil {
			t.Errorf("ForFormat(%q) failed: %v", name, err)
		}
	}
	if _, err := ForFormat("pdf", nil); err == nil {
		t.Error("unknown format should fail")
	}
}

// =============================================================================
// MARKDOWN EXPORT TESTS
// =============================================================================

func TestMarkdownExporter_Basic(t *testing.T) {
	e := NewMarkdownExporter(nil)
	out, err := e.Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	text := string(out)

	for _, want := range []string{
		"title: On Lighthouses",
		"# On Lighthouses",
		"Why do lighthouses blink?",
		"**Final answer** (chairman):",
		"Because of light codes.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
	// Stage detail is off by default.
	if strings.Contains(text, "First opinion") {
		t.Error("stage detail should be omitted by default")
	}
}

func TestMarkdownExporter_WithStages(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeStages = true
	out, err := NewMarkdownExporter(opts).Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "Stage 1 · First opinions") {
		t.Error("missing stage 1 section")
	}
	if !strings.Contains(text, "Stage 2 · Peer review") {
		t.Error("missing stage 2 section")
	}
	if !strings.Contains(text, "First opinion") {
		t.Error("missing stage 1 content")
	}
}

func TestMarkdownExporter_NoMetadata(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeMetadata = false
	out, err := NewMarkdownExporter(opts).Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.HasPrefix(string(out), "---") {
		t.Error("frontmatter should be omitted")
	}
}

func TestMarkdownExporter_EmptyConversation(t *testing.T) {
	if _, err := NewMarkdownExporter(nil).Export(&model.Conversation{ID: "c1"}); err == nil {
		t.Error("empty conversation should fail")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("nil conversation should fail")
	}
}

func TestEscapeYAML(t *testing.T) {
	if got := escapeYAML("plain title"); got != "plain title" {
		t.Errorf("escapeYAML = %q", got)
	}
	if got := escapeYAML("a: b"); got != "\"a: b\"" {
		t.Errorf("escapeYAML = %q", got)
	}
	if got := escapeYAML("line\nbreak"); strings.Contains(got, "\n") {
		t.Errorf("escapeYAML kept newline: %q", got)
	}
}

// =============================================================================
// JSON EXPORT TESTS
// =============================================================================

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(testConversation())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc struct {
		Title     string           `json:"title"`
		CreatedAt string           `json:"created_at"`
		Generator string           `json:"generator"`
		Messages  []*model.Message `json:"messages"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Title != "On Lighthouses" || doc.Generator != "council-tui" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.CreatedAt == "" {
		t.Error("created_at should be set")
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("len(Messages) = %d", len(doc.Messages))
	}
	if doc.Messages[1].Stage3 == nil {
		t.Error("stage payloads must round-trip")
	}
}

// =============================================================================
// FILE OUTPUT TESTS
// =============================================================================

func TestExportToFile(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportToFile(testConversation(), NewMarkdownExporter(opts), opts)
	if err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "council_on_lighthouses_") || !strings.HasSuffix(base, ".md") {
		t.Errorf("filename = %q", base)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Simple Title", "simple_title"},
		{"Why? What! (really)", "why_what_really"},
		{"日本語のタイトル", "conversation"},
		{"", "conversation"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/model"
	"github.com/councilchat/council-tui/internal/ui/styles"
)

// =============================================================================
// STAGE LABEL TESTS
// =============================================================================

func TestStageLabel_FirstLoadingStageWins(t *testing.T) {
	tests := []struct {
		loading model.Loading
		want    string
	}{
		{model.Loading{Stage1: true, Stage2: true, Stage3: true}, "Consulting the council"},
		{model.Loading{Stage2: true, Stage3: true}, "Council members are ranking each other"},
		{model.Loading{Stage3: true}, "Chairman is synthesizing the final answer"},
		{model.Loading{Image: true}, "Generating image"},
		{model.Loading{}, "Finishing up"},
	}
	for _, tt := range tests {
		if got := StageLabel(tt.loading); got != tt.want {
			t.Errorf("StageLabel(%+v) = %q, want %q", tt.loading, got, tt.want)
		}
	}
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func TestSidebar_CursorClamping(t *testing.T) {
	s := NewSidebar(styles.NewTheme(), 32)
	s.SetSize(32, 20)

	s.SetCursor(5, 3)
	if s.Cursor() != 2 {
		t.Errorf("Cursor = %d, want 2 (clamped to last)", s.Cursor())
	}

	s.SetCursor(-4, 3)
	if s.Cursor() != 0 {
		t.Errorf("Cursor = %d, want 0", s.Cursor())
	}

	s.SetCursor(1, 0)
	if s.Cursor() != 0 {
		t.Errorf("Cursor = %d, want 0 for empty list", s.Cursor())
	}
}

func TestSidebar_MoveCursor(t *testing.T) {
	s := NewSidebar(styles.NewTheme(), 32)
	s.SetSize(32, 20)

	s.MoveCursor(1, 5)
	s.MoveCursor(1, 5)
	if s.Cursor() != 2 {
		t.Errorf("Cursor = %d, want 2", s.Cursor())
	}
	s.MoveCursor(-10, 5)
	if s.Cursor() != 0 {
		t.Errorf("Cursor = %d, want 0", s.Cursor())
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-30 * time.Second), "now"},
		{now.Add(-5 * time.Minute), "5m"},
		{now.Add(-3 * time.Hour), "3h"},
		{now.Add(-50 * time.Hour), "2d"},
	}
	for _, tt := range tests {
		if got := FormatAge(tt.t); got != tt.want {
			t.Errorf("FormatAge(%v ago) = %q, want %q", time.Since(tt.t), got, tt.want)
		}
	}
}

// =============================================================================
// MARKDOWN RENDERER TESTS
// =============================================================================

func TestMarkdown_RenderWithoutWidth(t *testing.T) {
	m := NewMarkdown("notty")
	// Render before any SetWidth call must not panic or drop content.
	out := m.Render("plain **text**")
	if out == "" {
		t.Error("Render returned empty output")
	}
}

func TestMarkdown_SetWidthFloor(t *testing.T) {
	m := NewMarkdown("notty")
	m.SetWidth(3) // pathological resize
	if out := m.Render("text"); out == "" {
		t.Error("Render returned empty output at minimum width")
	}
}

func TestMarkdown_RenderKeepsContent(t *testing.T) {
	m := NewMarkdown("notty")
	m.SetWidth(60)
	out := m.Render("# Heading\n\nbody text")
	if !strings.Contains(out, "body text") {
		t.Errorf("rendered output lost content: %q", out)
	}
}

// =============================================================================
// MESSAGE VIEW TESTS
// =============================================================================

func TestMessageView_RenderUser(t *testing.T) {
	theme := styles.NewTheme()
	v := NewMessageView(theme, NewMarkdown("notty"))
	v.SetWidth(80)

	out := v.Render(model.NewUserMessage("what is a monad"))
	if !strings.Contains(out, "what is a monad") {
		t.Errorf("user content missing from %q", out)
	}
	if !strings.Contains(out, "You") {
		t.Error("user label missing")
	}
}

func TestMessageView_StageCollapseToggle(t *testing.T) {
	theme := styles.NewTheme()
	v := NewMessageView(theme, NewMarkdown("notty"))
	v.SetWidth(80)

	msg := model.NewPendingAssistantMessage()
	msg.Loading = model.Loading{}
	msg.Stage1 = []api.ModelResponse{
		{Model: "m1", Response: "opinion one"},
		{Model: "m2", Response: "opinion two"},
	}
	msg.Stage3 = &api.ModelResponse{Model: "chairman", Response: "final text"}

	collapsed := v.Render(msg)
	if !strings.Contains(collapsed, "2 responses") {
		t.Errorf("collapsed view should summarize stage 1: %q", collapsed)
	}
	if strings.Contains(collapsed, "opinion one") {
		t.Error("collapsed view must not show stage bodies")
	}
	if !strings.Contains(collapsed, "final text") {
		t.Error("final answer always shows")
	}

	v.ShowStages = true
	expanded := v.Render(msg)
	if !strings.Contains(expanded, "opinion one") || !strings.Contains(expanded, "opinion two") {
		t.Error("expanded view should show stage bodies")
	}
}

func TestMessageView_VoicePlaceholder(t *testing.T) {
	theme := styles.NewTheme()
	v := NewMessageView(theme, NewMarkdown("notty"))
	v.SetWidth(80)

	out := v.Render(model.NewUserMessage(model.VoicePlaceholder))
	if !strings.Contains(out, model.VoicePlaceholder) {
		t.Errorf("placeholder missing from %q", out)
	}
}

func TestMessageView_StageCodeBlockHighlighted(t *testing.T) {
	theme := styles.NewTheme()
	v := NewMessageView(theme, NewMarkdown("notty"))
	v.SetWidth(80)
	v.ShowStages = true

	msg := model.NewPendingAssistantMessage()
	msg.Loading = model.Loading{}
	msg.Stage1 = []api.ModelResponse{
		{Model: "m1", Response: "use a loop:\n```go\nfor i := range xs {\n\tprocess(xs[i])\n}\n```\ndone"},
	}

	out := v.Render(msg)
	if !strings.Contains(out, "use a loop:") || !strings.Contains(out, "done") {
		t.Errorf("prose around the fence missing from %q", out)
	}
	if !strings.Contains(out, "process") {
		t.Errorf("code body missing from %q", out)
	}
	if strings.Contains(out, "```") {
		t.Error("fence markers must not survive rendering")
	}
	if !strings.Contains(out, "go") {
		t.Error("language badge missing")
	}
}

func TestMessageView_UnterminatedFenceStillRenders(t *testing.T) {
	theme := styles.NewTheme()
	v := NewMessageView(theme, NewMarkdown("notty"))
	v.SetWidth(80)
	v.ShowStages = true

	msg := model.NewPendingAssistantMessage()
	msg.Loading = model.Loading{}
	msg.Stage2 = []api.ModelRanking{
		{Model: "m1", Ranking: "best snippet:\n```python\nprint(42)"},
	}

	out := v.Render(msg)
	if !strings.Contains(out, "print") {
		t.Errorf("truncated code body missing from %q", out)
	}
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestCodeBlock_RenderKeepsTokens(t *testing.T) {
	block := NewCodeBlock("go", "func add(a, b int) int {\n\treturn a + b\n}\n")
	out := block.Render()

	// Highlighting interleaves escape codes between tokens, so assert on
	// single identifiers rather than whole lines.
	for _, token := range []string{"func", "add", "return"} {
		if !strings.Contains(out, token) {
			t.Errorf("token %q missing from %q", token, out)
		}
	}
	if !strings.Contains(out, "go") {
		t.Error("language badge missing")
	}
}

func TestCodeBlock_NoLanguageBadgeWhenUnset(t *testing.T) {
	block := NewCodeBlock("", "just some text")
	out := block.Render()
	if !strings.Contains(out, "just some text") {
		t.Errorf("code missing from %q", out)
	}
}

func TestHighlightCode_KeepsContent(t *testing.T) {
	code := "SELECT-ish gibberish @@ ##"
	if got := highlightCode(code, "go"); !strings.Contains(got, "gibberish") {
		t.Errorf("highlighted output lost the code: %q", got)
	}
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/auth"
	"github.com/councilchat/council-tui/internal/config"
)

// =============================================================================
// WIRING
// =============================================================================

// App bundles the configured client and session manager for CLI handlers.
type App struct {
	Cfg     *config.Config
	Client  *api.Client
	Auth    *auth.Manager
	Tier    string
	DanMode string
}

// NewApp builds the client stack from config plus CLI overrides.
func NewApp(args Args) (*App, error) {
	cfg := config.Global()

	baseURL := cfg.Server.URL
	if args.Server != "" {
		baseURL = args.Server
	}

	client := api.NewClient(baseURL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Server.MaxRetries)

	dir, err := config.EnsureConfigDir()
	if err != nil {
		return nil, err
	}
	mgr := auth.NewManager(client, dir)
	client = client.WithTokenSource(mgr.Token)

	tier := cfg.Chat.Tier
	if args.Tier != "" {
		tier = args.Tier
	}
	if !api.ValidTiers[tier] {
		return nil, fmt.Errorf("%w: %s", api.ErrUnknownTier, tier)
	}

	danMode := cfg.Chat.DanMode
	if args.DanMode != "" {
		if args.DanMode == "off" {
			danMode = ""
		} else {
			danMode = args.DanMode
		}
	}
	if danMode != "" && !api.ValidDanModes[danMode] {
		return nil, fmt.Errorf("unknown dan mode: %s", danMode)
	}

	return &App{
		Cfg:     cfg,
		Client:  client,
		Auth:    mgr,
		Tier:    tier,
		DanMode: danMode,
	}, nil
}

// RequireSession validates the cached token, failing with a sign-in hint
// when the user is not authenticated.
func (a *App) RequireSession(ctx context.Context) *auth.Session {
	session, err := a.Auth.Session(ctx)
	if err != nil {
		fail("could not reach %s: %v", a.Client.BaseURL(), err)
	}
	if session == nil {
		fail("not signed in (run `council login` first)")
	}
	return session
}

// =============================================================================
// TURN STREAMING
// =============================================================================

// streamPrinter renders turn events to stdout as they arrive.
type streamPrinter struct {
	verbose  bool
	quiet    bool
	markdown *glamour.TermRenderer
}

func newStreamPrinter(args Args) *streamPrinter {
	p := &streamPrinter{verbose: args.Verbose, quiet: args.Quiet}
	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	); err == nil {
		p.markdown = r
	}
	return p
}

// handle prints one event. Stage progress goes to stderr so piping stdout
// captures only the final answer.
func (p *streamPrinter) handle(ev api.Event) {
	switch ev := ev.(type) {
	case api.TranscriptionEvent:
		fmt.Fprintln(os.Stderr, infoStyle.Render("You said: ")+ev.Text)

	case api.Stage1Event:
		if p.quiet {
			return
		}
		fmt.Fprintln(os.Stderr, stageStyle.Render(
			fmt.Sprintf("stage 1: %d responses collected", len(ev.Responses))))
		if p.verbose {
			for _, r := range ev.Responses {
				fmt.Fprintln(os.Stderr, modelStyle.Render("  "+r.Model))
			}
		}

	case api.Stage2Event:
		if p.quiet {
			return
		}
		fmt.Fprintln(os.Stderr, stageStyle.Render(
			fmt.Sprintf("stage 2: %d rankings collected", len(ev.Rankings))))

	case api.Stage3Event:
		if !p.quiet {
			fmt.Fprintln(os.Stderr, stageStyle.Render("final answer by "+ev.Answer.Model))
			fmt.Fprintln(os.Stderr)
		}
		fmt.Println(p.render(ev.Answer.Response))
		if ev.AudioURL != "" {
			fmt.Fprintln(os.Stderr, infoStyle.Render("audio reply: "+ev.AudioURL))
		}

	case api.TitleEvent:
		if p.verbose {
			fmt.Fprintln(os.Stderr, stageStyle.Render("titled: "+ev.Title))
		}

	case api.ErrorEvent:
		printError("%s", ev.Message)
	}
}

func (p *streamPrinter) render(text string) string {
	if p.markdown == nil {
		return text
	}
	out, err := p.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// runTurn sends one text turn and prints the event stream. Ctrl+C cancels
// the turn through context cancellation.
func (a *App) runTurn(ctx context.Context, args Args, conversationID, content string) error {
	printer := newStreamPrinter(args)
	return a.Client.SendMessageStream(ctx, conversationID, content, a.Tier, a.DanMode, printer.handle)
}

// =============================================================================
// TERMINAL INPUT
// =============================================================================

// promptLine reads one line from stdin with a styled prompt.
func promptLine(label string) (string, error) {
	fmt.Print(promptStyle.Render(label))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing.
func promptPassword(label string) (string, error) {
	fmt.Print(promptStyle.Render(label))
	defer fmt.Println()
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// terminalWidth returns the stdout width, or 80 when not a terminal.
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		if w > 120 {
			return 120
		}
		return w
	}
	return 80
}

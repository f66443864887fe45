// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler.
//
// Handles "council chat", a line-based REPL for people who want the
// council without the full-screen TUI. Input history persists in the
// config directory.
//
// Interactive commands:
//   /help            Show available commands
//   /new             Start a new conversation
//   /list            List conversations
//   /switch N        Switch to conversation N from /list
//   /tier [name]     Show or set the tier
//   /dan [mode|off]  Show or set the persona injection
//   /image PROMPT    Generate an image
//   /quit            Exit (also Ctrl+D)
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/config"
	"github.com/councilchat/council-tui/internal/util"
)

const historyFileName = "history"

// chatSession holds REPL state.
type chatSession struct {
	app            *App
	args           Args
	line           *liner.State
	conversationID string
	listing        []api.ConversationMeta
}

// HandleChat runs the interactive REPL.
func HandleChat(args Args) {
	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	ctx := context.Background()
	app.RequireSession(ctx)

	conv, err := app.Client.CreateConversation(ctx)
	if err != nil {
		fail("could not create conversation: %v", err)
	}

	s := &chatSession{
		app:            app,
		args:           args,
		line:           liner.NewLiner(),
		conversationID: conv.ID,
	}
	defer s.close()

	s.line.SetCtrlCAborts(true)
	s.loadHistory()

	if !args.Quiet {
		fmt.Println(welcomeStyle.Render("council chat"))
		fmt.Println(infoStyle.Render("tier: " + app.Tier + "  ·  /help for commands  ·  Ctrl+D to exit"))
		fmt.Println()
	}

	for {
		input, err := s.line.Prompt(promptStyle.Render("you> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println(infoStyle.Render("(aborted)"))
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return
			}
			fail("%v", err)
		}

		input = util.NormalizeInput(input)
		if input == "" {
			continue
		}
		s.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := s.handleCommand(input); quit {
				return
			}
			continue
		}

		s.runTurn(input)
	}
}

func (s *chatSession) runTurn(input string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := s.app.runTurn(ctx, s.args, s.conversationID, input); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println(warningStyle.Render("(canceled)"))
			return
		}
		printError("%v", err)
	}
	fmt.Println()
}

// handleCommand executes a slash command; returns true to exit the REPL.
func (s *chatSession) handleCommand(input string) bool {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Println(infoStyle.Render(`/new  /list  /switch N  /tier [name]  /dan [mode|off]  /image PROMPT  /quit`))

	case "/new", "/n":
		ctx := context.Background()
		conv, err := s.app.Client.CreateConversation(ctx)
		if err != nil {
			printError("%v", err)
			return false
		}
		s.conversationID = conv.ID
		fmt.Println(successStyle.Render("new conversation started"))

	case "/list", "/ls":
		s.listConversations()

	case "/switch", "/sw":
		s.switchConversation(rest)

	case "/tier":
		if rest == "" {
			fmt.Println(infoStyle.Render("tier: " + s.app.Tier))
		} else if api.ValidTiers[rest] {
			s.app.Tier = rest
			fmt.Println(successStyle.Render("tier: " + rest))
		} else {
			printError("unknown tier: %s", rest)
		}

	case "/dan":
		switch {
		case rest == "":
			if s.app.DanMode == "" {
				fmt.Println(infoStyle.Render("dan mode: off (" + strings.Join(api.DanModes, ", ") + ")"))
			} else {
				fmt.Println(infoStyle.Render("dan mode: " + s.app.DanMode))
			}
		case rest == "off":
			s.app.DanMode = ""
			fmt.Println(successStyle.Render("dan mode off"))
		case api.ValidDanModes[rest]:
			s.app.DanMode = rest
			fmt.Println(warningStyle.Render("dan mode: " + rest))
		default:
			printError("unknown dan mode: %s", rest)
		}

	case "/image", "/img":
		if rest == "" {
			printError("usage: /image PROMPT")
			return false
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		result, err := s.app.Client.GenerateImage(ctx, rest)
		cancel()
		if err != nil {
			printError("%v", err)
			return false
		}
		fmt.Println(result.URL)

	default:
		printError("unknown command: %s (try /help)", cmd)
	}
	return false
}

func (s *chatSession) listConversations() {
	ctx := context.Background()
	list, err := s.app.Client.ListConversations(ctx)
	if err != nil {
		printError("%v", err)
		return
	}
	s.listing = list
	for i, conv := range list {
		title := conv.Title
		if title == "" {
			title = "New Conversation"
		}
		marker := "  "
		if conv.ID == s.conversationID {
			marker = successStyle.Render("* ")
		}
		fmt.Printf("%s%2d  %s %s\n", marker, i+1, title,
			infoStyle.Render(fmt.Sprintf("(%d messages)", conv.MessageCount)))
	}
}

func (s *chatSession) switchConversation(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.listing) {
		printError("usage: /switch N (run /list first)")
		return
	}
	s.conversationID = s.listing[n-1].ID
	fmt.Println(successStyle.Render("switched"))
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *chatSession) historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, historyFileName)
}

func (s *chatSession) loadHistory() {
	path := s.historyPath()
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		s.line.ReadHistory(f)
		f.Close()
	}
}

func (s *chatSession) close() {
	if path := s.historyPath(); path != "" {
		if f, err := os.Create(path); err == nil {
			s.line.WriteHistory(f)
			f.Close()
		}
	}
	s.line.Close()
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler.
//
// Handles "council ask", which creates a conversation, runs one full
// deliberation turn, and prints the final answer to stdout. Stage progress
// goes to stderr so the answer pipes cleanly.
//
// Examples:
//   council ask "What is the capital of France?"
//   council ask --tier budget "Explain this error"
//   council ask --dan historian "Who really started the war?"
//   council ask -q "One-line answer only" | pbcopy
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// HandleAsk runs a single question through the council.
func HandleAsk(args Args) {
	if args.Query == "" {
		fail("usage: council ask \"question\"")
	}

	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app.RequireSession(ctx)

	conv, err := app.Client.CreateConversation(ctx)
	if err != nil {
		fail("could not create conversation: %v", err)
	}

	if err := app.runTurn(ctx, args, conv.ID, args.Query); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fail("%v", err)
	}
}

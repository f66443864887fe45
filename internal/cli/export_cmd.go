// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Conversation export command handler.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/councilchat/council-tui/internal/export"
	"github.com/councilchat/council-tui/internal/model"
)

// HandleExport fetches a conversation and writes its transcript to disk.
func HandleExport(args Args) {
	if args.ConversationID == "" {
		fail("Usage: council export CONVERSATION_ID [--format md|json] [--output DIR]")
	}

	format := args.ExportFormat
	if format == "" {
		format = "md"
	}

	opts := export.DefaultOptions()
	if args.OutputDir != "" {
		opts.OutputDir = args.OutputDir
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		fail("%v", err)
	}

	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.RequireSession(ctx)

	wire, err := app.Client.GetConversation(ctx, args.ConversationID)
	if err != nil {
		fail("%v", err)
	}

	path, err := export.ExportToFile(model.FromWire(wire), exporter, opts)
	if err != nil {
		fail("%v", err)
	}

	if args.Quiet {
		fmt.Println(path)
		return
	}
	fmt.Println(successStyle.Render("Exported to " + path))
}

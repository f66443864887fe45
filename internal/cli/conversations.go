// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversations.go - Conversation listing command handler.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// HandleConversations lists the account's conversations, newest first.
func HandleConversations(args Args) {
	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.RequireSession(ctx)

	list, err := app.Client.ListConversations(ctx)
	if err != nil {
		fail("%v", err)
	}

	if args.JSON {
		out, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(list) == 0 {
		fmt.Println(infoStyle.Render("No conversations yet."))
		return
	}
	for _, conv := range list {
		title := conv.Title
		if title == "" {
			title = "New Conversation"
		}
		fmt.Printf("%s  %s\n", title,
			infoStyle.Render(fmt.Sprintf("(%d messages, %s)", conv.MessageCount, conv.ID)))
	}
}

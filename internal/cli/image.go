// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// image.go - Image generation command handler.
//
// Handles "council image", which submits a prompt to the backend's image
// endpoint and prints the resulting URL.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// HandleImage generates a single image from a prompt.
func HandleImage(args Args) {
	if args.Query == "" {
		fail("usage: council image \"prompt\"")
	}

	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app.RequireSession(ctx)

	if !args.Quiet {
		fmt.Fprintln(os.Stderr, stageStyle.Render("generating..."))
	}

	result, err := app.Client.GenerateImage(ctx, args.Query)
	if err != nil {
		fail("%v", err)
	}

	if args.JSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Println(result.URL)
	if result.RevisedPrompt != "" && !args.Quiet {
		fmt.Fprintln(os.Stderr, infoStyle.Render("revised prompt: "+result.RevisedPrompt))
	}
}

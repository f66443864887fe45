// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend and session status command handler.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/councilchat/council-tui/internal/api"
)

// statusReport is the JSON form of "council status".
type statusReport struct {
	Server    string `json:"server"`
	Reachable bool   `json:"reachable"`
	SignedIn  bool   `json:"signed_in"`
	Email     string `json:"email,omitempty"`
	Tier      string `json:"tier"`
	DanMode   string `json:"dan_mode,omitempty"`
}

// HandleStatus reports backend reachability and session state.
func HandleStatus(args Args) {
	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report := statusReport{
		Server:  app.Client.BaseURL(),
		Tier:    app.Tier,
		DanMode: app.DanMode,
	}

	session, err := app.Auth.Session(ctx)
	switch {
	case err != nil:
		report.Reachable = false
	case session != nil:
		report.Reachable = true
		report.SignedIn = true
		report.Email = session.User.Email
	default:
		// Signed out. Probe the backend anonymously so "no token" is not
		// reported as "unreachable": any HTTP status, 401 included, means
		// the server answered.
		_, listErr := app.Client.ListConversations(ctx)
		var apiErr *api.APIError
		report.Reachable = listErr == nil || errors.As(listErr, &apiErr)
	}

	if args.JSON {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Println(welcomeStyle.Render("council status"))
	fmt.Printf("  server:  %s\n", report.Server)
	if report.Reachable {
		fmt.Printf("  backend: %s\n", successStyle.Render("reachable"))
	} else {
		fmt.Printf("  backend: %s\n", errorStyle.Render("unreachable"))
	}
	if report.SignedIn {
		fmt.Printf("  account: %s\n", successStyle.Render(report.Email))
	} else {
		fmt.Printf("  account: %s\n", infoStyle.Render("signed out"))
	}
	fmt.Printf("  tier:    %s\n", report.Tier)
	if report.DanMode != "" {
		fmt.Printf("  dan:     %s\n", warningStyle.Render(report.DanMode))
	}
}

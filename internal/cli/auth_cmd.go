// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Account command handlers: login, register, logout, whoami.
//
// The cached token lives in the config directory and is shared with the
// TUI; signing in here signs in every running council process.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"
)

const authTimeout = 30 * time.Second

// HandleLogin signs in and caches the token.
func HandleLogin(args Args) {
	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	email, password := readCredentials(false)

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	resp, err := app.Auth.SignIn(ctx, email, password)
	if err != nil {
		fail("sign-in failed: %v", err)
	}
	fmt.Println(successStyle.Render("Signed in as " + resp.User.Email))
}

// HandleRegister creates an account and caches the token.
func HandleRegister(args Args) {
	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	email, password := readCredentials(true)

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	resp, err := app.Auth.SignUp(ctx, email, password)
	if err != nil {
		fail("registration failed: %v", err)
	}
	fmt.Println(successStyle.Render("Account created: " + resp.User.Email))
}

// HandleLogout purges the cached token.
func HandleLogout(args Args) {
	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}
	if !app.Auth.SignedIn() {
		fmt.Println(infoStyle.Render("Already signed out."))
		return
	}
	if err := app.Auth.SignOut(); err != nil {
		fail("%v", err)
	}
	fmt.Println(successStyle.Render("Signed out."))
}

// HandleWhoami shows the current account.
func HandleWhoami(args Args) {
	app, err := NewApp(args)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	session := app.RequireSession(ctx)

	if args.JSON {
		out, _ := json.MarshalIndent(session.User, "", "  ")
		fmt.Println(string(out))
		return
	}
	fmt.Println(session.User.Email)
}

// readCredentials prompts for email and password. Registration asks for
// the password twice.
func readCredentials(confirm bool) (email, password string) {
	email, err := promptLine("Email: ")
	if err != nil {
		fail("%v", err)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fail("invalid email address: %s", email)
	}

	password, err = promptPassword("Password: ")
	if err != nil {
		fail("%v", err)
	}
	if password == "" {
		fail("password must not be empty")
	}

	if confirm {
		again, err := promptPassword("Confirm password: ")
		if err != nil {
			fail("%v", err)
		}
		if again != password {
			fail("passwords do not match")
		}
	}
	return email, password
}

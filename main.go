// council - a terminal client for the model council.
//
// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/auth"
	"github.com/councilchat/council-tui/internal/cli"
	"github.com/councilchat/council-tui/internal/config"
	"github.com/councilchat/council-tui/internal/ui/chat"
	"github.com/councilchat/council-tui/internal/voice"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdImage:
		cli.HandleImage(args)
	case cli.CmdLogin:
		cli.HandleLogin(args)
	case cli.CmdRegister:
		cli.HandleRegister(args)
	case cli.CmdLogout:
		cli.HandleLogout(args)
	case cli.CmdWhoami:
		cli.HandleWhoami(args)
	case cli.CmdConversations:
		cli.HandleConversations(args)
	case cli.CmdExport:
		cli.HandleExport(args)
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		cli.PrintUsage()
		os.Exit(1)
	}
}

// runTUI wires the client stack and starts the Bubble Tea program.
func runTUI(args cli.Args) {
	cfg := config.Global()

	baseURL := cfg.Server.URL
	if args.Server != "" {
		baseURL = args.Server
	}
	if args.Tier != "" {
		cfg.Chat.Tier = args.Tier
	}
	if args.DanMode != "" {
		if args.DanMode == "off" {
			cfg.Chat.DanMode = ""
		} else {
			cfg.Chat.DanMode = args.DanMode
		}
	}

	client := api.NewClient(baseURL).
		WithTimeout(time.Duration(cfg.Server.TimeoutSecs) * time.Second).
		WithMaxRetries(cfg.Server.MaxRetries)

	dir, err := config.EnsureConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	authMgr := auth.NewManager(client, dir)
	client = client.WithTokenSource(authMgr.Token)

	// Sign-ins and sign-outs in other council processes propagate here.
	if err := authMgr.WatchToken(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: token watching disabled: %v\n", err)
	}
	defer authMgr.Close()

	var recorder *voice.Recorder
	if cfg.Voice.Enabled {
		recorder = voice.NewRecorder()
	}

	model := chat.New(cfg, client, authMgr, recorder)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

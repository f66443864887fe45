// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for council-tui.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdImage
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdConversations
	CmdExport
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Tier    string
	DanMode string
	Server  string
	JSON    bool
	Verbose bool
	Quiet   bool

	// Command-specific
	Query          string
	ConversationID string
	ConfigKey      string
	ConfigVal      string
	ExportFormat   string
	OutputDir      string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `council - terminal client for the model council

Several models answer every question, rank each other's responses
anonymously, and a chairman model synthesizes the final reply.

Usage:
  council                    Start TUI (default)
  council ask "question"     Ask a single question
  council chat               Interactive chat (REPL)
  council image "prompt"     Generate an image
  council login              Sign in and cache the token
  council register           Create an account
  council logout             Purge the cached token
  council whoami             Show the signed-in account
  council conversations      List conversations
  council export ID          Export a conversation transcript
  council status             Show backend and session status
  council config [show|set]  Configuration
  council version            Show version
  council help               Show this help

Global flags:
  --tier TIER        Model tier: pro, budget, uncensored
  --dan MODE         Persona injection id (classic, historian, ...)
  --server URL       Backend base URL (overrides config)
  --json             Machine-readable output where supported
  --format FORMAT    Export format: md, json (default md)
  --output DIR       Export output directory (default .)
  -v, --verbose      Verbose output
  -q, --quiet        Minimal output

Examples:
  council ask "Is P equal to NP?"
  council ask --tier budget "Summarize the Peloponnesian war"
  council chat --dan historian
  council image "a lighthouse in a thunderstorm"
  council config set chat.tier budget

Environment:
  COUNCIL_API_URL     Backend base URL
  COUNCIL_TIER        Default tier
  COUNCIL_DAN         Default persona id
  COUNCIL_CONFIG_DIR  Config directory (default ~/.council)
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	args := os.Args[1:]
	remaining, parsed := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "ask":
		parsed.Query = strings.Join(remaining, " ")
		return CmdAsk, parsed

	case "chat":
		return CmdChat, parsed

	case "image", "img":
		parsed.Query = strings.Join(remaining, " ")
		return CmdImage, parsed

	case "login":
		return CmdLogin, parsed

	case "register", "signup":
		return CmdRegister, parsed

	case "logout":
		return CmdLogout, parsed

	case "whoami":
		return CmdWhoami, parsed

	case "conversations", "convs", "ls":
		return CmdConversations, parsed

	case "export":
		if len(remaining) > 0 {
			parsed.ConversationID = remaining[0]
		}
		return CmdExport, parsed

	case "status", "s":
		return CmdStatus, parsed

	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "version", "-V", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags, returning the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--tier", "-t":
			if i+1 < len(args) {
				i++
				parsed.Tier = strings.ToLower(args[i])
			}
		case "--dan":
			if i+1 < len(args) {
				i++
				parsed.DanMode = strings.ToLower(args[i])
			}
		case "--server":
			if i+1 < len(args) {
				i++
				parsed.Server = strings.TrimRight(args[i], "/")
			}
		case "--json":
			parsed.JSON = true
		case "--format", "-f":
			if i+1 < len(args) {
				i++
				parsed.ExportFormat = strings.ToLower(args[i])
			}
		case "--output", "-o":
			if i+1 < len(args) {
				i++
				parsed.OutputDir = args[i]
			}
		case "--verbose", "-v":
			parsed.Verbose = true
		case "--quiet", "-q":
			parsed.Quiet = true
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsed
}

func parseConfigArgs(parsed *Args, remaining []string) {
	if len(remaining) == 0 {
		return
	}
	switch strings.ToLower(remaining[0]) {
	case "set":
		if len(remaining) >= 3 {
			parsed.ConfigKey = remaining[1]
			parsed.ConfigVal = remaining[2]
		} else if len(remaining) == 2 {
			parsed.ConfigKey = remaining[1]
		}
	case "show", "get":
		if len(remaining) >= 2 {
			parsed.ConfigKey = remaining[1]
		}
	}
	parsed.Raw = remaining
}

// PrintUsage writes the top-level usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version information.
func PrintVersion() {
	fmt.Printf("council %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

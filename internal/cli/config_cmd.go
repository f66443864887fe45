// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command handler.
//
//   council config                 Show the effective configuration
//   council config show            Same
//   council config get KEY         Show one value
//   council config set KEY VALUE   Persist a value
//
// Keys use the TOML section syntax: server.url, chat.tier, chat.dan_mode,
// ui.glamour_style, ui.sidebar_width, ui.show_stages, voice.enabled.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/councilchat/council-tui/internal/config"
)

// HandleConfig shows or updates configuration.
func HandleConfig(args Args) {
	cfg, err := config.Load()
	if err != nil {
		fail("%v", err)
	}

	if args.ConfigKey == "" {
		showConfig(cfg)
		return
	}

	if args.ConfigVal == "" {
		value, err := getConfigKey(cfg, args.ConfigKey)
		if err != nil {
			fail("%v", err)
		}
		fmt.Println(value)
		return
	}

	if err := setConfigKey(cfg, args.ConfigKey, args.ConfigVal); err != nil {
		fail("%v", err)
	}
	if err := config.Save(cfg); err != nil {
		fail("%v", err)
	}
	fmt.Println(successStyle.Render(args.ConfigKey + " = " + args.ConfigVal))
}

func showConfig(cfg *config.Config) {
	fmt.Println(welcomeStyle.Render("council configuration"))
	fmt.Printf("  server.url        = %s\n", cfg.Server.URL)
	fmt.Printf("  server.timeout_secs = %d\n", cfg.Server.TimeoutSecs)
	fmt.Printf("  server.max_retries  = %d\n", cfg.Server.MaxRetries)
	fmt.Printf("  chat.tier         = %s\n", cfg.Chat.Tier)
	fmt.Printf("  chat.dan_mode     = %s\n", orOff(cfg.Chat.DanMode))
	fmt.Printf("  ui.glamour_style  = %s\n", cfg.UI.GlamourStyle)
	fmt.Printf("  ui.sidebar_width  = %d\n", cfg.UI.SidebarWidth)
	fmt.Printf("  ui.show_stages    = %t\n", cfg.UI.ShowStages)
	fmt.Printf("  ui.mouse_enabled  = %t\n", cfg.UI.MouseEnabled)
	fmt.Printf("  voice.enabled     = %t\n", cfg.Voice.Enabled)
}

func orOff(s string) string {
	if s == "" {
		return "(off)"
	}
	return s
}

func getConfigKey(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "server.url":
		return cfg.Server.URL, nil
	case "server.timeout_secs":
		return strconv.Itoa(cfg.Server.TimeoutSecs), nil
	case "server.max_retries":
		return strconv.Itoa(cfg.Server.MaxRetries), nil
	case "chat.tier":
		return cfg.Chat.Tier, nil
	case "chat.dan_mode":
		return cfg.Chat.DanMode, nil
	case "ui.glamour_style":
		return cfg.UI.GlamourStyle, nil
	case "ui.sidebar_width":
		return strconv.Itoa(cfg.UI.SidebarWidth), nil
	case "ui.show_stages":
		return strconv.FormatBool(cfg.UI.ShowStages), nil
	case "ui.mouse_enabled":
		return strconv.FormatBool(cfg.UI.MouseEnabled), nil
	case "voice.enabled":
		return strconv.FormatBool(cfg.Voice.Enabled), nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

func setConfigKey(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "server.url":
		cfg.Server.URL = strings.TrimRight(value, "/")
	case "server.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Server.TimeoutSecs = n
	case "server.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Server.MaxRetries = n
	case "chat.tier":
		cfg.Chat.Tier = strings.ToLower(value)
	case "chat.dan_mode":
		if value == "off" {
			cfg.Chat.DanMode = ""
		} else {
			cfg.Chat.DanMode = strings.ToLower(value)
		}
	case "ui.glamour_style":
		cfg.UI.GlamourStyle = value
	case "ui.sidebar_width":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.UI.SidebarWidth = n
	case "ui.show_stages":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.ShowStages = b
	case "ui.mouse_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.MouseEnabled = b
	case "voice.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Voice.Enabled = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

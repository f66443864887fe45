// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for string display and file
// operations.
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// TruncateRunes truncates a string to a maximum number of runes. When the
// string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to a maximum terminal display width,
// accounting for double-width characters.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// StringWidth returns the terminal display width of a string.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// FirstLine returns everything up to the first newline.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// NormalizeInput canonicalizes user input before it goes on the wire:
// NFC normalization plus surrounding whitespace trim. Visually identical
// input from different terminals/IMEs compares and stores identically.
func NormalizeInput(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

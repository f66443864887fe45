// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")
	data := []byte("hello, world!")

	if err := AtomicWriteFile(path, data, 0o644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", content, data)
	}
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.txt")

	if err := AtomicWriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWriteFile(path, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "new" {
		t.Errorf("Content = %q, want %q", content, "new")
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "deep", "test.txt")
	if err := AtomicWriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("File not created: %v", err)
	}
}

func TestAtomicWriteFile_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := AtomicWriteFile(path, []byte("token"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestAtomicWriteFile_NoTempLeftover(t *testing.T) {
	dir := t.TempDir()
	if err := AtomicWriteFile(filepath.Join(dir, "f"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (no temp leftovers)", len(entries))
	}
}

// =============================================================================
// STRING HELPER TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateWidth_WideRunes(t *testing.T) {
	// CJK runes are two columns wide.
	got := TruncateWidth("日本語テスト", 8)
	if StringWidth(got) > 8 {
		t.Errorf("TruncateWidth result too wide: %q (%d cols)", got, StringWidth(got))
	}
	if got == "日本語テスト" {
		t.Error("string should have been truncated")
	}

	if got := TruncateWidth("short", 20); got != "short" {
		t.Errorf("TruncateWidth = %q", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("one\ntwo\nthree"); got != "one" {
		t.Errorf("FirstLine = %q", got)
	}
	if got := FirstLine("single"); got != "single" {
		t.Errorf("FirstLine = %q", got)
	}
}

func TestNormalizeInput(t *testing.T) {
	// NFD "é" (e + combining accent) normalizes to the NFC single rune.
	if got := NormalizeInput("café"); got != "café" {
		t.Errorf("NormalizeInput = %q", got)
	}
	if got := NormalizeInput("  padded  "); got != "padded" {
		t.Errorf("NormalizeInput = %q", got)
	}
	if got := NormalizeInput(" \n\t "); got != "" {
		t.Errorf("NormalizeInput = %q, want empty", got)
	}
}

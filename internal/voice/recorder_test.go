// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"errors"
	"testing"
)

// =============================================================================
// RECORDER STATE TESTS
// =============================================================================

func TestRecorder_StopWithoutStart(t *testing.T) {
	r := NewRecorder()
	if _, err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("err = %v, want ErrNotRecording", err)
	}
}

func TestRecorder_CancelWhenIdle(t *testing.T) {
	r := NewRecorder()
	r.Cancel() // must not panic or change state
	if r.Recording() {
		t.Error("Recording() should be false")
	}
}

func TestRecorder_NotRecordingInitially(t *testing.T) {
	if NewRecorder().Recording() {
		t.Error("fresh recorder should be idle")
	}
}

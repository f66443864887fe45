// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice captures microphone audio for voice turns.
//
// A capture is hold-to-talk: Start begins recording into a temp file,
// Stop terminates the recorder process and returns the whole clip as a
// single blob. Recording shells out to whatever capture tool the host
// has (arecord, sox, ffmpeg); there is no in-process audio stack.
package voice

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Capture parameters. 16 kHz mono PCM keeps uploads small and is what
// speech models expect anyway.
const (
	sampleRate = 16000
	channels   = 1
)

// MaxCaptureBytes bounds a single clip (~5 minutes of 16 kHz mono PCM).
const MaxCaptureBytes = 10 << 20

// Sentinel errors for recorder state.
var (
	// ErrNoRecorder means no usable capture tool was found on the host.
	ErrNoRecorder = errors.New("no audio capture tool found (install arecord, sox, or ffmpeg)")

	// ErrNotRecording is returned by Stop when no capture is in flight.
	ErrNotRecording = errors.New("not recording")

	// ErrEmptyCapture means the clip contained no audio worth sending.
	ErrEmptyCapture = errors.New("capture is empty")
)

// =============================================================================
// RECORDER
// =============================================================================

// Recorder drives one capture at a time. Start while recording is a no-op:
// terminals auto-repeat a held key, so the record keybinding fires Start
// many times per second and only the first may spawn a process.
type Recorder struct {
	mu        sync.Mutex
	cmd       *exec.Cmd
	path      string
	startedAt time.Time

	// Absorbs key auto-repeat between a Stop and the next real Start.
	starts *rate.Limiter
}

// NewRecorder returns a recorder. It does not probe for a capture tool;
// Start fails synchronously if none is installed.
func NewRecorder() *Recorder {
	return &Recorder{
		starts: rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
	}
}

// Recording reports whether a capture is in flight.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// Start begins a capture. Returns nil immediately when already recording.
// A missing capture tool or a device that cannot be opened fails here,
// synchronously, so the UI can surface it before the user speaks.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return nil
	}
	if !r.starts.Allow() {
		return nil
	}

	tmp, err := os.CreateTemp("", "council-capture-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	cmd, err := captureCommand(path)
	if err != nil {
		os.Remove(path)
		return err
	}
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	r.cmd = cmd
	r.path = path
	r.startedAt = time.Now()
	return nil
}

// Stop ends the capture and returns the recorded clip. Clips shorter than
// the tool's spin-up time come back as ErrEmptyCapture rather than a
// zero-byte upload.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	cmd := r.cmd
	path := r.path
	r.cmd = nil
	r.path = ""
	r.mu.Unlock()

	if cmd == nil {
		return nil, ErrNotRecording
	}
	defer os.Remove(path)

	if err := stopCapture(cmd); err != nil {
		return nil, fmt.Errorf("failed to stop audio capture: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	if len(data) > MaxCaptureBytes {
		data = data[:MaxCaptureBytes]
	}
	// A WAV header alone is 44 bytes; anything near that is silence.
	if len(data) < 128 {
		return nil, ErrEmptyCapture
	}
	return data, nil
}

// Cancel discards an in-flight capture without returning audio. Safe to
// call when idle.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	cmd := r.cmd
	path := r.path
	r.cmd = nil
	r.path = ""
	r.mu.Unlock()

	if cmd == nil {
		return
	}
	_ = stopCapture(cmd)
	os.Remove(path)
}

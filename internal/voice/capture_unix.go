// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package voice

import (
	"fmt"
	"os/exec"
	"runtime"
	"syscall"
	"time"
)

// ffmpegInput returns the capture backend and device for ffmpeg on this OS.
func ffmpegInput() (format, device string) {
	if runtime.GOOS == "darwin" {
		return "avfoundation", ":0"
	}
	return "alsa", "default"
}

// captureCommand builds the recording process for whichever capture tool
// the host has, in preference order. Each writes 16 kHz mono WAV to path
// and records until killed.
func captureCommand(path string) (*exec.Cmd, error) {
	rateArg := fmt.Sprintf("%d", sampleRate)
	chanArg := fmt.Sprintf("%d", channels)

	if bin, err := exec.LookPath("arecord"); err == nil {
		cmd := exec.Command(bin, "-q", "-f", "S16_LE", "-r", rateArg, "-c", chanArg, path)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		return cmd, nil
	}
	if bin, err := exec.LookPath("rec"); err == nil { // sox
		cmd := exec.Command(bin, "-q", "-r", rateArg, "-c", chanArg, "-b", "16", path)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		return cmd, nil
	}
	if bin, err := exec.LookPath("ffmpeg"); err == nil {
		format, device := ffmpegInput()
		cmd := exec.Command(bin, "-loglevel", "quiet", "-f", format, "-i", device,
			"-ar", rateArg, "-ac", chanArg, "-y", path)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		return cmd, nil
	}

	return nil, ErrNoRecorder
}

// stopCapture asks the recorder to finish and flush its WAV header.
// SIGINT first (arecord and sox finalize the file on it), SIGKILL if the
// process ignores us.
func stopCapture(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(syscall.SIGINT)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-done:
		// Exit status is meaningless here: arecord reports the SIGINT as
		// a failure even though the file is complete.
		return nil
	case <-time.After(2 * time.Second):
		_ = cmd.Process.Kill()
		<-done
		return nil
	}
}

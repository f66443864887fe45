// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

package voice

import (
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// Windows-specific creation flags
const (
	// CREATE_NO_WINDOW prevents a console window from being created
	CREATE_NO_WINDOW = 0x08000000
)

// captureCommand builds the recording process on Windows. Only ffmpeg's
// dshow backend is supported; sox and arecord are not a Windows thing.
func captureCommand(path string) (*exec.Cmd, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		bin, err = exec.LookPath("ffmpeg.exe")
	}
	if err != nil {
		return nil, ErrNoRecorder
	}

	cmd := exec.Command(bin, "-loglevel", "quiet", "-f", "dshow", "-i", "audio=default",
		"-ar", fmt.Sprintf("%d", sampleRate), "-ac", fmt.Sprintf("%d", channels), "-y", path)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | CREATE_NO_WINDOW,
	}
	return cmd, nil
}

// stopCapture terminates the recorder. There is no SIGINT on Windows;
// ffmpeg still leaves a readable WAV behind a hard kill because the
// header was written up front.
func stopCapture(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Kill()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-done:
		return nil
	case <-time.After(2 * time.Second):
		return nil
	}
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// tokenWatchDebounce collapses the create/write/chmod bursts an atomic
// rename produces into one notification.
const tokenWatchDebounce = 200 * time.Millisecond

// tokenWatcher propagates token changes made by other processes. It watches
// the token file's directory (the file itself may not exist yet, and atomic
// writes replace the inode) and re-reads the file on any event touching it.
type tokenWatcher struct {
	mgr     *Manager
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// WatchToken starts cross-process change notification. Without it the
// manager still works; subscribers just only hear about changes made in
// this process. Call Close to stop watching.
func (m *Manager) WatchToken() error {
	m.mu.Lock()
	already := m.watcher != nil
	m.mu.Unlock()
	if already {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create token watcher: %w", err)
	}

	dir := filepath.Dir(m.tokenPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	tw := &tokenWatcher{mgr: m, watcher: w, ctx: ctx, cancel: cancel}

	m.mu.Lock()
	m.watcher = tw
	m.mu.Unlock()

	go tw.run()
	return nil
}

// Close stops the token watcher. Safe to call when watching never started.
func (m *Manager) Close() error {
	m.mu.Lock()
	tw := m.watcher
	m.watcher = nil
	m.mu.Unlock()

	if tw == nil {
		return nil
	}
	tw.cancel()
	return tw.watcher.Close()
}

func (tw *tokenWatcher) run() {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-tw.ctx.Done():
			return

		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != tw.mgr.tokenPath {
				continue
			}
			// Debounce: an atomic replace emits several events back to back.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(tokenWatchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			tw.mgr.setToken(tw.mgr.readTokenFile())

		case _, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal: local notification keeps working.
		}
	}
}

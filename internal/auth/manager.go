// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages the cached bearer token and the current session.
//
// The token is the only state this layer persists: a single file under the
// config directory, absent in guest mode. Any process of the same user may
// read or replace it; a file watcher propagates changes between processes
// the way browser tabs share a storage key. Last writer wins — there is no
// locking, only change notification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/util"
)

// TokenFileName is the fixed name of the token cache file inside the
// config directory.
const TokenFileName = "token"

// Session is the validated identity attached to a cached token.
type Session struct {
	User api.User
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the token cache lifecycle: read at startup, written by
// sign-in/sign-up, purged by sign-out or server rejection.
type Manager struct {
	client    *api.Client
	tokenPath string

	mu    sync.Mutex
	token string

	subs    map[int]func(*Session)
	nextSub int

	watcher *tokenWatcher
}

// NewManager creates a manager storing the token under dir. The api client
// is used for the credential and session endpoints; wire the manager back
// into it with Client.WithTokenSource(mgr.Token).
func NewManager(client *api.Client, dir string) *Manager {
	m := &Manager{
		client:    client,
		tokenPath: filepath.Join(dir, TokenFileName),
		subs:      make(map[int]func(*Session)),
	}
	m.token = m.readTokenFile()
	return m
}

// TokenPath returns the path of the token cache file.
func (m *Manager) TokenPath() string {
	return m.tokenPath
}

// Token returns the cached bearer token, or "" in guest mode. Usable as an
// api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// SignedIn reports whether a token is cached. It says nothing about whether
// the server still accepts it; Session validates.
func (m *Manager) SignedIn() bool {
	return m.Token() != ""
}

// =============================================================================
// CREDENTIAL OPERATIONS
// =============================================================================

// SignUp registers a new account, caches the returned token, and returns
// the server's auth payload. On a non-2xx response the error carries the
// server's detail message.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	resp, err := m.client.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.storeToken(resp.Token); err != nil {
		return nil, err
	}
	return resp, nil
}

// SignIn authenticates, caches the returned token, and returns the server's
// auth payload.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.storeToken(resp.Token); err != nil {
		return nil, err
	}
	return resp, nil
}

// SignOut purges the cached token locally. No network round-trip; the
// backend's tokens simply expire.
func (m *Manager) SignOut() error {
	return m.purgeToken()
}

// Session returns the current session, or nil when signed out. A cached
// token is validated against /auth/me; any rejection purges the token and
// degrades silently to signed-out — an expired token is not an error, it is
// the guest state.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	if m.Token() == "" {
		return nil, nil
	}

	user, err := m.client.Me(ctx)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			if purgeErr := m.purgeToken(); purgeErr != nil {
				return nil, purgeErr
			}
			return nil, nil
		}
		// Transport failure: keep the token, report the failure.
		return nil, fmt.Errorf("session check failed: %w", err)
	}

	return &Session{User: *user}, nil
}

// =============================================================================
// TOKEN FILE
// =============================================================================

func (m *Manager) readTokenFile() string {
	data, err := os.ReadFile(m.tokenPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// storeToken writes the token atomically (0600) and notifies local
// subscribers. Other processes learn of it through their watchers.
func (m *Manager) storeToken(token string) error {
	if err := util.AtomicWriteFile(m.tokenPath, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	m.setToken(token)
	return nil
}

func (m *Manager) purgeToken() error {
	if err := os.Remove(m.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to purge token: %w", err)
	}
	m.setToken("")
	return nil
}

func (m *Manager) setToken(token string) {
	m.mu.Lock()
	changed := m.token != token
	m.token = token
	m.mu.Unlock()

	if changed {
		m.notify()
	}
}

// =============================================================================
// CHANGE NOTIFICATION
// =============================================================================

// Subscribe registers a callback fired whenever the cached token changes —
// locally or, once WatchToken is running, in another process. The callback
// receives the freshly validated session state (nil = signed out) and runs
// on the manager's notification goroutine. The returned function
// unsubscribes.
func (m *Manager) Subscribe(fn func(*Session)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// notify revalidates the session and fans it out to subscribers.
func (m *Manager) notify() {
	m.mu.Lock()
	subs := make([]func(*Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	go func() {
		session, _ := m.Session(context.Background())
		for _, fn := range subs {
			fn(session)
		}
	}()
}

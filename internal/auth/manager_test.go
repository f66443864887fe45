// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/util"
)

// newTestManager wires a manager to a backend and back into the client's
// token source, the way main does.
func newTestManager(t *testing.T, handler http.Handler) (*Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL)
	mgr := NewManager(client, t.TempDir())
	client.WithTokenSource(mgr.Token)
	return mgr, srv
}

// =============================================================================
// SIGN-IN / SIGN-OUT TESTS
// =============================================================================

func TestManager_SignInCachesToken(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		json.NewEncoder(w).Encode(api.AuthResponse{
			Token: "tok123",
			User:  api.User{ID: "u1", Email: "a@b.c"},
		})
	}))

	resp, err := mgr.SignIn(context.Background(), "a@b.c", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "a@b.c", resp.User.Email)

	require.Equal(t, "tok123", mgr.Token())
	require.True(t, mgr.SignedIn())

	// Token survives on disk for the next process.
	data, err := os.ReadFile(mgr.TokenPath())
	require.NoError(t, err)
	require.Equal(t, "tok123", strings.TrimSpace(string(data)))

	info, err := os.Stat(mgr.TokenPath())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestManager_SignOutPurgesToken(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.AuthResponse{Token: "tok123"})
	}))

	_, err := mgr.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	require.NoError(t, mgr.SignOut())

	require.False(t, mgr.SignedIn())
	_, err = os.Stat(mgr.TokenPath())
	require.True(t, os.IsNotExist(err), "token file should be removed")

	// Signing out twice is fine.
	require.NoError(t, mgr.SignOut())
}

func TestManager_ReadsTokenAtStartup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, TokenFileName)
	require.NoError(t, util.AtomicWriteFile(path, []byte("persisted\n"), 0o600))

	mgr := NewManager(api.NewClient("http://unused"), dir)
	require.Equal(t, "persisted", mgr.Token())
}

// =============================================================================
// SESSION VALIDATION TESTS
// =============================================================================

func TestManager_SessionGuest(t *testing.T) {
	mgr := NewManager(api.NewClient("http://unused"), t.TempDir())
	session, err := mgr.Session(context.Background())
	require.NoError(t, err)
	require.Nil(t, session, "signed out means a nil session")
}

func TestManager_SessionValid(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(api.AuthResponse{Token: "tok123"})
		case "/auth/me":
			require.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(api.User{ID: "u1", Email: "a@b.c"})
		}
	}))

	mgr.SignIn(context.Background(), "a@b.c", "pw")
	session, err := mgr.Session(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, "a@b.c", session.User.Email)
}

func TestManager_SessionPurgesRejectedToken(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			json.NewEncoder(w).Encode(api.AuthResponse{Token: "stale"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
	}))

	mgr.SignIn(context.Background(), "a@b.c", "pw")
	session, err := mgr.Session(context.Background())
	require.NoError(t, err, "an expired token is the guest state, not an error")
	require.Nil(t, session)
	require.False(t, mgr.SignedIn(), "rejected token should be purged")

	_, statErr := os.Stat(mgr.TokenPath())
	require.True(t, os.IsNotExist(statErr), "token file should be removed")
}

func TestManager_SessionKeepsTokenOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.AuthResponse{Token: "tok123"})
	}))
	client := api.NewClient(srv.URL).WithMaxRetries(1)
	mgr := NewManager(client, t.TempDir())
	client.WithTokenSource(mgr.Token)

	mgr.SignIn(context.Background(), "a@b.c", "pw")
	srv.Close() // backend goes away

	_, err := mgr.Session(context.Background())
	require.Error(t, err)
	require.True(t, mgr.SignedIn(), "token must survive a transport failure")
}

// =============================================================================
// CHANGE NOTIFICATION TESTS
// =============================================================================

func TestManager_SubscribeNotifiesOnChange(t *testing.T) {
	mgr, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(api.AuthResponse{Token: "tok123"})
		case "/auth/me":
			json.NewEncoder(w).Encode(api.User{ID: "u1", Email: "a@b.c"})
		}
	}))

	got := make(chan *Session, 1)
	unsubscribe := mgr.Subscribe(func(s *Session) { got <- s })
	defer unsubscribe()

	mgr.SignIn(context.Background(), "a@b.c", "pw")

	select {
	case s := <-got:
		require.NotNil(t, s)
		require.Equal(t, "a@b.c", s.User.Email)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber was not notified")
	}
}

func TestManager_NoNotifyWhenUnchanged(t *testing.T) {
	mgr := NewManager(api.NewClient("http://unused"), t.TempDir())

	fired := make(chan struct{}, 4)
	unsubscribe := mgr.Subscribe(func(*Session) { fired <- struct{}{} })
	defer unsubscribe()

	// Already signed out; purging again is a no-op.
	mgr.SignOut()

	select {
	case <-fired:
		t.Error("unchanged token must not notify")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestManager_WatchTokenPicksUpForeignWrite(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.User{ID: "u1", Email: "a@b.c"})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	mgr := NewManager(client, dir)
	client.WithTokenSource(mgr.Token)
	require.NoError(t, mgr.WatchToken())
	defer mgr.Close()

	got := make(chan *Session, 1)
	unsubscribe := mgr.Subscribe(func(s *Session) { got <- s })
	defer unsubscribe()

	// Another process signs in: atomic write to the shared token file.
	other := NewManager(api.NewClient(srv.URL), dir)
	require.NoError(t, other.storeToken("foreign-token"))

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not propagate the foreign write")
	}
	require.Equal(t, "foreign-token", mgr.Token())
}

func TestManager_CloseWithoutWatch(t *testing.T) {
	mgr := NewManager(api.NewClient("http://unused"), t.TempDir())
	require.NoError(t, mgr.Close())
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/councilchat/council-tui/internal/api"
	"github.com/councilchat/council-tui/internal/auth"
	"github.com/councilchat/council-tui/internal/model"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// sessionMsg carries the validated session (nil = signed out).
type sessionMsg struct {
	session *auth.Session
	err     error
}

// sessionChangedMsg fires when the cached token changed, locally or in
// another process.
type sessionChangedMsg struct {
	session *auth.Session
}

// conversationsMsg carries the refreshed conversation list.
type conversationsMsg struct {
	conversations []api.ConversationMeta
	err           error
}

// conversationMsg carries a fully loaded conversation.
type conversationMsg struct {
	conversation *model.Conversation
	err          error
}

// conversationCreatedMsg carries a freshly created conversation.
type conversationCreatedMsg struct {
	conversation *model.Conversation
	err          error
}

// streamEventMsg carries one turn event off the stream.
type streamEventMsg struct {
	ev api.Event
}

// streamDoneMsg fires when the event stream closes. It carries the channel
// it was pumped from so a stale re-armed wait cannot tear down a newer
// stream that started in the meantime.
type streamDoneMsg struct {
	err  error
	from <-chan api.Event
}

// authResultMsg carries the outcome of a sign-in or sign-up attempt.
type authResultMsg struct {
	resp *api.AuthResponse
	err  error
}

// voiceSentMsg fires after a captured clip was handed to the stream; err is
// set when capture or upload setup failed.
type voiceSentMsg struct {
	err error
}

// imageMsg carries a generated image result.
type imageMsg struct {
	result *api.ImageResult
	err    error
}

// errMsg is a generic failure surfaced in the error banner.
type errMsg struct {
	err error
}

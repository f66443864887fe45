// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the LLM Council backend.
//
// The backend runs the actual multi-model pipeline: it queries a council of
// models in parallel, has them blind-rank each other, and asks a chairman
// model to synthesize a final answer. This package only speaks the wire
// contract — JSON endpoints for auth, conversations, and image generation,
// plus a Server-Sent Events stream that reports pipeline progress one turn
// at a time.
//
// Stream events are a closed set of Go types (see events.go) so that an
// unhandled kind is a compile-time error in consumers, not a silent drop.
package api

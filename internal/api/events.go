// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// WIRE PAYLOADS
// =============================================================================

// ModelResponse is one council member's answer, or the chairman's synthesis.
type ModelResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// ModelRanking is one council member's blind ranking of the anonymized
// stage-1 answers.
type ModelRanking struct {
	Model   string `json:"model"`
	Ranking string `json:"ranking"`
}

// Stage2Metadata is the auxiliary payload attached to the stage-2 event.
// AggregateRankings is kept raw: its shape belongs to the backend and the
// client only ever redisplays it.
type Stage2Metadata struct {
	LabelToModel      map[string]string `json:"label_to_model,omitempty"`
	AggregateRankings json.RawMessage   `json:"aggregate_rankings,omitempty"`
}

// =============================================================================
// EVENT VARIANTS
// =============================================================================

// Event is one progress report from the turn stream. The set of variants is
// closed: TranscriptionEvent, Stage1Event, Stage2Event, Stage3Event,
// TitleEvent, CompleteEvent, and ErrorEvent. The unexported method keeps
// outside packages from adding cases, so a switch over all variants is
// exhaustive by construction.
type Event interface {
	Kind() string
	isEvent()
}

// TranscriptionEvent carries the recognized text for a voice turn. It
// replaces the optimistic placeholder content of the paired user message.
// When present it precedes Stage1Event.
type TranscriptionEvent struct {
	Text string
}

// Stage1Event reports that every council member has answered.
type Stage1Event struct {
	Responses []ModelResponse
}

// Stage2Event reports that the blind cross-ranking is done. Metadata is the
// raw stage-2 metadata object; DecodeMetadata extracts the parts the UI
// knows how to render.
type Stage2Event struct {
	Rankings []ModelRanking
	Metadata json.RawMessage
}

// Stage3Event carries the chairman's synthesized final answer. AudioURL is
// set on voice turns when the backend rendered the answer to speech.
type Stage3Event struct {
	Answer   ModelResponse
	AudioURL string
}

// TitleEvent signals that the backend has computed or updated the
// conversation title. It does not end the turn.
type TitleEvent struct {
	Title string
}

// CompleteEvent is terminal: the turn finished and was persisted.
type CompleteEvent struct{}

// ErrorEvent is terminal: the pipeline failed mid-turn. Message is
// diagnostic only; stages that already completed keep their data.
type ErrorEvent struct {
	Message string
}

func (TranscriptionEvent) Kind() string { return "transcription" }
func (Stage1Event) Kind() string        { return "stage1_complete" }
func (Stage2Event) Kind() string        { return "stage2_complete" }
func (Stage3Event) Kind() string        { return "stage3_complete" }
func (TitleEvent) Kind() string         { return "title_complete" }
func (CompleteEvent) Kind() string      { return "complete" }
func (ErrorEvent) Kind() string         { return "error" }

func (TranscriptionEvent) isEvent() {}
func (Stage1Event) isEvent()        {}
func (Stage2Event) isEvent()        {}
func (Stage3Event) isEvent()        {}
func (TitleEvent) isEvent()         {}
func (CompleteEvent) isEvent()      {}
func (ErrorEvent) isEvent()         {}

// IsTerminal reports whether the event ends the turn.
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case CompleteEvent, ErrorEvent:
		return true
	}
	return false
}

// DecodeMetadata parses the structured parts of the stage-2 metadata.
// Returns nil when the event carried no metadata.
func (e Stage2Event) DecodeMetadata() (*Stage2Metadata, error) {
	if len(e.Metadata) == 0 {
		return nil, nil
	}
	var meta Stage2Metadata
	if err := json.Unmarshal(e.Metadata, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse stage2 metadata: %w", err)
	}
	return &meta, nil
}

// =============================================================================
// WIRE DECODING
// =============================================================================

// eventEnvelope is the superset of fields the backend puts on any event.
type eventEnvelope struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Text     string          `json:"text,omitempty"`
	Message  string          `json:"message,omitempty"`
	Audio    string          `json:"audio,omitempty"`
}

// titleData is the data payload of a title_complete event.
type titleData struct {
	Title string `json:"title"`
}

// ParseEvent decodes one SSE data payload into a typed Event.
//
// Unrecognized kinds (the backend also emits stageN_start markers, and may
// grow new kinds) decode to (nil, nil): the caller logs and drops them.
// A malformed payload for a known kind is an error.
func ParseEvent(data []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed stream event: %w", err)
	}

	switch env.Type {
	case "transcription":
		return TranscriptionEvent{Text: env.Text}, nil

	case "stage1_complete":
		var responses []ModelResponse
		if err := json.Unmarshal(env.Data, &responses); err != nil {
			return nil, fmt.Errorf("malformed stage1 payload: %w", err)
		}
		return Stage1Event{Responses: responses}, nil

	case "stage2_complete":
		var rankings []ModelRanking
		if err := json.Unmarshal(env.Data, &rankings); err != nil {
			return nil, fmt.Errorf("malformed stage2 payload: %w", err)
		}
		return Stage2Event{Rankings: rankings, Metadata: env.Metadata}, nil

	case "stage3_complete":
		var answer ModelResponse
		if err := json.Unmarshal(env.Data, &answer); err != nil {
			return nil, fmt.Errorf("malformed stage3 payload: %w", err)
		}
		return Stage3Event{Answer: answer, AudioURL: env.Audio}, nil

	case "title_complete":
		var td titleData
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &td); err != nil {
				return nil, fmt.Errorf("malformed title payload: %w", err)
			}
		}
		return TitleEvent{Title: td.Title}, nil

	case "complete":
		return CompleteEvent{}, nil

	case "error":
		return ErrorEvent{Message: env.Message}, nil
	}

	// stage1_start, stage2_start, stage3_start, and future kinds
	return nil, nil
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
)

// MaxEventSize caps a single SSE event. Stage-1 payloads carry five full
// model answers, so this is generous.
const MaxEventSize = 1024 * 1024

// EventHandler receives each typed event in arrival order.
type EventHandler func(Event)

// TurnRequest is the body of a text turn submission.
type TurnRequest struct {
	Content string `json:"content"`
	Tier    string `json:"tier"`
	DanMode string `json:"dan_mode,omitempty"`
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream, one event at a time.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a reader over a response body.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent returns the data of the next SSE event. Multi-line data fields
// are joined with newlines per the SSE spec. Returns io.EOF when the stream
// ends cleanly.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte
	var total int

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, err
		}
		line = bytes.TrimRight(line, "\r\n")

		// Blank line terminates the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			total += len(data)
			if total > MaxEventSize {
				return nil, fmt.Errorf("stream event exceeds %d bytes", MaxEventSize)
			}
			dataLines = append(dataLines, data)
		}
		// event:, id:, retry:, and comment lines are ignored; the council
		// backend tags everything inside the JSON data payload.
	}
}

// =============================================================================
// TURN STREAMS
// =============================================================================

// SendMessageStream submits a text turn and dispatches each event to the
// handler in arrival order. The call returns after the stream closes; a
// non-nil error is a transport failure, distinct from an in-band ErrorEvent.
//
// There is no retry and no timeout here: the only termination paths are a
// terminal event, stream EOF, a transport failure, or ctx cancellation.
func (c *Client) SendMessageStream(ctx context.Context, conversationID, content, tier, danMode string, handler EventHandler) error {
	if !ValidTiers[tier] {
		return fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}

	body, err := marshalBody(TurnRequest{Content: content, Tier: tier, DanMode: danMode})
	if err != nil {
		return err
	}

	url := c.baseURL + "/api/conversations/" + conversationID + "/message/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	setStreamHeaders(req)

	return c.consumeStream(req, handler)
}

// SendAudioStream submits a voice turn. The audio payload is sent as a
// multipart upload; the resulting stream is identical to a text turn's but
// leads with a TranscriptionEvent.
func (c *Client) SendAudioStream(ctx context.Context, conversationID string, audio []byte, tier string, handler EventHandler) error {
	if !ValidTiers[tier] {
		return fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.WriteField("tier", tier); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}

	url := c.baseURL + "/api/conversations/" + conversationID + "/message/audio"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	setStreamHeaders(req)

	return c.consumeStream(req, handler)
}

// consumeStream issues the request and pumps events until a terminal event
// or EOF. One event is parsed at a time; nothing else is buffered.
func (c *Client) consumeStream(req *http.Request, handler EventHandler) error {
	c.logRequest(req)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := readResponse(resp)
		return errorFromResponse(resp.StatusCode, body)
	}

	reader := NewSSEReader(resp.Body)
	for {
		select {
		case <-req.Context().Done():
			return req.Context().Err()
		default:
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("stream read failed: %w", err)
		}

		ev, err := ParseEvent(data)
		if err != nil {
			// A known kind with a bad payload. Drop it rather than kill the
			// stream; the terminal event still decides the turn's fate.
			log.Printf("dropping malformed stream event: %v", err)
			continue
		}
		if ev == nil {
			continue
		}

		handler(ev)

		if IsTerminal(ev) {
			return nil
		}
	}
}

// setStreamHeaders marks the request as an event-stream consumer.
func setStreamHeaders(req *http.Request) {
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
}

func marshalBody(v any) (io.Reader, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(payload), nil
}

// =============================================================================
// CHANNEL FORM
// =============================================================================

// StreamTurn is the pull-based form of SendMessageStream: events arrive on
// the returned channel, which closes when the turn ends. A transport
// failure is delivered on the error channel. Canceling ctx closes the
// stream early — this is the explicit cancellation hook.
func (c *Client) StreamTurn(ctx context.Context, conversationID, content, tier, danMode string) (<-chan Event, <-chan error) {
	events := make(chan Event, 16)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errc)

		err := c.SendMessageStream(ctx, conversationID, content, tier, danMode, func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errc <- err
		}
	}()

	return events, errc
}

// StreamAudioTurn is the pull-based form of SendAudioStream.
func (c *Client) StreamAudioTurn(ctx context.Context, conversationID string, audio []byte, tier string) (<-chan Event, <-chan error) {
	events := make(chan Event, 16)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errc)

		err := c.SendAudioStream(ctx, conversationID, audio, tier, func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errc <- err
		}
	}()

	return events, errc
}

// Copyright (c) 2025 The council-tui authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_SingleEvent(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: {\"type\":\"complete\"}\n\n"))
	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != `{"type":"complete"}` {
		t.Errorf("data = %q", data)
	}
	if _, err := r.ReadEvent(); err != io.EOF {
		t.Errorf("want io.EOF after stream end, got %v", err)
	}
}

func TestSSEReader_MultiLineData(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: line one\ndata: line two\n\n"))
	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "line one\nline two" {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_IgnoresNonDataFields(t *testing.T) {
	raw := ": keepalive\nevent: message\nid: 7\nretry: 1000\ndata: payload\n\n"
	r := NewSSEReader(strings.NewReader(raw))
	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_CRLFAndBlankLines(t *testing.T) {
	r := NewSSEReader(strings.NewReader("\r\n\r\ndata: a\r\n\r\ndata: b\r\n\r\n"))
	for i, want := range []string{"a", "b"} {
		data, err := r.ReadEvent()
		if err != nil {
			t.Fatalf("ReadEvent %d failed: %v", i, err)
		}
		if string(data) != want {
			t.Errorf("event %d = %q, want %q", i, data, want)
		}
	}
}

func TestSSEReader_TrailingEventWithoutBlankLine(t *testing.T) {
	r := NewSSEReader(strings.NewReader("data: tail"))
	data, err := r.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "tail" {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_EventTooLarge(t *testing.T) {
	huge := "data: " + strings.Repeat("x", MaxEventSize+1) + "\n\n"
	r := NewSSEReader(strings.NewReader(huge))
	if _, err := r.ReadEvent(); err == nil {
		t.Error("expected size error")
	}
}

// =============================================================================
// TURN STREAM TESTS
// =============================================================================

// sseServer streams the given event payloads and closes.
func sseServer(t *testing.T, check func(*http.Request), events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, ev := range events {
			fmt.Fprintf(w, "data: %s\n\n", ev)
			flusher.Flush()
		}
	}))
}

func TestSendMessageStream_FullTurn(t *testing.T) {
	srv := sseServer(t,
		func(r *http.Request) {
			if r.URL.Path != "/api/conversations/c1/message/stream" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if got := r.Header.Get("Accept"); got != "text/event-stream" {
				t.Errorf("Accept = %q", got)
			}
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"tier":"pro"`) {
				t.Errorf("body = %s", body)
			}
			if !strings.Contains(string(body), `"dan_mode":"historian"`) {
				t.Errorf("body should carry dan_mode: %s", body)
			}
		},
		`{"type":"stage1_start"}`,
		`{"type":"stage1_complete","data":[{"model":"m1","response":"r1"}]}`,
		`{"type":"stage2_complete","data":[{"model":"m1","ranking":"1. A"}]}`,
		`{"type":"stage3_complete","data":{"model":"chair","response":"final"}}`,
		`{"type":"title_complete","data":{"title":"T"}}`,
		`{"type":"complete"}`,
	)
	defer srv.Close()

	var kinds []string
	err := NewClient(srv.URL).SendMessageStream(context.Background(),
		"c1", "question", TierPro, "historian", func(ev Event) {
			kinds = append(kinds, ev.Kind())
		})
	if err != nil {
		t.Fatalf("SendMessageStream failed: %v", err)
	}

	want := []string{"stage1_complete", "stage2_complete", "stage3_complete", "title_complete", "complete"}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestSendMessageStream_UnknownTier(t *testing.T) {
	err := NewClient("http://unused").SendMessageStream(context.Background(),
		"c1", "q", "platinum", "", func(Event) {})
	if !errors.Is(err, ErrUnknownTier) {
		t.Errorf("error should match ErrUnknownTier, got %v", err)
	}
}

func TestSendMessageStream_ErrorEventEndsStream(t *testing.T) {
	srv := sseServer(t, nil,
		`{"type":"stage1_complete","data":[]}`,
		`{"type":"error","message":"model timeout"}`,
	)
	defer srv.Close()

	var last Event
	err := NewClient(srv.URL).SendMessageStream(context.Background(),
		"c1", "q", TierBudget, "", func(ev Event) { last = ev })
	if err != nil {
		t.Fatalf("in-band error must not surface as transport error: %v", err)
	}
	ee, ok := last.(ErrorEvent)
	if !ok {
		t.Fatalf("last event = %T, want ErrorEvent", last)
	}
	if ee.Message != "model timeout" {
		t.Errorf("Message = %q", ee.Message)
	}
}

func TestSendMessageStream_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"detail":"slow down"}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SendMessageStream(context.Background(),
		"c1", "q", TierPro, "", func(Event) { t.Error("no events expected") })
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("error should match ErrRateLimited, got %v", err)
	}
}

func TestSendMessageStream_MalformedEventSkipped(t *testing.T) {
	srv := sseServer(t, nil,
		`{"type":"stage1_complete","data":"bad payload"}`,
		`{"type":"complete"}`,
	)
	defer srv.Close()

	var kinds []string
	err := NewClient(srv.URL).SendMessageStream(context.Background(),
		"c1", "q", TierPro, "", func(ev Event) { kinds = append(kinds, ev.Kind()) })
	if err != nil {
		t.Fatalf("SendMessageStream failed: %v", err)
	}
	if len(kinds) != 1 || kinds[0] != "complete" {
		t.Errorf("kinds = %v, want [complete]", kinds)
	}
}

func TestSendAudioStream_Multipart(t *testing.T) {
	audio := []byte("RIFFxxxxWAVEfmt ")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations/c1/message/audio" {
			t.Errorf("path = %s", r.URL.Path)
		}
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "multipart/form-data" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("tier"); got != TierPro {
			t.Errorf("tier = %q", got)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "recording.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		got, _ := io.ReadAll(file)
		if string(got) != string(audio) {
			t.Errorf("audio payload mismatch")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"transcription\",\"text\":\"spoken words\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"complete\"}\n\n")
	}))
	defer srv.Close()

	var first Event
	err := NewClient(srv.URL).SendAudioStream(context.Background(),
		"c1", audio, TierPro, func(ev Event) {
			if first == nil {
				first = ev
			}
		})
	if err != nil {
		t.Fatalf("SendAudioStream failed: %v", err)
	}
	tr, ok := first.(TranscriptionEvent)
	if !ok {
		t.Fatalf("first event = %T, want TranscriptionEvent", first)
	}
	if tr.Text != "spoken words" {
		t.Errorf("Text = %q", tr.Text)
	}
}

// =============================================================================
// CHANNEL FORM TESTS
// =============================================================================

func TestStreamTurn_ChannelClosesAfterTerminal(t *testing.T) {
	srv := sseServer(t, nil,
		`{"type":"stage1_complete","data":[]}`,
		`{"type":"complete"}`,
	)
	defer srv.Close()

	events, errc := NewClient(srv.URL).StreamTurn(context.Background(), "c1", "q", TierPro, "")

	var kinds []string
	for ev := range events {
		kinds = append(kinds, ev.Kind())
	}
	if err := <-errc; err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(kinds) != 2 || kinds[1] != "complete" {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestStreamTurn_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // connection refused

	events, errc := NewClient(srv.URL).StreamTurn(context.Background(), "c1", "q", TierPro, "")
	for range events {
		t.Error("no events expected")
	}
	if err := <-errc; err == nil {
		t.Error("expected transport error")
	}
}

func TestStreamTurn_Cancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"stage1_complete\",\"data\":[]}\n\n")
		w.(http.Flusher).Flush()
		<-release // hold the stream open
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	events, errc := NewClient(srv.URL).StreamTurn(ctx, "c1", "q", TierPro, "")

	select {
	case ev := <-events:
		if ev.Kind() != "stage1_complete" {
			t.Errorf("kind = %s", ev.Kind())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	cancel()

	// Channel must close promptly; the error channel reports the cancellation.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				if err := <-errc; !errors.Is(err, context.Canceled) {
					t.Errorf("err = %v, want context.Canceled", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("events channel did not close after cancel")
		}
	}
}

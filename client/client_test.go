// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestLogger routes client logging into the test log.
func newTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_RequiresServerURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with empty server URL succeeded, want error")
	}
}

func TestAsk_NDJSONStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The outbound payload wraps the question with fresh thread
		// and run identifiers.
		var request struct {
			Question string `json:"question"`
			ThreadID string `json:"threadId"`
			RunID    string `json:"runId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if request.Question != "what changed?" {
			t.Errorf("question = %q, want %q", request.Question, "what changed?")
		}
		if request.ThreadID == "" || request.RunID == "" {
			t.Error("expected non-empty threadId and runId")
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			fmt.Fprintf(w, `{"sender":"bot","message":"chunk %d"}`+"\n", i)
			flusher.Flush()
		}
	}))
	defer server.Close()

	var output bytes.Buffer
	agent, err := New(Config{
		ServerURL: server.URL,
		Timeout:   2 * time.Second,
		Logger:    newTestLogger(t),
		Output:    &output,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := agent.Ask(context.Background(), "what changed?"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	want := "bot: chunk 0\nbot: chunk 1\nbot: chunk 2\n"
	if output.String() != want {
		t.Errorf("output = %q, want %q", output.String(), want)
	}
}

func TestAsk_SSEStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		io.WriteString(w, "data: {\"sender\": \"bot\", \"text\": \"hello\"}\n\n")
		io.WriteString(w, "data: {\"sender\": \"bot\", \"text\": \"goodbye\"}\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	var output bytes.Buffer
	agent, err := New(Config{
		ServerURL: server.URL,
		Timeout:   2 * time.Second,
		Logger:    newTestLogger(t),
		Output:    &output,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := agent.Ask(context.Background(), "hi"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	want := "bot: hello\nbot: goodbye\n"
	if output.String() != want {
		t.Errorf("output = %q, want %q", output.String(), want)
	}
}

func TestAsk_PreservesArrivalOrder(t *testing.T) {
	const messageCount = 50

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < messageCount; i++ {
			fmt.Fprintf(w, `{"user":"u","message":"%04d"}`+"\n", i)
			flusher.Flush()
		}
	}))
	defer server.Close()

	var output bytes.Buffer
	agent, err := New(Config{
		ServerURL: server.URL,
		Timeout:   2 * time.Second,
		Logger:    newTestLogger(t),
		Output:    &output,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := agent.Ask(context.Background(), "count"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(output.String(), "\n"), "\n")
	if len(lines) != messageCount {
		t.Fatalf("printed %d lines, want %d", len(lines), messageCount)
	}
	for i, line := range lines {
		want := fmt.Sprintf("u: %04d", i)
		if line != want {
			t.Fatalf("line %d = %q, want %q", i, line, want)
		}
	}
}

func TestAsk_RawJSONPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"sender":"bot","message":"hi"}`+"\n")
	}))
	defer server.Close()

	var output bytes.Buffer
	agent, err := New(Config{
		ServerURL: server.URL,
		Timeout:   2 * time.Second,
		Logger:    newTestLogger(t),
		Output:    &output,
		RawJSON:   true,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := agent.Ask(context.Background(), "hi"); err != nil {
		t.Fatalf("Ask() error: %v", err)
	}

	want := `{"sender":"bot","message":"hi"}` + "\n"
	if output.String() != want {
		t.Errorf("output = %q, want %q", output.String(), want)
	}
}

func TestAsk_IdleTimeoutEndsCleanly(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		io.WriteString(w, `{"sender":"bot","message":"only one"}`+"\n")
		flusher.Flush()
		// Go idle without closing; the client's timeout must end the
		// session cleanly.
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	var output bytes.Buffer
	agent, err := New(Config{
		ServerURL: server.URL,
		Timeout:   150 * time.Millisecond,
		Logger:    newTestLogger(t),
		Output:    &output,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := agent.Ask(context.Background(), "hi"); err != nil {
		t.Fatalf("Ask() on idle stream error: %v, want nil (timeout is benign)", err)
	}
	if want := "bot: only one\n"; output.String() != want {
		t.Errorf("output = %q, want %q", output.String(), want)
	}
}

func TestAsk_InterruptEndsCleanly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		io.WriteString(w, `{"sender":"bot","message":"first"}`+"\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	var output bytes.Buffer
	agent, err := New(Config{
		ServerURL: server.URL,
		Timeout:   5 * time.Second,
		Logger:    newTestLogger(t),
		Output:    &output,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	start := time.Now()
	if err := agent.Ask(ctx, "hi"); err != nil {
		t.Fatalf("Ask() after interrupt error: %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("interrupt took %v to unblock the stream", elapsed)
	}
}

func TestAsk_ServerErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	agent, err := New(Config{
		ServerURL: server.URL,
		Timeout:   time.Second,
		Logger:    newTestLogger(t),
		Output:    io.Discard,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := agent.Ask(context.Background(), "hi"); err == nil {
		t.Error("Ask() against a 503 server succeeded, want error")
	}
}

func TestAsk_UnsupportedSchemeFailsBeforeIO(t *testing.T) {
	agent, err := New(Config{
		ServerURL: "ftp://example.com/stream",
		Timeout:   time.Second,
		Logger:    newTestLogger(t),
		Output:    io.Discard,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if err := agent.Ask(context.Background(), "hi"); err == nil {
		t.Error("Ask() with ftp:// URL succeeded, want configuration error")
	}
}

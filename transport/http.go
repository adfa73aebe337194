// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxLineBytes caps a single stream line. A conversational message far
// beyond this is not something the terminal display can do anything
// useful with.
const maxLineBytes = 1 << 20

// httpFraming identifies how the response body delimits messages. The
// server is free to answer with either Server-Sent-Events or
// newline-delimited JSON; the framing is detected from the first
// non-empty line received and fixed for the remainder of the stream.
type httpFraming int

const (
	framingUnknown httpFraming = iota
	framingSSE
	framingLines
)

func (f httpFraming) String() string {
	switch f {
	case framingSSE:
		return "sse"
	case framingLines:
		return "ndjson"
	default:
		return "unknown"
	}
}

// httpStream is the http/https implementation of Stream. The connection
// is not opened at dial time: the question travels as the POST body, so
// Send performs the actual request and ReceiveNext consumes the
// response body line by line. Plain HTTP streaming is unidirectional
// after the first request — a second Send fails.
type httpStream struct {
	endpoint *url.URL
	options  Options
	client   *http.Client

	sent      bool
	cancel    context.CancelFunc
	closeBody func()
	scanner   *bufio.Scanner

	framing httpFraming

	// SSE accumulation state: data lines are joined with newlines and
	// dispatched on the first blank line, per the SSE framing rules.
	dataLines []string
	hasData   bool

	timedOut atomic.Bool
	closed   atomic.Bool
}

func newHTTPStream(endpoint *url.URL, options Options) *httpStream {
	return &httpStream{
		endpoint: endpoint,
		options:  options,
		client:   http.DefaultClient,
	}
}

// Send issues the streaming POST request carrying the payload. The
// response must be 2xx; its body becomes the inbound stream. The
// configured timeout bounds connection establishment — a server that
// accepts the TCP connection but never answers fails here, not in
// ReceiveNext.
func (s *httpStream) Send(ctx context.Context, payload []byte) error {
	if s.sent {
		return Connection("http streaming is unidirectional: cannot send after the initial request")
	}
	s.sent = true

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	request, err := http.NewRequestWithContext(streamCtx, http.MethodPost, s.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		cancel()
		return Connection("building request for %s: %w", s.endpoint, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream, application/x-ndjson, application/json")
	request.Header.Set("Accept-Encoding", "gzip, zstd")

	// Bound the wait for response headers. Body reads are bounded
	// per-receive in ReceiveNext.
	establishTimer := time.AfterFunc(s.options.Timeout, cancel)
	response, err := s.client.Do(request)
	establishTimer.Stop()
	if err != nil {
		cancel()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return Connection("connecting to %s: %w", s.endpoint, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 512))
		response.Body.Close()
		cancel()
		return Connection("server returned %s: %s", response.Status, strings.TrimSpace(string(snippet)))
	}

	reader, closeBody, err := decodeBody(response.Body, response.Header.Get("Content-Encoding"))
	if err != nil {
		response.Body.Close()
		cancel()
		return Connection("reading response from %s: %w", s.endpoint, err)
	}
	s.closeBody = closeBody

	s.scanner = bufio.NewScanner(reader)
	s.scanner.Buffer(make([]byte, 0, 8192), maxLineBytes)

	s.options.Logger.Debug("http stream established",
		"url", s.endpoint.String(),
		"status", response.Status,
		"content_type", response.Header.Get("Content-Type"),
		"content_encoding", response.Header.Get("Content-Encoding"),
	)
	return nil
}

// ReceiveNext returns the next message payload from the response body.
// The first non-empty line decides the framing: SSE field lines switch
// the stream into SSE mode (data accumulation, blank-line dispatch,
// comment lines ignored); anything else means one message per line.
func (s *httpStream) ReceiveNext(ctx context.Context) ([]byte, error) {
	if s.scanner == nil {
		return nil, Connection("receive before the initial request was sent")
	}

	// The idle window covers the whole receive, even when one SSE
	// message spans several lines. Firing the timer cancels the
	// request context, which unblocks the pending body read.
	idleTimer := time.AfterFunc(s.options.Timeout, func() {
		s.timedOut.Store(true)
		s.cancel()
	})
	defer idleTimer.Stop()

	for s.scanner.Scan() {
		line := strings.TrimSuffix(s.scanner.Text(), "\r")

		if s.framing == framingUnknown && line != "" {
			s.framing = detectFraming(line)
			s.options.Logger.Debug("stream framing detected", "framing", s.framing.String())
		}

		switch s.framing {
		case framingSSE:
			if payload, ok := s.consumeSSELine(line); ok {
				return payload, nil
			}
		case framingLines:
			if line != "" {
				return []byte(line), nil
			}
		}
	}

	if s.timedOut.Load() {
		return nil, TimeoutError("no data received within %s", s.options.Timeout)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err := s.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, Connection("stream line exceeds %d bytes", maxLineBytes)
		}
		return nil, Connection("reading stream: %w", err)
	}

	// Clean EOF. An SSE stream may end without a trailing blank line;
	// dispatch any accumulated data before reporting end-of-stream.
	if s.hasData {
		payload := s.takeSSEData()
		return payload, nil
	}
	return nil, io.EOF
}

// consumeSSELine feeds one line into the SSE accumulator. It returns a
// payload when a blank line dispatches accumulated data. Field lines
// other than data (event, id, retry) and comment lines are consumed
// without effect — only the data matters for display.
func (s *httpStream) consumeSSELine(line string) ([]byte, bool) {
	switch {
	case line == "":
		if s.hasData {
			return s.takeSSEData(), true
		}
		return nil, false
	case strings.HasPrefix(line, "data:"):
		s.dataLines = append(s.dataLines, strings.TrimSpace(line[len("data:"):]))
		s.hasData = true
		return nil, false
	default:
		// event:/id:/retry: fields and ":" comments.
		return nil, false
	}
}

func (s *httpStream) takeSSEData() []byte {
	payload := []byte(strings.Join(s.dataLines, "\n"))
	s.dataLines = nil
	s.hasData = false
	return payload
}

// Close cancels the in-flight request and releases the response body.
// Idempotent.
func (s *httpStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.closeBody != nil {
		s.closeBody()
	}
	return nil
}

// detectFraming classifies the first non-empty line of the body. Any
// SSE field or comment line means SSE framing; everything else is
// treated as newline-delimited messages.
func detectFraming(line string) httpFraming {
	for _, prefix := range []string{"data:", "event:", "id:", "retry:", ":"} {
		if strings.HasPrefix(line, prefix) {
			return framingSSE
		}
	}
	return framingLines
}

// decodeBody wraps the response body according to its Content-Encoding.
// The returned closer releases the decoder and the underlying body.
func decodeBody(body io.ReadCloser, encoding string) (io.Reader, func(), error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, func() { body.Close() }, nil
	case "gzip":
		reader, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip stream: %w", err)
		}
		return reader, func() { reader.Close(); body.Close() }, nil
	case "zstd":
		decoder, err := zstd.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd stream: %w", err)
		}
		return decoder.IOReadCloser(), func() { decoder.Close(); body.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported Content-Encoding %q", encoding)
	}
}

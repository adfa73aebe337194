// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// Compile-time interface checks.
var (
	_ Stream = (*httpStream)(nil)
	_ Stream = (*webSocketStream)(nil)
)

// DefaultTimeout is the idle-read timeout applied when Options.Timeout
// is zero.
const DefaultTimeout = 10 * time.Second

// Stream is one open bidirectional connection to an ag-ui server. The
// two implementations (HTTP streaming and WebSocket) are chosen at dial
// time by URL scheme, so the rest of the program never branches on
// transport type.
type Stream interface {
	// Send writes one outbound message. For HTTP streaming this is the
	// initial request body — the transport is unidirectional after the
	// first request, and further sends fail. For WebSocket it writes
	// one masked text frame.
	Send(ctx context.Context, payload []byte) error

	// ReceiveNext blocks until one inbound payload arrives and returns
	// it, with the payload's framing (SSE envelope, WebSocket frame
	// header) already stripped. Returns io.EOF on clean stream end and
	// a timeout-category *Error when the idle window elapses with a
	// read pending.
	ReceiveNext(ctx context.Context) ([]byte, error)

	// Close releases the connection. Idempotent; safe on every exit
	// path including interrupt.
	Close() error
}

// Options configures a dialed stream.
type Options struct {
	// Timeout bounds each receive: if no data arrives within this
	// window the receive fails with a timeout-category error. It also
	// bounds connection establishment. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Dial opens a stream to the server, selecting the implementation from
// the URL scheme: http/https → HTTP streaming, ws/wss → WebSocket.
// Any other scheme fails with a configuration-category error before any
// network I/O is attempted.
//
// The HTTP implementation defers connecting until the first Send, since
// the question travels as the request body. The WebSocket implementation
// connects and completes the upgrade handshake before returning.
func Dial(ctx context.Context, serverURL string, options Options) (Stream, error) {
	options = options.withDefaults()

	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, Unsupported("invalid server URL %q: %w", serverURL, err)
	}
	if parsed.Host == "" {
		return nil, Unsupported("server URL %q has no host", serverURL)
	}

	switch parsed.Scheme {
	case "http", "https":
		return newHTTPStream(parsed, options), nil
	case "ws", "wss":
		return dialWebSocket(ctx, parsed, options)
	default:
		return nil, Unsupported("unsupported server URL scheme %q (want http, https, ws, or wss)", parsed.Scheme)
	}
}

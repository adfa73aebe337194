// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport opens the single streaming connection an agui session
// runs over and hides the wire details behind the [Stream] interface.
//
// [Dial] selects the implementation from the server URL scheme: http and
// https produce an HTTP streaming connection where Send issues the initial
// POST and the response body is consumed as either Server-Sent-Events or
// newline-delimited JSON (the framing is detected from the first line
// received); ws and wss produce a persistent WebSocket connection speaking
// the ag-ui sub-protocol, with client-masked frames, ping/pong handling,
// and clean close semantics. No WebSocket library is used — the client
// implements the RFC 6455 framing it needs directly.
//
// Both implementations apply the configured idle timeout to every receive.
// A receive that exceeds the timeout fails with a timeout-category [Error];
// callers treat that as end-of-stream, not as a failure, since an idle
// server is expected behavior for a conversational stream. All errors
// returned by the package are categorized — see [Error] and the
// [Connection], [TimeoutError], [Protocol], and [Unsupported] constructors.
//
// Streams are single-caller: one goroutine sends, the same or another
// goroutine receives, and Close is safe to call from anywhere, exactly
// once effective.
package transport

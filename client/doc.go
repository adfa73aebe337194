// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

// Package client implements the ag-ui conversation client: it opens one
// stream via the transport package, sends the question as a run request,
// and normalizes every inbound payload for terminal display.
//
// Inbound payloads are heterogeneous — servers answer with JSON objects
// of varying shapes or with plain text lines. [ParseInbound] classifies
// each payload into the two-case [InboundMessage] variant (structured
// mapping or unstructured text), and [Normalize] reduces either case to
// exactly one [DisplayMessage]: a speaker label extracted by priority
// from the user/sender/name/role fields, and a body taken by priority
// from the message/text/content fields. Unrecognized shapes never fail —
// they fall back to the "agent" label and the payload rendered as text,
// so every inbound payload yields exactly one printed line, in arrival
// order.
//
// [Client.Ask] is the session loop: dial, send, receive-normalize-print
// until the stream closes, the idle timeout elapses (benign end of
// stream), or the context is cancelled by an interrupt. The connection
// is closed on every one of those paths.
package client

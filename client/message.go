// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FallbackSpeaker labels messages that carry no recognized speaker
// field, and all unstructured text lines.
const FallbackSpeaker = "agent"

// Field priority lists. First match wins; the order is the contract —
// a payload carrying both "sender" and "role" is attributed to the
// sender.
var (
	speakerFields = [...]string{"user", "sender", "name", "role"}
	bodyFields    = [...]string{"message", "text", "content"}
)

// InboundMessage is one raw payload from the stream, already stripped
// of its wire framing. It is a two-case variant: a structured JSON
// object, or an unstructured line of text. The zero value is an empty
// unstructured message.
type InboundMessage struct {
	fields map[string]any // non-nil only for structured payloads
	text   string         // raw payload text, verbatim
}

// DisplayMessage is the normalized output: a best-effort speaker label
// and the message body. Each InboundMessage produces exactly one
// DisplayMessage.
type DisplayMessage struct {
	Speaker string
	Text    string
}

// ParseInbound classifies a raw payload. A payload that parses as a
// JSON object becomes a structured message; everything else — plain
// text, JSON scalars, JSON arrays — stays unstructured with the payload
// text kept verbatim, so unrecognized shapes round-trip to the terminal
// unchanged.
func ParseInbound(payload []byte) InboundMessage {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		decoder := json.NewDecoder(bytes.NewReader(trimmed))
		decoder.UseNumber()
		var fields map[string]any
		if err := decoder.Decode(&fields); err == nil && fields != nil {
			return InboundMessage{fields: fields, text: string(trimmed)}
		}
	}
	return InboundMessage{text: string(payload)}
}

// Structured reports whether the payload parsed as a JSON object.
func (m InboundMessage) Structured() bool { return m.fields != nil }

// Text returns the raw payload text.
func (m InboundMessage) Text() string { return m.text }

// Normalize reduces one inbound message to its display form.
//
// Structured payloads: the speaker is the first non-empty field of
// user/sender/name/role (case-insensitive lookup), the body the first
// non-empty field of message/text/content. Nested objects and arrays
// render as JSON; numbers and booleans as their natural text. A payload
// with no recognized body field displays its full JSON text, and one
// with no recognized speaker field gets the fallback label — Normalize
// never fails.
//
// Unstructured payloads: fallback label, text verbatim.
func Normalize(message InboundMessage) DisplayMessage {
	if !message.Structured() {
		return DisplayMessage{Speaker: FallbackSpeaker, Text: message.text}
	}

	speaker := FallbackSpeaker
	for _, field := range speakerFields {
		if rendered := renderField(message.fields, field); rendered != "" {
			speaker = rendered
			break
		}
	}

	text := message.text
	for _, field := range bodyFields {
		if rendered := renderField(message.fields, field); rendered != "" {
			text = rendered
			break
		}
	}

	return DisplayMessage{Speaker: speaker, Text: text}
}

// renderField looks up a field case-insensitively and renders its value
// as display text. Returns "" when the field is absent, null, or empty,
// which makes the caller's priority scan fall through to the next field.
func renderField(fields map[string]any, name string) string {
	value, ok := lookupField(fields, name)
	if !ok {
		return ""
	}
	return renderValue(value)
}

// lookupField performs a case-insensitive key lookup. An exact
// lowercase key wins; otherwise fold-equal keys are taken in sorted
// order so the result does not depend on map iteration order.
func lookupField(fields map[string]any, name string) (any, bool) {
	if value, ok := fields[name]; ok {
		return value, true
	}
	var candidates []string
	for key := range fields {
		if strings.EqualFold(key, name) {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Strings(candidates)
	return fields[candidates[0]], true
}

// renderValue converts a JSON value to display text. Nested objects and
// arrays are re-encoded as compact JSON.
func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	default:
		return fmt.Sprint(v)
	}
}

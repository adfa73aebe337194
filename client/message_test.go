// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"testing"
)

func TestNormalize_SpeakerPriority(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "user wins over everything",
			payload: `{"role":"assistant","name":"helper","sender":"bot","user":"alice"}`,
			want:    "alice",
		},
		{
			name:    "sender wins over name and role",
			payload: `{"role":"assistant","name":"helper","sender":"bot"}`,
			want:    "bot",
		},
		{
			name:    "name wins over role",
			payload: `{"role":"assistant","name":"helper"}`,
			want:    "helper",
		},
		{
			name:    "role alone",
			payload: `{"role":"assistant"}`,
			want:    "assistant",
		},
		{
			name:    "priority independent of field ordering",
			payload: `{"user":"alice","role":"assistant"}`,
			want:    "alice",
		},
		{
			name:    "no speaker field falls back",
			payload: `{"message":"hi"}`,
			want:    FallbackSpeaker,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Normalize(ParseInbound([]byte(test.payload)))
			if got.Speaker != test.want {
				t.Errorf("Speaker = %q, want %q", got.Speaker, test.want)
			}
		})
	}
}

func TestNormalize_SpeakerLookupIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{`{"User":"alice"}`, "alice"},
		{`{"SENDER":"bot"}`, "bot"},
		{`{"Name":"helper"}`, "helper"},
		{`{"ROLE":"assistant"}`, "assistant"},
		{`{"Role":"assistant","USER":"alice"}`, "alice"},
	}

	for _, test := range tests {
		got := Normalize(ParseInbound([]byte(test.payload)))
		if got.Speaker != test.want {
			t.Errorf("Normalize(%s).Speaker = %q, want %q", test.payload, got.Speaker, test.want)
		}
	}
}

func TestNormalize_BodyPriority(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "message wins over text and content",
			payload: `{"message":"one","text":"two","content":"three"}`,
			want:    "one",
		},
		{
			name:    "text wins over content",
			payload: `{"text":"two","content":"three"}`,
			want:    "two",
		},
		{
			name:    "content alone",
			payload: `{"content":"three"}`,
			want:    "three",
		},
		{
			name:    "case-insensitive body lookup",
			payload: `{"Message":"one"}`,
			want:    "one",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Normalize(ParseInbound([]byte(test.payload)))
			if got.Text != test.want {
				t.Errorf("Text = %q, want %q", got.Text, test.want)
			}
		})
	}
}

func TestNormalize_NoRecognizedBodyShowsFullPayload(t *testing.T) {
	payload := `{"kind":"status","progress":42}`
	got := Normalize(ParseInbound([]byte(payload)))

	if got.Speaker != FallbackSpeaker {
		t.Errorf("Speaker = %q, want %q", got.Speaker, FallbackSpeaker)
	}
	if got.Text != payload {
		t.Errorf("Text = %q, want the full payload %q", got.Text, payload)
	}
}

func TestNormalize_UnstructuredRoundTrip(t *testing.T) {
	// Anything that is not a JSON object must come back verbatim with
	// the fallback speaker: plain text, scalars, arrays, broken JSON.
	lines := []string{
		"plain text line",
		"42",
		"true",
		`"a json string"`,
		`[1,2,3]`,
		`{"broken": `,
		"",
	}

	for _, line := range lines {
		message := ParseInbound([]byte(line))
		if message.Structured() {
			t.Errorf("ParseInbound(%q).Structured() = true, want false", line)
			continue
		}
		got := Normalize(message)
		if got.Speaker != FallbackSpeaker {
			t.Errorf("Normalize(%q).Speaker = %q, want %q", line, got.Speaker, FallbackSpeaker)
		}
		if got.Text != line {
			t.Errorf("Normalize(%q).Text = %q, want input verbatim", line, got.Text)
		}
	}
}

func TestNormalize_EmptyAndNullFieldsFallThrough(t *testing.T) {
	tests := []struct {
		payload     string
		wantSpeaker string
		wantText    string
	}{
		{`{"user":"","sender":"bot","message":"hi"}`, "bot", "hi"},
		{`{"user":null,"name":"helper","message":"hi"}`, "helper", "hi"},
		{`{"message":"","text":"fallback body"}`, FallbackSpeaker, "fallback body"},
	}

	for _, test := range tests {
		got := Normalize(ParseInbound([]byte(test.payload)))
		if got.Speaker != test.wantSpeaker {
			t.Errorf("Normalize(%s).Speaker = %q, want %q", test.payload, got.Speaker, test.wantSpeaker)
		}
		if got.Text != test.wantText {
			t.Errorf("Normalize(%s).Text = %q, want %q", test.payload, got.Text, test.wantText)
		}
	}
}

func TestNormalize_NonStringValues(t *testing.T) {
	tests := []struct {
		payload     string
		wantSpeaker string
		wantText    string
	}{
		{`{"user":42,"message":"hi"}`, "42", "hi"},
		{`{"user":"alice","message":3.5}`, "alice", "3.5"},
		{`{"user":"alice","message":true}`, "alice", "true"},
		{`{"user":"alice","message":{"a":1}}`, "alice", `{"a":1}`},
		{`{"user":"alice","message":["x","y"]}`, "alice", `["x","y"]`},
	}

	for _, test := range tests {
		got := Normalize(ParseInbound([]byte(test.payload)))
		if got.Speaker != test.wantSpeaker || got.Text != test.wantText {
			t.Errorf("Normalize(%s) = %q/%q, want %q/%q",
				test.payload, got.Speaker, got.Text, test.wantSpeaker, test.wantText)
		}
	}
}

func TestNormalize_Scenarios(t *testing.T) {
	// The canonical end-to-end shapes: one structured chat message and
	// the payload of an SSE data frame.
	tests := []struct {
		payload string
		want    string
	}{
		{`{"user": "alice", "message": "hi"}`, "alice: hi"},
		{`{"sender": "bot", "text": "hello"}`, "bot: hello"},
	}

	for _, test := range tests {
		display := Normalize(ParseInbound([]byte(test.payload)))
		got := fmt.Sprintf("%s: %s", display.Speaker, display.Text)
		if got != test.want {
			t.Errorf("Normalize(%s) renders %q, want %q", test.payload, got, test.want)
		}
	}
}

func TestNormalize_ExactlyOnePerInbound(t *testing.T) {
	// Every payload shape, including degenerate ones, yields exactly
	// one display message — Normalize has no error path.
	payloads := []string{
		`{}`,
		`{"unrelated":"field"}`,
		`{"user":null}`,
		"",
		"\x00binary-ish\xff",
	}

	for _, payload := range payloads {
		got := Normalize(ParseInbound([]byte(payload)))
		if got.Speaker == "" {
			t.Errorf("Normalize(%q) produced an empty speaker", payload)
		}
	}
}

// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WebSocket opcodes (RFC 6455 §5.2).
const (
	opContinuation byte = 0x0
	opText         byte = 0x1
	opBinary       byte = 0x2
	opClose        byte = 0x8
	opPing         byte = 0x9
	opPong         byte = 0xA
)

// acceptGUID is the fixed GUID appended to the client key when computing
// the Sec-WebSocket-Accept header (RFC 6455 §1.3).
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// errFrameOversized marks a frame whose payload exceeds maxLineBytes.
// The payload has already been discarded from the reader when this is
// returned, so the caller can skip the frame and keep reading.
var errFrameOversized = errors.New("frame payload too large")

// frame is one decoded WebSocket frame.
type frame struct {
	opcode  byte
	fin     bool
	payload []byte
}

// newSecWebSocketKey returns a fresh base64-encoded 16-byte nonce for
// the upgrade handshake.
func newSecWebSocketKey() string {
	var nonce [16]byte
	rand.Read(nonce[:])
	return base64.StdEncoding.EncodeToString(nonce[:])
}

// acceptKey computes the Sec-WebSocket-Accept value the server must
// echo for the given client key.
func acceptKey(clientKey string) string {
	digest := sha1.Sum([]byte(clientKey + acceptGUID))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// writeFrame encodes and writes one frame. Client-to-server frames must
// be masked (RFC 6455 §5.3); the mask key is fresh per frame. fin is
// false only when the message continues in a following frame.
func writeFrame(w io.Writer, opcode byte, fin bool, payload []byte, mask bool) error {
	finBit := byte(0)
	if fin {
		finBit = 0x80
	}
	header := make([]byte, 0, 14)
	header = append(header, finBit|(opcode&0x0F))

	maskBit := byte(0)
	if mask {
		maskBit = 0x80
	}
	length := len(payload)
	switch {
	case length < 126:
		header = append(header, maskBit|byte(length))
	case length < 1<<16:
		header = append(header, maskBit|126)
		header = binary.BigEndian.AppendUint16(header, uint16(length))
	default:
		header = append(header, maskBit|127)
		header = binary.BigEndian.AppendUint64(header, uint64(length))
	}

	if mask {
		var key [4]byte
		rand.Read(key[:])
		header = append(header, key[:]...)
		masked := make([]byte, length)
		for i, b := range payload {
			masked[i] = b ^ key[i%4]
		}
		payload = masked
	}

	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readFrame decodes one frame from the reader, unmasking the payload if
// the mask bit is set (servers don't mask, but the codec is shared with
// tests that read client frames). An oversized payload is discarded and
// reported as errFrameOversized so the stream can continue past it.
func readFrame(r *bufio.Reader) (frame, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return frame{}, err
	}

	decoded := frame{
		opcode: head[0] & 0x0F,
		fin:    head[0]&0x80 != 0,
	}
	masked := head[1]&0x80 != 0
	length := uint64(head[1] & 0x7F)

	switch length {
	case 126:
		var extended [2]byte
		if _, err := io.ReadFull(r, extended[:]); err != nil {
			return frame{}, err
		}
		length = uint64(binary.BigEndian.Uint16(extended[:]))
	case 127:
		var extended [8]byte
		if _, err := io.ReadFull(r, extended[:]); err != nil {
			return frame{}, err
		}
		length = binary.BigEndian.Uint64(extended[:])
	}

	var key [4]byte
	if masked {
		if _, err := io.ReadFull(r, key[:]); err != nil {
			return frame{}, err
		}
	}

	if length > maxLineBytes {
		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return frame{}, err
		}
		return decoded, fmt.Errorf("%w: %d bytes", errFrameOversized, length)
	}

	if length > 0 {
		decoded.payload = make([]byte, length)
		if _, err := io.ReadFull(r, decoded.payload); err != nil {
			return frame{}, err
		}
		if masked {
			for i := range decoded.payload {
				decoded.payload[i] ^= key[i%4]
			}
		}
	}
	return decoded, nil
}

// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"
)

// Category classifies transport errors so the CLI can map them to exit
// behavior without parsing error message text.
type Category string

const (
	// CategoryConfiguration indicates the server URL is malformed or
	// uses a scheme no transport implements. Reported before any
	// network I/O is attempted.
	CategoryConfiguration Category = "configuration"

	// CategoryConnection indicates the stream could not be established
	// or died mid-session: connection refused, TLS failure, rejected
	// upgrade, non-2xx response. Aborts the session.
	CategoryConnection Category = "connection"

	// CategoryTimeout indicates no data arrived within the configured
	// idle window while a receive was pending. Callers treat this as
	// benign end-of-stream, not as a failure.
	CategoryTimeout Category = "timeout"

	// CategoryProtocol indicates a single inbound frame could not be
	// handled (unexpected opcode, oversized payload). The offending
	// frame is skipped and the stream continues.
	CategoryProtocol Category = "protocol"
)

// Error is a categorized transport error. It wraps an inner error,
// preserving the full chain for errors.Is and errors.As, and adds the
// category used for exit-code mapping:
//
//	var transportErr *transport.Error
//	if errors.As(err, &transportErr) {
//	    if transportErr.Category == transport.CategoryTimeout { ... }
//	}
//
// Use the category-specific constructors rather than constructing
// Error directly.
type Error struct {
	// Category classifies the error for programmatic handling.
	Category Category

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the underlying error message. The category is not
// included in the string — it travels separately for programmatic
// handling.
func (e *Error) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error, allowing errors.Is and
// errors.As to walk the full chain through the Error wrapper.
func (e *Error) Unwrap() error { return e.Err }

// Unsupported creates a configuration error: the URL cannot be dialed.
func Unsupported(format string, args ...any) *Error {
	return &Error{Category: CategoryConfiguration, Err: fmt.Errorf(format, args...)}
}

// Connection creates a connection error: the stream could not be
// established or failed mid-session.
func Connection(format string, args ...any) *Error {
	return &Error{Category: CategoryConnection, Err: fmt.Errorf(format, args...)}
}

// TimeoutError creates a timeout error: nothing arrived within the idle
// window. Benign — callers treat it as end-of-stream.
func TimeoutError(format string, args ...any) *Error {
	return &Error{Category: CategoryTimeout, Err: fmt.Errorf(format, args...)}
}

// Protocol creates a protocol error: one inbound frame could not be
// handled. Recoverable — the stream continues past it.
func Protocol(format string, args ...any) *Error {
	return &Error{Category: CategoryProtocol, Err: fmt.Errorf(format, args...)}
}

// IsTimeout reports whether err is a timeout-category transport error.
func IsTimeout(err error) bool {
	return hasCategory(err, CategoryTimeout)
}

// IsConfiguration reports whether err is a configuration-category
// transport error.
func IsConfiguration(err error) bool {
	return hasCategory(err, CategoryConfiguration)
}

// IsProtocol reports whether err is a protocol-category transport
// error, i.e. one skipped frame rather than a dead stream.
func IsProtocol(err error) bool {
	return hasCategory(err, CategoryProtocol)
}

func hasCategory(err error, category Category) bool {
	var transportErr *Error
	if errors.As(err, &transportErr) {
		return transportErr.Category == category
	}
	return false
}

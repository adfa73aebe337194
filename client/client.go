// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/agui-foundation/agui/transport"
)

// Config holds configuration for creating a Client.
type Config struct {
	// ServerURL is the full URL of the ag-ui server, including any
	// path the server requires. The scheme selects the transport.
	ServerURL string

	// Timeout bounds each receive; an idle stream past this window is
	// treated as ended. Zero means transport.DefaultTimeout.
	Timeout time.Duration

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Output receives the printed messages. If nil, os.Stdout is used.
	Output io.Writer

	// RawJSON prints raw inbound payloads as newline-delimited JSON
	// instead of normalized "speaker: text" lines.
	RawJSON bool

	// Color enables the styled speaker label.
	Color bool
}

// Client asks an ag-ui server one question and prints the answer stream.
type Client struct {
	config  Config
	printer *Printer
}

// New creates a Client. The server URL is validated at dial time; an
// empty URL fails immediately.
func New(config Config) (*Client, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("client: server URL is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timeout <= 0 {
		config.Timeout = transport.DefaultTimeout
	}
	return &Client{
		config:  config,
		printer: NewPrinter(config.Output, PrinterOptions{Color: config.Color}),
	}, nil
}

// runRequest is the outbound payload wrapping the question. The thread
// and run identifiers are fresh per invocation — the CLI has no session
// continuity, so every question starts a new thread.
type runRequest struct {
	Question string `json:"question"`
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

// Ask opens the stream, sends the question, and prints inbound messages
// in arrival order until the stream ends. Returns nil on every benign
// ending: clean close, idle timeout, and interrupt via ctx. The
// connection is closed on all paths.
func (c *Client) Ask(ctx context.Context, question string) error {
	payload, err := json.Marshal(runRequest{
		Question: question,
		ThreadID: uuid.NewString(),
		RunID:    uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("encoding question: %w", err)
	}

	stream, err := transport.Dial(ctx, c.config.ServerURL, transport.Options{
		Timeout: c.config.Timeout,
		Logger:  c.config.Logger,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Send(ctx, payload); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	received := 0
	for {
		inbound, err := stream.ReceiveNext(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				c.config.Logger.Debug("stream closed", "messages", received)
				return nil
			case transport.IsTimeout(err):
				c.config.Logger.Debug("stream idle, treating as end of stream", "messages", received)
				return nil
			case transport.IsProtocol(err):
				c.config.Logger.Warn("skipping malformed frame", "error", err)
				continue
			case ctx.Err() != nil:
				c.config.Logger.Debug("interrupted", "messages", received)
				return nil
			default:
				return err
			}
		}

		received++
		if c.config.RawJSON {
			if err := c.printer.PrintRaw(inbound); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			continue
		}
		if err := c.printer.Print(Normalize(ParseInbound(inbound))); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
}

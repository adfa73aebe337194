// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"
)

// subProtocol is the ag-ui application sub-protocol requested during
// the upgrade handshake.
const subProtocol = "ag-ui"

// webSocketStream is the ws/wss implementation of Stream: a persistent
// socket speaking RFC 6455 framing with the ag-ui sub-protocol. Text
// frames carry one message payload each; ping frames are answered
// inline; a close frame ends the stream cleanly.
type webSocketStream struct {
	conn    net.Conn
	reader  *bufio.Reader
	options Options

	done      chan struct{}
	closeOnce sync.Once
}

// dialWebSocket connects, wraps the connection in TLS for wss, and
// completes the upgrade handshake before returning. The configured
// timeout bounds every phase of establishment.
func dialWebSocket(ctx context.Context, endpoint *url.URL, options Options) (Stream, error) {
	host := endpoint.Hostname()
	port := endpoint.Port()
	if port == "" {
		if endpoint.Scheme == "wss" {
			port = "443"
		} else {
			port = "80"
		}
	}
	address := net.JoinHostPort(host, port)

	dialer := &net.Dialer{Timeout: options.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, Connection("connecting to %s: %w", address, err)
	}

	if endpoint.Scheme == "wss" {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: host})
		tlsConn.SetDeadline(time.Now().Add(options.Timeout))
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, Connection("TLS handshake with %s: %w", address, err)
		}
		tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}

	stream := &webSocketStream{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		options: options,
		done:    make(chan struct{}),
	}

	if err := stream.handshake(endpoint); err != nil {
		conn.Close()
		return nil, err
	}

	// An interrupt must unblock a pending read so the guaranteed-close
	// path runs promptly instead of waiting out the idle window.
	go func() {
		select {
		case <-ctx.Done():
			stream.Close()
		case <-stream.done:
		}
	}()

	options.Logger.Debug("websocket stream established", "url", endpoint.String())
	return stream, nil
}

// handshake performs the HTTP/1.1 upgrade (RFC 6455 §4). The server
// must answer 101 with the accept key derived from our nonce; anything
// else is a connection error.
func (s *webSocketStream) handshake(endpoint *url.URL) error {
	path := endpoint.RequestURI()
	if path == "" {
		path = "/"
	}
	key := newSecWebSocketKey()

	s.conn.SetDeadline(time.Now().Add(s.options.Timeout))
	defer s.conn.SetDeadline(time.Time{})

	var request strings.Builder
	fmt.Fprintf(&request, "GET %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&request, "Host: %s\r\n", endpoint.Host)
	request.WriteString("Upgrade: websocket\r\n")
	request.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&request, "Sec-WebSocket-Key: %s\r\n", key)
	request.WriteString("Sec-WebSocket-Version: 13\r\n")
	fmt.Fprintf(&request, "Sec-WebSocket-Protocol: %s\r\n", subProtocol)
	request.WriteString("\r\n")

	if _, err := s.conn.Write([]byte(request.String())); err != nil {
		return Connection("writing upgrade request: %w", err)
	}

	response := textproto.NewReader(s.reader)
	statusLine, err := response.ReadLine()
	if err != nil {
		return Connection("reading upgrade response: %w", err)
	}
	headers, err := response.ReadMIMEHeader()
	if err != nil {
		return Connection("reading upgrade response headers: %w", err)
	}

	fields := strings.SplitN(statusLine, " ", 3)
	if len(fields) < 2 || fields[1] != "101" {
		return Connection("websocket upgrade refused: %s", statusLine)
	}
	if accept := headers.Get("Sec-Websocket-Accept"); accept != acceptKey(key) {
		return Connection("websocket upgrade returned wrong accept key %q", accept)
	}
	return nil
}

// Send writes one masked text frame.
func (s *webSocketStream) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.options.Timeout))
	defer s.conn.SetWriteDeadline(time.Time{})
	if err := writeFrame(s.conn, opText, true, payload, true); err != nil {
		return Connection("sending message: %w", err)
	}
	return nil
}

// ReceiveNext reads frames until one text message is complete. Pings
// are answered with pongs, binary frames are skipped with a warning,
// and a close frame (or the peer closing the connection at a frame
// boundary) ends the stream with io.EOF.
func (s *webSocketStream) ReceiveNext(ctx context.Context) ([]byte, error) {
	var message []byte
	assembling := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.conn.SetReadDeadline(time.Now().Add(s.options.Timeout))
		received, err := readFrame(s.reader)
		if err != nil {
			return nil, s.classifyReadError(ctx, err)
		}

		switch received.opcode {
		case opText:
			if assembling {
				s.options.Logger.Warn("skipping interleaved text frame inside fragmented message")
				continue
			}
			if received.fin {
				return received.payload, nil
			}
			message = append(message, received.payload...)
			assembling = true
		case opContinuation:
			if !assembling {
				s.options.Logger.Warn("skipping continuation frame with no message in progress")
				continue
			}
			message = append(message, received.payload...)
			if received.fin {
				return message, nil
			}
		case opPing:
			s.conn.SetWriteDeadline(time.Now().Add(s.options.Timeout))
			if err := writeFrame(s.conn, opPong, true, received.payload, true); err != nil {
				return nil, Connection("answering ping: %w", err)
			}
			s.conn.SetWriteDeadline(time.Time{})
		case opPong:
			// Unsolicited pong, nothing to do.
		case opClose:
			// Best-effort close reply; the peer may already be gone.
			s.conn.SetWriteDeadline(time.Now().Add(time.Second))
			writeFrame(s.conn, opClose, true, nil, true)
			return nil, io.EOF
		default:
			s.options.Logger.Warn("skipping unsupported frame",
				"opcode", fmt.Sprintf("0x%X", received.opcode),
			)
		}
	}
}

// classifyReadError maps a frame read failure onto the error taxonomy:
// deadline → timeout (benign), oversized frame → protocol (the caller
// decides whether to continue), interrupt → context error, peer gone at
// a frame boundary → io.EOF, anything else → connection error.
func (s *webSocketStream) classifyReadError(ctx context.Context, err error) error {
	if errors.Is(err, errFrameOversized) {
		return Protocol("skipping frame: %v", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TimeoutError("no data received within %s", s.options.Timeout)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return Connection("reading frame: %w", err)
}

// Close tears down the socket. Idempotent; also runs on interrupt via
// the watcher goroutine started at dial time.
func (s *webSocketStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		// Best-effort close frame so well-behaved servers can end the
		// session cleanly; the connection drops either way.
		s.conn.SetWriteDeadline(time.Now().Add(time.Second))
		writeFrame(s.conn, opClose, true, nil, true)
		s.conn.Close()
	})
	return nil
}

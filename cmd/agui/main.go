// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

// agui is a command-line client for ag-ui streaming servers. It sends
// one question and prints the server's messages as they arrive, each
// normalized to a "speaker: text" line.
//
// Usage:
//
//	agui [flags] [question]
//
// The server URL comes from --server, the AG_UI_SERVER environment
// variable, or a config file, in that order of precedence. The URL
// scheme selects the transport: http/https for a streaming POST
// (Server-Sent-Events or newline-delimited JSON), ws/wss for a
// WebSocket session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/agui-foundation/agui/client"
	"github.com/agui-foundation/agui/lib/config"
	"github.com/agui-foundation/agui/lib/version"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var serverFlag, configFlag string
	var timeoutFlag int
	var rawJSON, noColor, verbose bool

	flagSet := pflag.NewFlagSet("agui", pflag.ContinueOnError)
	flagSet.StringVar(&serverFlag, "server", "", "full URL of the ag-ui server (default: AG_UI_SERVER)")
	flagSet.IntVar(&timeoutFlag, "timeout", config.DefaultTimeoutSeconds, "idle stream timeout in seconds")
	flagSet.StringVar(&configFlag, "config", "", "path to a YAML config file (default: AGUI_CONFIG or ~/.config/agui/config.yaml)")
	flagSet.BoolVar(&rawJSON, "json", false, "print raw payloads as newline-delimited JSON")
	flagSet.BoolVar(&noColor, "no-color", false, "disable the styled speaker label")
	flagSet.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing so it works regardless of
	// other arguments.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("agui %s\n", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) > 1 {
		return fmt.Errorf("expected at most one question argument, got %d", len(args))
	}

	overrides := config.Overrides{Server: serverFlag, ConfigPath: configFlag}
	if flagSet.Changed("timeout") {
		overrides.Timeout = timeoutFlag
	}
	resolved, err := config.Resolve(overrides)
	if err != nil {
		return err
	}

	positional := ""
	if len(args) == 1 {
		positional = args[0]
	}
	question, err := resolveQuestion(positional, term.IsTerminal(int(os.Stdin.Fd())), os.Stdin)
	if err != nil {
		return err
	}

	logger := newLogger(verbose)

	// SIGINT and SIGTERM cancel the context, which unblocks any
	// pending receive and runs the guaranteed-close path. An
	// interrupted session exits 0.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent, err := client.New(client.Config{
		ServerURL: resolved.ServerURL,
		Timeout:   resolved.Timeout,
		Logger:    logger,
		RawJSON:   rawJSON,
		Color:     !noColor && term.IsTerminal(int(os.Stdout.Fd())),
	})
	if err != nil {
		return err
	}

	logger.Debug("connecting", "server", resolved.ServerURL, "timeout", resolved.Timeout)
	return agent.Ask(ctx, question)
}

// resolveQuestion returns the question to send: the positional argument
// if given, an interactive prompt when stdin is a terminal, or the
// piped stdin content otherwise. An empty question is an error — there
// is nothing to send.
func resolveQuestion(positional string, interactive bool, stdin io.Reader) (string, error) {
	if positional != "" {
		return positional, nil
	}

	if interactive {
		fmt.Fprint(os.Stderr, "What would you like to ask the agent? ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("no question provided")
		}
		if question := strings.TrimSpace(line); question != "" {
			return question, nil
		}
		return "", fmt.Errorf("no question provided")
	}

	piped, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading question from stdin: %w", err)
	}
	if question := strings.TrimSpace(string(piped)); question != "" {
		return question, nil
	}
	return "", fmt.Errorf("no question provided")
}

// newLogger builds the stderr logger: human-readable text on a
// terminal, JSON when piped or redirected. Warnings and errors only,
// unless --verbose asks for debug detail.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options))
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `agui — ask an ag-ui agent a question and stream the answer.

The server URL comes from --server, the AG_UI_SERVER environment
variable, a .env file, or a config file, in that order. The URL scheme
selects the transport: http/https streams the response of a single
POST; ws/wss holds a WebSocket session open.

If the question is omitted, agui prompts for one on a terminal, or
reads it from stdin when piped.

Usage:
  agui [flags] [question]

Examples:
  # Environment-configured server
  AG_UI_SERVER=https://agents.example.com/ag-ui agui "What changed today?"

  # Explicit server, longer idle timeout
  agui --server wss://agents.example.com/ws --timeout 60 "Summarize the logs"

  # Raw protocol frames for scripting
  agui --json "status report" | jq .

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

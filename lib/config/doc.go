// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the agui CLI configuration into one explicit
// [Config] value at startup. No other component reads the environment —
// everything downstream receives the resolved value.
//
// Sources, highest precedence first:
//
//  1. command-line flags (--server, --timeout)
//  2. the AG_UI_SERVER and AG_UI_TIMEOUT environment variables
//  3. a .env file in the working directory (loaded into the
//     environment, never overriding variables that are already set)
//  4. a YAML config file: --config flag, else AGUI_CONFIG, else
//     ~/.config/agui/config.yaml when it exists
//
// An explicitly named config file that cannot be read is an error; only
// the ~/.config fallback is optional. Validation happens here, before
// any network I/O: the server URL must parse and carry an http, https,
// ws, or wss scheme, and the timeout must be positive.
package config

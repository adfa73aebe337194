// Copyright 2026 The Agui Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read during resolution.
const (
	// EnvServer carries the full URL of the ag-ui server.
	EnvServer = "AG_UI_SERVER"
	// EnvTimeout carries the idle stream timeout in seconds.
	EnvTimeout = "AG_UI_TIMEOUT"
	// EnvConfig carries the path of the YAML config file.
	EnvConfig = "AGUI_CONFIG"
)

// DefaultTimeoutSeconds is the idle stream timeout applied when no
// source specifies one.
const DefaultTimeoutSeconds = 10

// File is the on-disk YAML shape:
//
//	server: https://agents.example.com/ag-ui
//	timeout: 30
type File struct {
	Server  string `yaml:"server"`
	Timeout int    `yaml:"timeout"`
}

// Config is the resolved process-wide configuration.
type Config struct {
	// ServerURL is the validated server URL. Immutable once resolved.
	ServerURL string

	// Timeout is the idle stream timeout.
	Timeout time.Duration
}

// Overrides carries the command-line flag values into resolution.
// Zero values mean "flag not given".
type Overrides struct {
	// Server overrides every other server URL source.
	Server string

	// Timeout, in seconds, overrides every other timeout source.
	Timeout int

	// ConfigPath names the YAML config file explicitly.
	ConfigPath string
}

// Resolve layers the configuration sources and validates the result.
// It is the single place the environment is consulted.
func Resolve(overrides Overrides) (*Config, error) {
	// A .env file in the working directory participates in the
	// environment layer. Variables that are already set win — the
	// file only fills gaps, it never overrides.
	godotenv.Load()

	resolved := &Config{Timeout: DefaultTimeoutSeconds * time.Second}

	if path, found := configPath(overrides.ConfigPath); found {
		file, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if file.Server != "" {
			resolved.ServerURL = file.Server
		}
		if file.Timeout > 0 {
			resolved.Timeout = time.Duration(file.Timeout) * time.Second
		}
	}

	if server := os.Getenv(EnvServer); server != "" {
		resolved.ServerURL = server
	}
	if raw := os.Getenv(EnvTimeout); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid %s value %q: want a positive number of seconds", EnvTimeout, raw)
		}
		resolved.Timeout = time.Duration(seconds) * time.Second
	}

	if overrides.Server != "" {
		resolved.ServerURL = overrides.Server
	}
	if overrides.Timeout > 0 {
		resolved.Timeout = time.Duration(overrides.Timeout) * time.Second
	}

	if resolved.ServerURL == "" {
		return nil, fmt.Errorf("%s is not set: provide --server, the %s environment variable, or a config file",
			EnvServer, EnvServer)
	}
	if err := ValidateServerURL(resolved.ServerURL); err != nil {
		return nil, err
	}
	return resolved, nil
}

// ValidateServerURL checks that the URL parses and uses a scheme a
// transport implements. Called during resolution so a bad URL is
// reported before any network I/O.
func ValidateServerURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	switch parsed.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("unsupported scheme %q in server URL %q (want http, https, ws, or wss)", parsed.Scheme, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("server URL %q has no host", raw)
	}
	return nil
}

// configPath picks the config file to load. An explicitly named file
// (flag or AGUI_CONFIG) is always used; the ~/.config fallback only
// when it exists.
func configPath(explicit string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	if fromEnv := os.Getenv(EnvConfig); fromEnv != "" {
		return fromEnv, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	fallback := filepath.Join(home, ".config", "agui", "config.yaml")
	if _, err := os.Stat(fallback); err != nil {
		return "", false
	}
	return fallback, true
}

func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &file, nil
}

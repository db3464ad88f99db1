// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for chatpane.
//
// Configuration is loaded from a single file specified by:
//   - CHATPANE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides. The
// only expansion performed is ${HOME} and similar variables in paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for chatpane.
type Config struct {
	// Transport configures the chat endpoint connection.
	Transport TransportConfig `yaml:"transport"`

	// Defaults configures fallback routing behavior.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Tmux configures which tmux server to watch.
	Tmux TmuxConfig `yaml:"tmux"`

	// Picker configures session selection prompts.
	Picker PickerConfig `yaml:"picker"`

	// Limits configures output truncation budgets.
	Limits LimitsConfig `yaml:"limits"`

	// Hooks configures the local hook event socket.
	Hooks HooksConfig `yaml:"hooks"`
}

// TransportConfig configures the chat endpoint connection.
type TransportConfig struct {
	// Enabled turns the chat transport on. When false, chatpane
	// refuses to start: a relay with no endpoint has nothing to do.
	Enabled bool `yaml:"enabled"`

	// HomeserverURL is the base URL of the Matrix homeserver,
	// e.g. "https://matrix.example.org".
	HomeserverURL string `yaml:"homeserver_url"`

	// AccessToken authenticates chatpane's Matrix user. Prefer
	// AccessTokenFile in deployments so the token stays out of the
	// config file.
	AccessToken string `yaml:"access_token"`

	// AccessTokenFile is a path to a file containing the access
	// token. Takes precedence over AccessToken when both are set.
	AccessTokenFile string `yaml:"access_token_file"`

	// RoomID is the room chatpane relays in, e.g. "!abc:example.org".
	RoomID string `yaml:"room_id"`

	// AllowedSender restricts which user ID chatpane accepts commands
	// from. Events from any other sender are dropped without a reply.
	// Empty means accept every sender in the room except chatpane
	// itself.
	AllowedSender string `yaml:"allowed_sender"`
}

// DefaultsConfig configures fallback routing behavior.
type DefaultsConfig struct {
	// Session is the session assumed when a quick-action button
	// carries no session of its own. It never influences how typed
	// commands are routed. Empty means such presses go through normal
	// target resolution.
	// Default: claude
	Session string `yaml:"session"`
}

// TmuxConfig configures which tmux server to watch.
type TmuxConfig struct {
	// SocketPath selects the tmux server. Empty targets the default
	// server, the one a bare "tmux" command talks to.
	SocketPath string `yaml:"socket_path"`

	// ConfigFile is passed to tmux via -f if a new session is ever
	// created. Empty uses tmux's default config resolution.
	ConfigFile string `yaml:"config_file"`
}

// PickerConfig configures session selection prompts.
type PickerConfig struct {
	// Timeout is how long a selection prompt stays valid, as a Go
	// duration string. Presses after the deadline are rejected.
	// Default: 60s
	Timeout string `yaml:"timeout"`
}

// Duration parses the picker timeout. Call Validate first; this
// panics on malformed input because Validate has already rejected it.
func (p PickerConfig) Duration() time.Duration {
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		panic(fmt.Sprintf("picker.timeout %q not validated: %v", p.Timeout, err))
	}
	return d
}

// LimitsConfig configures output truncation budgets.
type LimitsConfig struct {
	// CaptureLines is how many trailing pane lines a capture keeps.
	// Default: 50
	CaptureLines int `yaml:"capture_lines"`

	// CaptureChars is the character budget for relayed pane captures.
	// Older text beyond the budget is elided from the front.
	// Default: 2500
	CaptureChars int `yaml:"capture_chars"`

	// SummaryChars is the character budget for notification summaries.
	// Default: 400
	SummaryChars int `yaml:"summary_chars"`

	// StatusLineChars is the character budget for the single-line
	// activity excerpt in status listings.
	// Default: 80
	StatusLineChars int `yaml:"status_line_chars"`
}

// HooksConfig configures the local hook event socket.
type HooksConfig struct {
	// SocketPath is the Unix socket chatpane listens on for hook
	// events from chatpane-notify.
	// Default: /tmp/chatpane-hooks.sock
	SocketPath string `yaml:"socket_path"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. They exist primarily to
// ensure all fields have sensible zero-values, not as a fallback —
// the config file is required.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Enabled: false,
		},
		Defaults: DefaultsConfig{
			Session: "claude",
		},
		Tmux: TmuxConfig{
			SocketPath: "",
			ConfigFile: "",
		},
		Picker: PickerConfig{
			Timeout: "60s",
		},
		Limits: LimitsConfig{
			CaptureLines:    50,
			CaptureChars:    2500,
			SummaryChars:    400,
			StatusLineChars: 80,
		},
		Hooks: HooksConfig{
			SocketPath: "/tmp/chatpane-hooks.sock",
		},
	}
}

// Load loads configuration from the CHATPANE_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks or defaults — if CHATPANE_CONFIG is
// not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("CHATPANE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("CHATPANE_CONFIG environment variable not set; " +
			"set it to the path of your chatpane.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values. The only expansion
// performed is ${HOME} and similar variables in paths for
// portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()

	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// path-valued fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Transport.AccessTokenFile = expandVars(c.Transport.AccessTokenFile, vars)
	c.Tmux.SocketPath = expandVars(c.Tmux.SocketPath, vars)
	c.Tmux.ConfigFile = expandVars(c.Tmux.ConfigFile, vars)
	c.Hooks.SocketPath = expandVars(c.Hooks.SocketPath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// ResolveAccessToken returns the Matrix access token, reading
// AccessTokenFile when set. The file contents are trimmed of
// surrounding whitespace so a trailing newline doesn't corrupt the
// Authorization header.
func (c *Config) ResolveAccessToken() (string, error) {
	if c.Transport.AccessTokenFile != "" {
		data, err := os.ReadFile(c.Transport.AccessTokenFile)
		if err != nil {
			return "", fmt.Errorf("reading access token file: %w", err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("access token file %s is empty", c.Transport.AccessTokenFile)
		}
		return token, nil
	}
	if c.Transport.AccessToken != "" {
		return c.Transport.AccessToken, nil
	}
	return "", fmt.Errorf("no access token configured: set transport.access_token or transport.access_token_file")
}

// Validate checks the configuration for errors. All problems are
// reported at once via errors.Join so the operator fixes the file in
// one pass.
func (c *Config) Validate() error {
	var errs []error

	if c.Transport.Enabled {
		if c.Transport.HomeserverURL == "" {
			errs = append(errs, fmt.Errorf("transport.homeserver_url is required when transport is enabled"))
		}
		if c.Transport.AccessToken == "" && c.Transport.AccessTokenFile == "" {
			errs = append(errs, fmt.Errorf("transport.access_token or transport.access_token_file is required when transport is enabled"))
		}
		if c.Transport.RoomID == "" {
			errs = append(errs, fmt.Errorf("transport.room_id is required when transport is enabled"))
		}
	}

	if _, err := time.ParseDuration(c.Picker.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("picker.timeout %q: %w", c.Picker.Timeout, err))
	}

	if c.Limits.CaptureLines <= 0 {
		errs = append(errs, fmt.Errorf("limits.capture_lines must be positive"))
	}
	if c.Limits.CaptureChars <= 0 {
		errs = append(errs, fmt.Errorf("limits.capture_chars must be positive"))
	}
	if c.Limits.SummaryChars <= 0 {
		errs = append(errs, fmt.Errorf("limits.summary_chars must be positive"))
	}
	if c.Limits.StatusLineChars <= 0 {
		errs = append(errs, fmt.Errorf("limits.status_line_chars must be positive"))
	}

	if c.Hooks.SocketPath == "" {
		errs = append(errs, fmt.Errorf("hooks.socket_path is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

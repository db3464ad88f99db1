// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatpane.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	// Defaults with transport disabled must pass validation: the
	// binary reports "transport disabled" itself rather than failing
	// with a confusing missing-URL error.
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
transport:
  enabled: true
  homeserver_url: https://matrix.example.org
  access_token: syt_secret
  room_id: "!room:example.org"
  allowed_sender: "@alice:example.org"
defaults:
  session: worker
picker:
  timeout: 90s
limits:
  capture_chars: 1000
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Defaults.Session != "worker" {
		t.Errorf("defaults.session = %q, want worker", cfg.Defaults.Session)
	}
	if got := cfg.Picker.Duration(); got != 90*time.Second {
		t.Errorf("picker timeout = %v, want 90s", got)
	}
	if cfg.Limits.CaptureChars != 1000 {
		t.Errorf("capture_chars = %d, want 1000", cfg.Limits.CaptureChars)
	}
	// Unset fields keep their defaults.
	if cfg.Limits.CaptureLines != 50 {
		t.Errorf("capture_lines = %d, want default 50", cfg.Limits.CaptureLines)
	}
	if cfg.Limits.StatusLineChars != 80 {
		t.Errorf("status_line_chars = %d, want default 80", cfg.Limits.StatusLineChars)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Transport.Enabled = true
	cfg.Picker.Timeout = "not-a-duration"
	cfg.Limits.CaptureChars = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	message := err.Error()
	for _, want := range []string{
		"transport.homeserver_url",
		"transport.access_token",
		"transport.room_id",
		"picker.timeout",
		"limits.capture_chars",
	} {
		if !strings.Contains(message, want) {
			t.Errorf("validation error missing %q: %v", want, message)
		}
	}
}

func TestValidateAllowsEmptyDefaultSession(t *testing.T) {
	// defaults.session is a fallback for sessionless quick-action
	// buttons, not a routing preference; leaving it empty is valid.
	cfg := Default()
	cfg.Defaults.Session = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty defaults.session should validate: %v", err)
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("CHATPANE_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when CHATPANE_CONFIG is unset")
	}
}

func TestLoadUsesEnvVar(t *testing.T) {
	path := writeConfig(t, "defaults:\n  session: via-env\n")
	t.Setenv("CHATPANE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.Session != "via-env" {
		t.Errorf("defaults.session = %q, want via-env", cfg.Defaults.Session)
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	path := writeConfig(t, `
tmux:
  socket_path: ${HOME}/.tmux/chatpane.sock
hooks:
  socket_path: ${CHATPANE_RUN:-/run/chatpane}/hooks.sock
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Tmux.SocketPath != "/home/alice/.tmux/chatpane.sock" {
		t.Errorf("tmux.socket_path = %q", cfg.Tmux.SocketPath)
	}
	if cfg.Hooks.SocketPath != "/run/chatpane/hooks.sock" {
		t.Errorf("hooks.socket_path = %q", cfg.Hooks.SocketPath)
	}
}

func TestResolveAccessTokenPrefersFile(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenPath, []byte("syt_from_file\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	cfg := Default()
	cfg.Transport.AccessToken = "syt_inline"
	cfg.Transport.AccessTokenFile = tokenPath

	token, err := cfg.ResolveAccessToken()
	if err != nil {
		t.Fatalf("ResolveAccessToken: %v", err)
	}
	if token != "syt_from_file" {
		t.Errorf("token = %q, want syt_from_file (trimmed)", token)
	}
}

func TestResolveAccessTokenMissing(t *testing.T) {
	if _, err := Default().ResolveAccessToken(); err == nil {
		t.Fatal("expected error with no token configured")
	}
}

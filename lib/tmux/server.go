// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package tmux provides a typed interface to tmux servers. Chatpane
// watches sessions on the tmux server where the user's interactive
// processes actually run — by default the user's own server, or a
// dedicated one when a socket path is configured.
//
// The central type is Server, which represents a connection to a tmux
// server identified by its Unix socket path. All tmux commands go
// through Server, which injects the -S flag automatically when a
// socket path is set. This makes it structurally impossible to target
// one server for probing and a different one for keystroke injection.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrSessionNotFound reports that a tmux command targeted a session
// that does not exist on the server. Callers that race against session
// exit (the session can die between a probe and the command) should
// test for this with errors.Is.
var ErrSessionNotFound = errors.New("tmux session not found")

// SessionInfo describes one session on a tmux server.
type SessionInfo struct {
	// Name is the tmux session name.
	Name string
	// CreatedAt is when the session was created, from
	// #{session_created} (Unix seconds).
	CreatedAt time.Time
}

// Server represents a tmux server identified by its Unix socket path.
// An empty socket path targets the default server — the one a bare
// "tmux" command would talk to. All operations on a Server go to that
// one server.
type Server struct {
	socketPath string
	configFile string // passed as "-f <path>" on new-session; empty = tmux default
}

// NewServer returns a Server that targets the given socket path. An
// empty socketPath targets the default tmux server.
//
// configFile controls which configuration file tmux loads when the
// server starts (which happens on the first new-session call). Pass
// "/dev/null" to prevent loading the user's ~/.tmux.conf — required
// for all tests. If configFile is empty, tmux uses its default config
// resolution.
func NewServer(socketPath, configFile string) *Server {
	return &Server{
		socketPath: socketPath,
		configFile: configFile,
	}
}

// SocketPath returns the Unix socket path that identifies this server.
// Empty means the default server.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// baseArgs returns the argument prefix selecting this server. Empty
// when the Server targets the default socket.
func (s *Server) baseArgs() []string {
	if s.socketPath == "" {
		return nil
	}
	return []string{"-S", s.socketPath}
}

// ListSessions returns the sessions on this server, in tmux's own
// order. A server that is not running has no sessions: that case
// returns an empty slice and nil error, not a failure, because "the
// user has no tmux running" is a normal state for chatpane to observe.
func (s *Server) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	output, err := s.Run(ctx, "list-sessions", "-F", "#{session_created} #{session_name}")
	if err != nil {
		if strings.Contains(err.Error(), "no server running") ||
			strings.Contains(err.Error(), "No such file or directory") {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionInfo
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if line == "" {
			continue
		}
		created, name, found := strings.Cut(line, " ")
		if !found {
			return nil, fmt.Errorf("malformed list-sessions line %q", line)
		}
		createdUnix, parseErr := strconv.ParseInt(created, 10, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing session_created %q: %w", created, parseErr)
		}
		sessions = append(sessions, SessionInfo{
			Name:      name,
			CreatedAt: time.Unix(createdUnix, 0).UTC(),
		})
	}
	return sessions, nil
}

// SendText types text into the named session's active pane and presses
// Enter. The text is sent literally (-l) so tmux does not interpret
// key names like "Enter" or "C-c" inside it; the newline is a separate
// send-keys call, which is the only way to get a literal payload
// followed by a keypress.
//
// Either both keystroke batches reach the pane or an error is
// returned before the Enter is sent. A session that disappears between
// the two calls returns ErrSessionNotFound from the second.
func (s *Server) SendText(ctx context.Context, sessionName, text string) error {
	if _, err := s.Run(ctx, "send-keys", "-t", sessionName, "-l", text); err != nil {
		return err
	}
	if _, err := s.Run(ctx, "send-keys", "-t", sessionName, "Enter"); err != nil {
		return err
	}
	return nil
}

// CapturePane captures the visible content and scrollback of the
// named session's active pane. maxLines limits the output to the last
// N non-blank lines, so the limit bounds meaningful content rather
// than the blank padding tmux appends below the cursor; pass 0 for no
// limit (raw output, blanks included).
func (s *Server) CapturePane(ctx context.Context, sessionName string, maxLines int) (string, error) {
	output, err := s.Run(ctx, "capture-pane", "-t", sessionName, "-p", "-S", "-", "-E", "-")
	if err != nil {
		return "", err
	}

	if maxLines <= 0 {
		return output, nil
	}

	return tailString(output, maxLines), nil
}

// HasSession reports whether a session with the given name exists on
// this server. Returns false if the server is not running.
func (s *Server) HasSession(sessionName string) bool {
	args := append(s.baseArgs(), "has-session", "-t", sessionName)
	cmd := exec.Command("tmux", args...)
	return cmd.Run() == nil
}

// NewSession creates a detached tmux session on this server. If
// command is non-empty, the session runs that command instead of the
// default shell.
//
// The -f flag (config file) is passed on new-session because this
// command may start the server if it isn't already running. Once the
// server is running, subsequent commands don't re-read the config
// file, so only new-session needs it.
func (s *Server) NewSession(sessionName string, command ...string) error {
	var args []string
	if s.configFile != "" {
		args = append(args, "-f", s.configFile)
	}
	args = append(args, s.baseArgs()...)
	args = append(args, "new-session", "-d", "-s", sessionName)
	args = append(args, command...)
	cmd := exec.Command("tmux", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux new-session %q: %w (%s)",
			sessionName, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// KillSession terminates a specific session. Returns nil if the
// session was already gone or the server was not running — these are
// normal conditions during cleanup, not errors.
func (s *Server) KillSession(sessionName string) error {
	args := append(s.baseArgs(), "kill-session", "-t", sessionName)
	cmd := exec.Command("tmux", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputString := strings.TrimSpace(string(output))
		if strings.Contains(outputString, "can't find session") ||
			strings.Contains(outputString, "no server running") {
			return nil
		}
		return fmt.Errorf("tmux kill-session %q: %w (%s)",
			sessionName, err, outputString)
	}
	return nil
}

// KillServer terminates the entire tmux server, stopping all sessions.
// Returns nil if the server was already stopped.
func (s *Server) KillServer() error {
	args := append(s.baseArgs(), "kill-server")
	cmd := exec.Command("tmux", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputString := strings.TrimSpace(string(output))
		// "server exited unexpectedly" appears when the socket file
		// lingers briefly after the server process has exited.
		if strings.Contains(outputString, "no server running") ||
			strings.Contains(outputString, "server exited unexpectedly") {
			return nil
		}
		return fmt.Errorf("tmux kill-server: %w (%s)", err, outputString)
	}
	return nil
}

// SetOption sets a tmux option on this server. If sessionName is
// empty, the option is set globally (-g) and applies to all sessions.
func (s *Server) SetOption(sessionName, key, value string) error {
	args := s.baseArgs()
	if sessionName == "" {
		args = append(args, "set-option", "-g", key, value)
	} else {
		args = append(args, "set-option", "-t", sessionName, key, value)
	}
	cmd := exec.Command("tmux", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux set-option %q=%q (session %q): %w (%s)",
			key, value, sessionName, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Run executes an arbitrary tmux subcommand on this server and returns
// the combined output. This is the escape hatch for commands that
// don't have a dedicated method.
//
// The socket flag is automatically prepended. A "can't find session"
// failure is reported as an error wrapping ErrSessionNotFound.
func (s *Server) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append(s.baseArgs(), args...)
	cmd := exec.CommandContext(ctx, "tmux", fullArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputString := strings.TrimSpace(string(output))
		if strings.Contains(outputString, "can't find session") ||
			strings.Contains(outputString, "session not found") {
			return "", fmt.Errorf("tmux %s: %w (%s)",
				strings.Join(args, " "), ErrSessionNotFound, outputString)
		}
		return "", fmt.Errorf("tmux %s: %w (%s)",
			strings.Join(args, " "), err, outputString)
	}
	return string(output), nil
}

// tailString returns the last n non-blank lines of s, newline
// terminated. Blank lines are dropped before counting so n bounds
// meaningful content: tmux pads the visible screen with trailing blank
// lines, and a mostly-empty screen must not spend the whole budget on
// padding. Returns "" when s holds no non-blank line.
func tailString(s string, n int) string {
	var kept []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n") + "\n"
}

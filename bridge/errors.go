// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyMessage reports that a chat message contained no usable text
// after prefix stripping. The sender gets a short reply instead of an
// empty keystroke injection.
var ErrEmptyMessage = errors.New("message is empty")

// ErrNoActiveSession reports that a command needed a target session
// but no session is active on the tmux server.
var ErrNoActiveSession = errors.New("no active session")

// ErrSelectionNotFound reports a button press against a selection that
// no longer exists: already resolved, or never issued by this process.
var ErrSelectionNotFound = errors.New("selection not found")

// ErrSelectionExpired reports a button press after the selection's
// deadline.
var ErrSelectionExpired = errors.New("selection expired")

// ErrSelectionSuperseded reports a button press against a selection
// that was replaced by a newer prompt for the same sender. The press
// is dropped without a reply — the user has already moved on.
var ErrSelectionSuperseded = errors.New("selection superseded")

// SessionNotFoundError reports that a command named a session that
// does not exist on the tmux server.
type SessionNotFoundError struct {
	Name string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %q not found", e.Name)
}

// AmbiguousTargetError reports that a command named no session while
// several are active and none is the configured default. The caller
// resolves this by opening a selection prompt.
type AmbiguousTargetError struct {
	Candidates []string
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("multiple active sessions: %s", strings.Join(e.Candidates, ", "))
}

// BackendUnreachableError reports that the tmux server could not be
// probed. The registry serves its last snapshot, marked stale, while
// this condition persists.
type BackendUnreachableError struct {
	Err error
}

func (e *BackendUnreachableError) Error() string {
	return fmt.Sprintf("tmux server unreachable: %v", e.Err)
}

func (e *BackendUnreachableError) Unwrap() error {
	return e.Err
}

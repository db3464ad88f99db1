// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"time"
)

// HostSession describes one interactive session on the backend.
type HostSession struct {
	// Name is the session's unique name on the backend.
	Name string

	// CreatedAt is when the session was created. Listings sort by
	// this so session ordering is stable across refreshes.
	CreatedAt time.Time
}

// Host is the backend holding the interactive sessions chatpane
// relays to. The production implementation wraps a tmux server; tests
// substitute an in-memory fake.
type Host interface {
	// Sessions enumerates the live sessions. An empty slice with nil
	// error means the backend is reachable but idle; an error means
	// the backend itself could not be probed.
	Sessions(ctx context.Context) ([]HostSession, error)

	// SendText types text into the named session followed by a
	// newline. Returns a *SessionNotFoundError if the session
	// disappeared.
	SendText(ctx context.Context, session, text string) error

	// Capture returns the trailing maxLines lines of the named
	// session's terminal content.
	Capture(ctx context.Context, session string, maxLines int) (string, error)
}

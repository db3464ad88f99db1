// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package hookipc carries hook events from processes running inside
// tmux sessions to the chatpane daemon.
//
// The wire protocol is a stream of deterministic CBOR frames over a
// Unix domain socket. The sender (chatpane-notify, invoked by the
// hosted process's hook scripts) connects, writes one Event frame,
// and closes. The daemon side accepts connections and surfaces the
// decoded events on a channel.
package hookipc

import (
	"fmt"
	"time"
)

// Event types. These name what happened inside the session, not what
// chatpane should do about it.
const (
	// EventTaskCompleted reports that the hosted process finished a
	// unit of work and is idle.
	EventTaskCompleted = "task-completed"

	// EventPermissionRequested reports that the hosted process is
	// blocked waiting for a yes/no approval.
	EventPermissionRequested = "permission-requested"
)

// Event is one hook notification from a hosted process.
type Event struct {
	// Session is the tmux session name the event originates from.
	Session string `cbor:"session"`

	// Type is one of the Event* constants.
	Type string `cbor:"type"`

	// Summary is a short human-readable description of what happened,
	// e.g. the task that finished or the permission being requested.
	Summary string `cbor:"summary,omitempty"`

	// Capture is an optional pane excerpt the sender attached. When
	// empty, the daemon captures the pane itself.
	Capture string `cbor:"capture,omitempty"`

	// Timestamp is when the hook fired, in the sender's clock.
	Timestamp time.Time `cbor:"timestamp"`
}

// Validate checks that the event is well-formed enough to route.
func (e *Event) Validate() error {
	if e.Session == "" {
		return fmt.Errorf("hook event has no session")
	}
	switch e.Type {
	case EventTaskCompleted, EventPermissionRequested:
	default:
		return fmt.Errorf("unknown hook event type %q", e.Type)
	}
	return nil
}

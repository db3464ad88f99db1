// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "context"

// Callback payload kinds.
const (
	// KindSelection resolves a pending session selection prompt.
	KindSelection = "selection"

	// KindCommand runs a quick action against a specific session
	// (approve, deny, status) straight from a notification or menu.
	KindCommand = "command"
)

// Callback action verbs.
const (
	ActionPick     = "pick"
	ActionApprove  = "approve"
	ActionDeny     = "deny"
	ActionStatus   = "status"
	ActionSessions = "sessions"
	ActionMenu     = "menu"
)

// CallbackPayload is the deterministic CBOR payload attached to a
// button. The transport carries it opaquely; a press echoes the exact
// bytes back, so the same logical payload always round-trips
// byte-for-byte.
type CallbackPayload struct {
	// Kind is KindSelection or KindCommand.
	Kind string `cbor:"kind"`

	// SelectionID identifies the selection prompt this button belongs
	// to. Set only for KindSelection.
	SelectionID string `cbor:"selection_id,omitempty"`

	// Session is the session the button acts on.
	Session string `cbor:"session,omitempty"`

	// Action is one of the Action* verbs.
	Action string `cbor:"action"`
}

// Action is one tappable affordance offered on an outbound message.
type Action struct {
	// Label is the button text shown to the user.
	Label string

	// Payload is echoed back verbatim when the button is pressed.
	Payload CallbackPayload
}

// OutboundMessage is a message the bridge sends to the chat endpoint.
type OutboundMessage struct {
	// Body is the plain text, always present. Clients that can't
	// render Actions show only this.
	Body string

	// Actions are optional buttons attached to the message.
	Actions []Action

	// Notice marks machine-originated output (notifications,
	// confirmations) so other bots in the room don't react to it.
	Notice bool
}

// InboundEvent is a message the bridge receives from the chat
// endpoint.
type InboundEvent struct {
	// SenderID identifies the sender, e.g. "@alice:example.org".
	SenderID string

	// Text is the message body.
	Text string

	// Callback is the decoded payload of a pressed button, nil for
	// ordinary text messages.
	Callback *CallbackPayload
}

// Transport is the chat endpoint connection. The production
// implementation is MatrixTransport; tests substitute a channel-backed
// fake.
type Transport interface {
	// Start connects and anchors the inbound stream. Only events
	// arriving after Start are delivered.
	Start(ctx context.Context) error

	// Next blocks until the next inbound event arrives. The relay's
	// own outbound messages are never delivered back through Next.
	Next(ctx context.Context) (InboundEvent, error)

	// Send delivers a message to the chat endpoint.
	Send(ctx context.Context, message OutboundMessage) error
}

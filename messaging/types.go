// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "encoding/json"

// MessageContent is the content body of a Matrix message event
// (m.room.message).
//
// Actions and Callback are chatpane's extension keys. Actions attaches
// tappable affordances to an outbound message; a client that supports
// them renders buttons, one that doesn't shows only Body. Callback is
// set on inbound messages produced by a button press: it carries the
// exact payload of the pressed Action, and Body carries the button's
// label as fallback text.
type MessageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`

	// Actions are the affordances offered with this message.
	Actions []Action `json:"io.chatpane.actions,omitempty"`

	// Callback is the base64-encoded payload of a pressed action.
	Callback string `json:"io.chatpane.callback,omitempty"`
}

// Action is one tappable affordance on an outbound message.
type Action struct {
	// Label is the button text shown to the user.
	Label string `json:"label"`

	// Callback is the opaque base64-encoded payload the client echoes
	// back in MessageContent.Callback when the button is pressed.
	Callback string `json:"callback"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewNoticeMessage creates an m.notice message. Notices are for
// machine-originated output; well-behaved bots don't react to each
// other's notices, which keeps two relays in one room from looping.
func NewNoticeMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.notice",
		Body:    body,
	}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        string          `json:"event_id"`
	Type           string          `json:"type"`
	Sender         string          `json:"sender"`
	OriginServerTS int64           `json:"origin_server_ts"`
	Content        json.RawMessage `json:"content"`
	RoomID         string          `json:"room_id,omitempty"`
}

// MessageContent decodes the event's content as MessageContent.
// Returns false when the event is not an m.room.message or the
// content doesn't parse.
func (e *Event) MessageContent() (MessageContent, bool) {
	if e.Type != "m.room.message" {
		return MessageContent{}, false
	}
	var content MessageContent
	if err := json.Unmarshal(e.Content, &content); err != nil {
		return MessageContent{}, false
	}
	return content, true
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data grouped by membership
// state. Map keys are room IDs.
type RoomsSection struct {
	Join map[string]JoinedRoom `json:"join,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// SendEventResponse is returned by SendMessage.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

// ServerVersionsResponse is returned by Client.ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// buildInlineFilter constructs the inline JSON filter string for
// /sync. The filter scopes to the given room, restricts the timeline
// to m.room.message events, and suppresses presence and account data
// the relay never reads.
func buildInlineFilter(roomID string) string {
	top := map[string]any{
		"room": map[string]any{
			"rooms": []string{roomID},
			"timeline": map[string]any{
				"types": []string{"m.room.message"},
			},
			"state": map[string]any{
				"types": []string{},
			},
		},
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}

	data, _ := json.Marshal(top)
	return string(data)
}

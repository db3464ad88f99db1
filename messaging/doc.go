// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is chatpane's Matrix client.
//
// It implements the small slice of the client-server API the relay
// needs: token authentication ([Client.SessionFromToken], validated
// via [Session.WhoAmI]), idempotent message sends, and /sync
// long-polling scoped to a single room via an inline filter.
//
// [Gateway] is the room-level surface the bridge consumes: it anchors
// a position in the /sync stream, long-polls for new messages, and
// sends replies. Interactive affordances ride on ordinary
// m.room.message events under the io.chatpane.actions content key;
// button presses come back as messages carrying io.chatpane.callback.
// Clients that don't understand those keys still render the plain
// text body, so the room degrades gracefully.
package messaging

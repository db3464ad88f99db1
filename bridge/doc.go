// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge is the core of chatpane: it relays between a chat
// room and the interactive processes running in tmux sessions on the
// local machine.
//
// Inbound, chat messages are routed ([Route]) into commands — status
// queries, session listings, approvals, or raw text to type into a
// pane — and executed by the [Dispatcher] against a [Host] backend.
// When a command needs a target and several sessions are active, the
// [Picker] asks the sender to choose before anything is injected.
//
// Outbound, hook events from the hosted processes (task completions,
// permission requests) become chat notifications with tappable quick
// actions, rendered by the [Formatter].
//
// The [Supervisor] owns the event loop: it multiplexes the transport
// and the hook socket into per-sender FIFO queues, so one sender's
// commands always execute in the order they were sent.
//
// [Transport] and [Host] are the two seams to the outside world. The
// production wiring is [MatrixTransport] over a messaging.Gateway and
// [TmuxHost] over a tmux server; tests substitute in-memory fakes.
package bridge

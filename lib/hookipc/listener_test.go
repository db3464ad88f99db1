// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package hookipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chatpane/chatpane/lib/testutil"
)

func startListener(t *testing.T) *Listener {
	t.Helper()
	listener := &Listener{
		SocketPath: filepath.Join(testutil.SocketDir(t), "hooks.sock"),
	}
	if err := listener.Start(context.Background()); err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	t.Cleanup(listener.Stop)
	return listener
}

func TestSendRoundTrip(t *testing.T) {
	listener := startListener(t)

	sent := Event{
		Session:   "claude",
		Type:      EventPermissionRequested,
		Summary:   "Bash(rm -rf ./build)",
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	if err := Send(context.Background(), listener.SocketPath, sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	received := testutil.RequireReceive(t, listener.Events(), 5*time.Second, "waiting for hook event")
	if received.Session != sent.Session {
		t.Errorf("session = %q, want %q", received.Session, sent.Session)
	}
	if received.Type != sent.Type {
		t.Errorf("type = %q, want %q", received.Type, sent.Type)
	}
	if received.Summary != sent.Summary {
		t.Errorf("summary = %q, want %q", received.Summary, sent.Summary)
	}
	if !received.Timestamp.Equal(sent.Timestamp) {
		t.Errorf("timestamp = %v, want %v", received.Timestamp, sent.Timestamp)
	}
}

func TestSendRejectsInvalidEvent(t *testing.T) {
	listener := startListener(t)

	err := Send(context.Background(), listener.SocketPath, Event{
		Session: "claude",
		Type:    "made-up-type",
	})
	if err == nil {
		t.Fatal("expected validation error for unknown event type")
	}
}

func TestListenerDropsMalformedFrames(t *testing.T) {
	listener := startListener(t)

	// Write garbage bytes directly; the listener must survive and keep
	// serving subsequent well-formed events.
	connection, err := net.Dial("unix", listener.SocketPath)
	if err != nil {
		t.Fatalf("dialing: %v", err)
	}
	if _, err := connection.Write([]byte("not cbor at all")); err != nil {
		t.Fatalf("writing garbage: %v", err)
	}
	connection.Close()

	good := Event{
		Session:   "claude",
		Type:      EventTaskCompleted,
		Summary:   "build finished",
		Timestamp: time.Now(),
	}
	if err := Send(context.Background(), listener.SocketPath, good); err != nil {
		t.Fatalf("Send after garbage: %v", err)
	}

	received := testutil.RequireReceive(t, listener.Events(), 5*time.Second, "waiting for event after garbage")
	if received.Type != EventTaskCompleted {
		t.Errorf("type = %q, want %q", received.Type, EventTaskCompleted)
	}
}

func TestStopClosesEventsChannel(t *testing.T) {
	listener := &Listener{
		SocketPath: filepath.Join(testutil.SocketDir(t), "hooks.sock"),
	}
	if err := listener.Start(context.Background()); err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	events := listener.Events()
	listener.Stop()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("unexpected event after Stop")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed after Stop")
	}
}

func TestStartRemovesStaleSocket(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "hooks.sock")

	// Simulate the leftovers of a crashed daemon: a file already
	// occupies the socket path.
	if err := os.WriteFile(socketPath, nil, 0o600); err != nil {
		t.Fatalf("planting stale socket file: %v", err)
	}

	listener := &Listener{SocketPath: socketPath}
	if err := listener.Start(context.Background()); err != nil {
		t.Fatalf("start over stale socket: %v", err)
	}
	listener.Stop()
}

// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package hookipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/chatpane/chatpane/lib/codec"
)

// Listener accepts hook event connections on a Unix socket and
// surfaces decoded events on a channel.
type Listener struct {
	// SocketPath is the Unix socket path to listen on. A stale socket
	// file from a previous run is removed before binding.
	SocketPath string

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-connection events are logged at Debug level;
	// malformed frames at Warn.
	Logger *slog.Logger

	listener    net.Listener
	events      chan Event
	cancel      context.CancelFunc
	done        chan struct{}
	connections sync.WaitGroup
}

// logger returns the configured logger or the default.
func (l *Listener) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Events returns the channel decoded hook events arrive on. The
// channel is closed after Stop once all in-flight connections have
// drained.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Start binds the socket and begins accepting connections. It returns
// once the listener is bound, or an error if binding fails. The
// listener runs in the background until Stop is called or the context
// is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	if l.SocketPath == "" {
		return fmt.Errorf("hookipc: SocketPath is required")
	}

	// A crashed daemon leaves the socket file behind. Remove it so the
	// bind succeeds; a second live daemon on the same path is an
	// operator error this cannot detect.
	if err := os.Remove(l.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("hookipc: removing stale socket %s: %w", l.SocketPath, err)
	}

	listener, err := net.Listen("unix", l.SocketPath)
	if err != nil {
		return fmt.Errorf("hookipc: failed to listen on %s: %w", l.SocketPath, err)
	}

	l.listener = listener
	l.events = make(chan Event, 16)

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		l.acceptLoop(ctx)
	}()

	l.logger().Info("hook listener started", "socket_path", l.SocketPath)
	return nil
}

// Stop shuts down the listener, closing the socket and waiting for
// in-flight connections to drain. The events channel is closed after
// the last event has been delivered.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	if l.listener != nil {
		l.listener.Close()
	}
	if l.done != nil {
		<-l.done
	}
	_ = os.Remove(l.SocketPath)
}

// acceptLoop accepts connections until the context is cancelled. It
// waits for all in-flight connection goroutines before closing the
// events channel, so consumers see every delivered event.
func (l *Listener) acceptLoop(ctx context.Context) {
	var connectionCount int64

	for {
		connection, err := l.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				l.connections.Wait()
				close(l.events)
				return
			default:
				l.logger().Error("accept failed", "error", err)
				continue
			}
		}

		connectionCount++
		connectionID := connectionCount
		l.connections.Add(1)
		go func() {
			defer l.connections.Done()
			l.handleConnection(ctx, connection, connectionID)
		}()
	}
}

// handleConnection decodes CBOR event frames from one connection until
// EOF. A sender normally writes one frame and closes, but multiple
// frames per connection are accepted.
func (l *Listener) handleConnection(ctx context.Context, connection net.Conn, connectionID int64) {
	defer connection.Close()

	logger := l.logger().With("connection_id", connectionID)
	logger.Debug("hook connection accepted")

	decoder := codec.NewDecoder(connection)
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("malformed hook frame", "error", err)
			}
			return
		}
		if err := event.Validate(); err != nil {
			logger.Warn("rejected hook event", "error", err)
			continue
		}

		select {
		case l.events <- event:
			logger.Debug("hook event received",
				"session", event.Session,
				"type", event.Type,
			)
		case <-ctx.Done():
			return
		}
	}
}

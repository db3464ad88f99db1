// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"log/slog"
)

// maxSyncRetries is the number of consecutive /sync failures allowed
// before Next returns an error. Each retry uses a 1-second server-side
// timeout so the HTTP round-trip itself provides backoff.
const maxSyncRetries = 5

// longPollTimeout is the server-side long-poll hold time in
// milliseconds for normal /sync calls. The server holds the
// connection for up to this duration, returning immediately when new
// events arrive. 30 seconds matches the Matrix client-server spec
// recommendation.
const longPollTimeout = 30000

// retryTimeout is the server-side timeout in milliseconds used after
// a /sync error. Short so the retry completes quickly and the next
// attempt can proceed.
const retryTimeout = 1000

// Gateway is chatpane's connection to one Matrix room. It holds a
// position in the /sync stream and delivers the room's message events
// in order, skipping the relay's own messages.
//
// Gateway is not safe for concurrent use by multiple goroutines. The
// supervisor owns it: one goroutine calls Next in a loop, and sends go
// through the same goroutine's Send calls. Session.Sync is stateless
// (the since token travels as a query parameter), so the gateway's
// position lives entirely client-side.
type Gateway struct {
	session *Session
	roomID  string
	logger  *slog.Logger

	filter    string  // inline JSON /sync filter scoped to the room
	nextBatch string  // sync token at the current position
	pending   []Event // events received but not yet consumed
}

// NewGateway creates a gateway for the given room on an authenticated
// session. Call Start before Next.
func NewGateway(session *Session, roomID string, logger *slog.Logger) (*Gateway, error) {
	if roomID == "" {
		return nil, fmt.Errorf("messaging: gateway requires a room ID")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		session: session,
		roomID:  roomID,
		logger:  logger,
		filter:  buildInlineFilter(roomID),
	}, nil
}

// Start validates the session and anchors the gateway at the current
// position in the /sync stream. Only events arriving after this call
// are delivered by Next — history from before the relay started is
// never replayed into tmux sessions.
func (g *Gateway) Start(ctx context.Context) error {
	userID, err := g.session.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("messaging: validating session: %w", err)
	}

	response, err := g.session.Sync(ctx, SyncOptions{
		SetTimeout: true,
		Timeout:    0,
		Filter:     g.filter,
	})
	if err != nil {
		return fmt.Errorf("messaging: anchoring sync position: %w", err)
	}
	g.nextBatch = response.NextBatch

	g.logger.Info("gateway started",
		"user_id", userID,
		"room_id", g.roomID,
	)
	return nil
}

// UserID returns the authenticated user ID. Valid after Start.
func (g *Gateway) UserID() string {
	return g.session.UserID()
}

// Next blocks until a message event from another sender arrives in the
// room. Events are buffered: when a /sync response delivers multiple
// events, the extras are stored and returned by subsequent Next calls
// without another HTTP round-trip.
//
// Uses a 30-second server-side long-poll hold, bounded by ctx. On
// transient /sync errors, retries up to 5 times with a 1-second server
// timeout, dropping idle HTTP connections so the next attempt opens a
// fresh socket.
func (g *Gateway) Next(ctx context.Context) (Event, error) {
	if event, ok := g.takePending(); ok {
		return event, nil
	}

	var syncRetries int
	for {
		syncTimeout := longPollTimeout
		if syncRetries > 0 {
			syncTimeout = retryTimeout
		}
		response, err := g.session.Sync(ctx, SyncOptions{
			Since:      g.nextBatch,
			SetTimeout: true,
			Timeout:    syncTimeout,
			Filter:     g.filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return Event{}, fmt.Errorf("context cancelled waiting for messages in room %s: %w", g.roomID, ctx.Err())
			}
			syncRetries++
			// TCP-level errors (connection reset, EOF) often indicate
			// a poisoned connection in Go's HTTP pool. Drop idle
			// connections so the next attempt opens a fresh socket.
			g.session.CloseIdleConnections()
			if syncRetries > maxSyncRetries {
				return Event{}, fmt.Errorf("sync failed %d consecutive times in room %s: %w",
					syncRetries, g.roomID, err)
			}
			g.logger.Debug("gateway sync error, retrying",
				"room_id", g.roomID,
				"attempt", syncRetries,
				"max_attempts", maxSyncRetries,
				"error", err,
			)
			continue
		}
		syncRetries = 0
		g.nextBatch = response.NextBatch

		joined, ok := response.Rooms.Join[g.roomID]
		if !ok {
			// The server returned early without activity in the watched
			// room. Nothing to scan — continue polling.
			continue
		}
		if len(joined.Timeline.Events) == 0 {
			continue
		}

		// Self-sent events (confirmations, notifications) come back
		// through /sync like everything else and must not be routed
		// as commands.
		for _, event := range joined.Timeline.Events {
			if event.Sender == g.session.UserID() {
				continue
			}
			g.pending = append(g.pending, event)
		}

		if event, ok := g.takePending(); ok {
			return event, nil
		}
	}
}

// takePending pops the oldest buffered event.
func (g *Gateway) takePending() (Event, bool) {
	if len(g.pending) == 0 {
		return Event{}, false
	}
	event := g.pending[0]
	g.pending = g.pending[1:]
	return event, true
}

// Send delivers a message to the room.
func (g *Gateway) Send(ctx context.Context, content MessageContent) error {
	_, err := g.session.SendMessage(ctx, g.roomID, content)
	return err
}

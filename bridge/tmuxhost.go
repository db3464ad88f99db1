// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatpane/chatpane/lib/tmux"
)

// TmuxHost adapts a tmux server to the Host interface.
type TmuxHost struct {
	server *tmux.Server
}

// NewTmuxHost wraps a tmux server.
func NewTmuxHost(server *tmux.Server) *TmuxHost {
	return &TmuxHost{server: server}
}

// Sessions enumerates live tmux sessions.
func (h *TmuxHost) Sessions(ctx context.Context) ([]HostSession, error) {
	infos, err := h.server.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tmux sessions: %w", err)
	}
	sessions := make([]HostSession, 0, len(infos))
	for _, info := range infos {
		sessions = append(sessions, HostSession{
			Name:      info.Name,
			CreatedAt: info.CreatedAt,
		})
	}
	return sessions, nil
}

// SendText types text plus Enter into the named session.
func (h *TmuxHost) SendText(ctx context.Context, session, text string) error {
	if err := h.server.SendText(ctx, session, text); err != nil {
		if errors.Is(err, tmux.ErrSessionNotFound) {
			return &SessionNotFoundError{Name: session}
		}
		return err
	}
	return nil
}

// Capture returns the trailing pane content of the named session.
func (h *TmuxHost) Capture(ctx context.Context, session string, maxLines int) (string, error) {
	output, err := h.server.CapturePane(ctx, session, maxLines)
	if err != nil {
		if errors.Is(err, tmux.ErrSessionNotFound) {
			return "", &SessionNotFoundError{Name: session}
		}
		return "", err
	}
	return output, nil
}

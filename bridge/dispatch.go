// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chatpane/chatpane/lib/config"
)

// Dispatcher executes routed commands against the backend. It owns
// target resolution and the per-session injection locks that keep two
// concurrent commands from interleaving keystrokes in one pane.
type Dispatcher struct {
	host     Host
	registry *Registry
	limits   config.LimitsConfig
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-session injection locks
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(host Host, registry *Registry, limits config.LimitsConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		host:     host,
		registry: registry,
		limits:   limits,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// ResolveTarget maps a command's session field to a concrete active
// session:
//
//   - explicit name: must exist in the registry
//   - no name, one active session: that session
//   - no name, several active: *AmbiguousTargetError with candidates
//   - no name, none active: ErrNoActiveSession
//
// Several active sessions always means a selection prompt. Guessing a
// target on the user's behalf would inject text into the wrong pane;
// the ambiguity is the user's to resolve.
//
// Refreshes the registry first so routing never acts on a session
// that died since the last command.
func (d *Dispatcher) ResolveTarget(ctx context.Context, explicit string) (string, error) {
	if _, err := d.registry.Refresh(ctx); err != nil {
		return "", err
	}
	active := d.registry.ActiveNames()

	if explicit != "" {
		for _, name := range active {
			if name == explicit {
				return explicit, nil
			}
		}
		return "", &SessionNotFoundError{Name: explicit}
	}

	switch len(active) {
	case 0:
		return "", ErrNoActiveSession
	case 1:
		return active[0], nil
	}
	return "", &AmbiguousTargetError{Candidates: active}
}

// SendText injects text into the target session and returns a
// confirmation line. The injection holds the session's lock so
// concurrent sends to the same session serialize; text reaches the
// pane exactly once or an error is returned and nothing was typed
// after the failure point.
func (d *Dispatcher) SendText(ctx context.Context, session, text string) (string, error) {
	unlock := d.lockSession(session)
	defer unlock()

	if err := d.host.SendText(ctx, session, text); err != nil {
		return "", err
	}
	d.logger.Info("text injected", "session", session, "chars", len(text))
	return fmt.Sprintf("Sent to %s: %s", session, text), nil
}

// Approve injects "y" into the target session.
func (d *Dispatcher) Approve(ctx context.Context, session string) (string, error) {
	unlock := d.lockSession(session)
	defer unlock()

	if err := d.host.SendText(ctx, session, "y"); err != nil {
		return "", err
	}
	d.logger.Info("approval injected", "session", session)
	return fmt.Sprintf("Approved %s", session), nil
}

// Deny injects "n" into the target session.
func (d *Dispatcher) Deny(ctx context.Context, session string) (string, error) {
	unlock := d.lockSession(session)
	defer unlock()

	if err := d.host.SendText(ctx, session, "n"); err != nil {
		return "", err
	}
	d.logger.Info("denial injected", "session", session)
	return fmt.Sprintf("Denied %s", session), nil
}

// Status lists every registry session with a one-line activity
// excerpt. Served from the stale snapshot, flagged as such, when the
// backend is unreachable.
func (d *Dispatcher) Status(ctx context.Context) (string, error) {
	records, err := d.registry.Refresh(ctx)
	if err != nil {
		if len(records) == 0 {
			return "", err
		}
		// Stale data beats no data for a read-only status view.
	}

	if len(records) == 0 {
		return "No sessions.", nil
	}

	var builder strings.Builder
	if d.registry.Stale() {
		builder.WriteString("(backend unreachable, last known state)\n")
	}
	for _, record := range records {
		builder.WriteString(record.Name)
		if record.State == SessionUnreachable {
			builder.WriteString(" [unreachable]")
			builder.WriteByte('\n')
			continue
		}
		excerpt := ""
		if capture, captureErr := d.host.Capture(ctx, record.Name, d.limits.CaptureLines); captureErr == nil {
			excerpt = LastLine(capture, d.limits.StatusLineChars)
		}
		if excerpt != "" {
			builder.WriteString(": ")
			builder.WriteString(excerpt)
		}
		builder.WriteByte('\n')
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

// StatusDetail captures one session's recent output, trimmed to the
// capture budget.
func (d *Dispatcher) StatusDetail(ctx context.Context, session string) (string, error) {
	capture, err := d.host.Capture(ctx, session, d.limits.CaptureLines)
	if err != nil {
		return "", err
	}
	d.registry.RecordOutput(session, capture)

	trimmed := TrimCapture(capture, d.limits.CaptureChars)
	if trimmed == "" {
		return fmt.Sprintf("%s: (no output)", session), nil
	}
	return fmt.Sprintf("%s:\n%s", session, trimmed), nil
}

// ListSessions returns the active session names, one per line.
func (d *Dispatcher) ListSessions(ctx context.Context) (string, error) {
	records, err := d.registry.Refresh(ctx)
	if err != nil && len(records) == 0 {
		return "", err
	}

	var names []string
	for _, record := range records {
		if record.State == SessionActive {
			names = append(names, record.Name)
		}
	}
	if len(names) == 0 {
		return "No sessions.", nil
	}
	return strings.Join(names, "\n"), nil
}

// lockSession acquires the named session's injection lock, returning
// the unlock func.
func (d *Dispatcher) lockSession(session string) func() {
	d.mu.Lock()
	lock, exists := d.locks[session]
	if !exists {
		lock = &sync.Mutex{}
		d.locks[session] = lock
	}
	d.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

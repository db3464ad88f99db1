// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/chatpane/chatpane/lib/clock"
)

// SessionState describes a registry entry's liveness.
type SessionState string

const (
	// SessionActive means the session was present in the most recent
	// successful probe.
	SessionActive SessionState = "active"

	// SessionUnreachable means the session was present previously but
	// missing from the most recent successful probe. One more miss
	// removes it; reappearing restores it to active.
	SessionUnreachable SessionState = "unreachable"
)

// SessionRecord is one session's registry entry.
type SessionRecord struct {
	// Name is the session name on the backend.
	Name string

	// CreatedAt is when the backend created the session.
	CreatedAt time.Time

	// State is the liveness classification.
	State SessionState

	// LastSeen is when the session last appeared in a successful
	// probe.
	LastSeen time.Time
}

// Registry tracks the sessions on the backend. It is the single
// source of truth for routing: every command resolution starts from a
// fresh Refresh, and stale data is served only when the backend itself
// cannot be probed.
//
// Registry is safe for concurrent use.
type Registry struct {
	host   Host
	clock  clock.Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*SessionRecord
	hashes   map[string][32]byte // last seen output hash per session
	stale    bool
}

// NewRegistry creates a registry over the given host.
func NewRegistry(host Host, clk clock.Clock, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		host:     host,
		clock:    clk,
		logger:   logger,
		sessions: make(map[string]*SessionRecord),
		hashes:   make(map[string][32]byte),
	}
}

// Refresh probes the backend and reconciles the registry:
//
//   - sessions present in the probe become (or stay) active
//   - active sessions missing from the probe become unreachable
//   - unreachable sessions still missing are removed
//
// On probe failure the previous snapshot is returned unchanged, marked
// stale, alongside a *BackendUnreachableError. Callers decide whether
// stale data is acceptable for their operation.
func (r *Registry) Refresh(ctx context.Context) ([]SessionRecord, error) {
	hostSessions, err := r.host.Sessions(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.stale = true
		r.logger.Warn("session probe failed, serving stale registry",
			"sessions", len(r.sessions),
			"error", err,
		)
		return r.snapshotLocked(), &BackendUnreachableError{Err: err}
	}

	now := r.clock.Now()
	seen := make(map[string]bool, len(hostSessions))
	for _, hostSession := range hostSessions {
		seen[hostSession.Name] = true
		record, exists := r.sessions[hostSession.Name]
		if !exists {
			r.sessions[hostSession.Name] = &SessionRecord{
				Name:      hostSession.Name,
				CreatedAt: hostSession.CreatedAt,
				State:     SessionActive,
				LastSeen:  now,
			}
			r.logger.Info("session discovered", "session", hostSession.Name)
			continue
		}
		if record.State == SessionUnreachable {
			r.logger.Info("session recovered", "session", hostSession.Name)
		}
		record.State = SessionActive
		record.LastSeen = now
	}

	for name, record := range r.sessions {
		if seen[name] {
			continue
		}
		if record.State == SessionActive {
			record.State = SessionUnreachable
			r.logger.Warn("session missing from probe", "session", name)
			continue
		}
		delete(r.sessions, name)
		delete(r.hashes, name)
		r.logger.Info("session removed", "session", name)
	}

	r.stale = false
	return r.snapshotLocked(), nil
}

// Snapshot returns the current registry contents without probing.
func (r *Registry) Snapshot() []SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Stale reports whether the last probe failed.
func (r *Registry) Stale() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale
}

// ActiveNames returns the names of active sessions in snapshot order.
func (r *Registry) ActiveNames() []string {
	var names []string
	for _, record := range r.Snapshot() {
		if record.State == SessionActive {
			names = append(names, record.Name)
		}
	}
	return names
}

// RecordOutput hashes captured output for the named session and
// reports whether it changed since the previous capture. Used to
// suppress duplicate notification noise when a hook fires repeatedly
// over an unchanged pane.
func (r *Registry) RecordOutput(session, output string) bool {
	sum := blake3.Sum256([]byte(output))

	r.mu.Lock()
	defer r.mu.Unlock()
	previous, exists := r.hashes[session]
	r.hashes[session] = sum
	return !exists || previous != sum
}

// snapshotLocked copies the session records sorted by creation time,
// then name. The caller must hold r.mu.
func (r *Registry) snapshotLocked() []SessionRecord {
	records := make([]SessionRecord, 0, len(r.sessions))
	for _, record := range r.sessions {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].Name < records[j].Name
	})
	return records
}

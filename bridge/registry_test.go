// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chatpane/chatpane/lib/clock"
)

func TestRegistryDiscoversAndOrdersSessions(t *testing.T) {
	host := newFakeHost()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	// Added out of creation order on purpose.
	host.addSession("younger", base.Add(time.Hour))
	host.addSession("older", base)

	registry := NewRegistry(host, clock.Fake(base), nil)
	records, err := registry.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Name != "older" || records[1].Name != "younger" {
		t.Errorf("order = %s, %s; want older, younger", records[0].Name, records[1].Name)
	}
	for _, record := range records {
		if record.State != SessionActive {
			t.Errorf("session %s state = %s, want active", record.Name, record.State)
		}
	}
}

func TestRegistryLifecycle(t *testing.T) {
	host := newFakeHost()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	host.addSession("claude", now)

	registry := NewRegistry(host, clock.Fake(now), nil)
	ctx := context.Background()

	if _, err := registry.Refresh(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// First miss: unreachable, still listed.
	host.removeSession("claude")
	records, err := registry.Refresh(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if len(records) != 1 || records[0].State != SessionUnreachable {
		t.Fatalf("after first miss: %+v", records)
	}

	// Second miss: removed.
	records, err = registry.Refresh(ctx)
	if err != nil {
		t.Fatalf("third refresh: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("after second miss: %+v", records)
	}
}

func TestRegistryRecovery(t *testing.T) {
	host := newFakeHost()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	host.addSession("claude", now)

	registry := NewRegistry(host, clock.Fake(now), nil)
	ctx := context.Background()

	registry.Refresh(ctx)
	host.removeSession("claude")
	registry.Refresh(ctx) // now unreachable
	host.addSession("claude", now)

	records, err := registry.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(records) != 1 || records[0].State != SessionActive {
		t.Fatalf("after recovery: %+v", records)
	}
}

func TestRegistryServesStaleSnapshotOnProbeFailure(t *testing.T) {
	host := newFakeHost()
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	host.addSession("claude", now)

	registry := NewRegistry(host, clock.Fake(now), nil)
	ctx := context.Background()
	registry.Refresh(ctx)

	host.setProbeError(errors.New("socket gone"))
	records, err := registry.Refresh(ctx)

	var unreachable *BackendUnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected BackendUnreachableError, got %v", err)
	}
	if len(records) != 1 || records[0].Name != "claude" {
		t.Fatalf("stale snapshot = %+v", records)
	}
	if !registry.Stale() {
		t.Error("registry should report stale after failed probe")
	}

	// A successful probe clears staleness.
	host.setProbeError(nil)
	if _, err := registry.Refresh(ctx); err != nil {
		t.Fatalf("recovery refresh: %v", err)
	}
	if registry.Stale() {
		t.Error("registry still stale after successful probe")
	}
}

func TestRecordOutputChangeDetection(t *testing.T) {
	registry := NewRegistry(newFakeHost(), clock.Fake(time.Now()), nil)

	if !registry.RecordOutput("claude", "first output") {
		t.Error("first capture must register as changed")
	}
	if registry.RecordOutput("claude", "first output") {
		t.Error("identical capture must not register as changed")
	}
	if !registry.RecordOutput("claude", "second output") {
		t.Error("different capture must register as changed")
	}
	// Per-session isolation.
	if !registry.RecordOutput("worker", "first output") {
		t.Error("another session's first capture must register as changed")
	}
}

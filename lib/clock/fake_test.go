// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package clock_test

import (
	"testing"
	"time"

	"github.com/chatpane/chatpane/lib/clock"
)

func TestFakeNowStandsStill(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := clock.Fake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}
	if got := fake.Now(); !got.Equal(start) {
		t.Fatalf("second Now() = %v, want %v (time moved without Advance)", got, start)
	}
}

func TestFakeAdvanceMovesNow(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := clock.Fake(start)

	fake.Advance(90 * time.Second)

	want := start.Add(90 * time.Second)
	if got := fake.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))

	ch := fake.After(10 * time.Second)

	select {
	case <-ch:
		t.Fatal("After channel fired before Advance")
	default:
	}

	fake.Advance(10 * time.Second)

	select {
	case <-ch:
	default:
		t.Fatal("After channel did not fire after Advance past deadline")
	}
}

func TestFakeAfterImmediateForNonPositive(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))

	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
}

func TestFakeAfterFuncOrder(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))

	var order []string
	fake.AfterFunc(20*time.Second, func() { order = append(order, "second") })
	fake.AfterFunc(10*time.Second, func() { order = append(order, "first") })

	fake.Advance(30 * time.Second)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("callbacks fired in order %v, want [first second]", order)
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))

	fired := false
	timer := fake.AfterFunc(10*time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop() = false for an active timer")
	}
	fake.Advance(20 * time.Second)

	if fired {
		t.Fatal("stopped timer fired anyway")
	}
	if timer.Stop() {
		t.Fatal("second Stop() = true, want false")
	}
}

func TestFakeTickerFiresPerInterval(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))

	ticker := fake.NewTicker(time.Second)
	defer ticker.Stop()

	fake.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after one interval")
	}

	fake.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("ticker did not fire after second interval")
	}
}

func TestFakePendingCount(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))

	if got := fake.PendingCount(); got != 0 {
		t.Fatalf("PendingCount() = %d before registering, want 0", got)
	}

	fake.After(time.Minute)
	timer := fake.AfterFunc(time.Minute, func() {})

	if got := fake.PendingCount(); got != 2 {
		t.Fatalf("PendingCount() = %d, want 2", got)
	}

	timer.Stop()
	if got := fake.PendingCount(); got != 1 {
		t.Fatalf("PendingCount() after Stop = %d, want 1", got)
	}
}

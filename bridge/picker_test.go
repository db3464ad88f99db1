// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/chatpane/chatpane/lib/clock"
)

const pickerTimeout = 60 * time.Second

func newTestPicker() (*Picker, *clock.FakeClock) {
	fakeClock := clock.Fake(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	return NewPicker(fakeClock, pickerTimeout, nil), fakeClock
}

func TestPickerResolveRetargetsCommand(t *testing.T) {
	picker, _ := newTestPicker()

	deferred := Command{Kind: CmdSendText, Text: "run tests"}
	selection := picker.Open("@alice:example.org", deferred, []string{"claude", "worker"})

	command, err := picker.Resolve("@alice:example.org", selection.ID, "worker")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if command.Kind != CmdSendText || command.Session != "worker" || command.Text != "run tests" {
		t.Errorf("resolved command = %+v", command)
	}
}

func TestPickerResolveIsOneShot(t *testing.T) {
	picker, _ := newTestPicker()
	selection := picker.Open("@alice:example.org", Command{Kind: CmdApprove}, []string{"a", "b"})

	if _, err := picker.Resolve("@alice:example.org", selection.ID, "a"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	_, err := picker.Resolve("@alice:example.org", selection.ID, "a")
	if !errors.Is(err, ErrSelectionNotFound) {
		t.Errorf("second resolve error = %v, want ErrSelectionNotFound", err)
	}
}

func TestPickerExpiry(t *testing.T) {
	picker, fakeClock := newTestPicker()
	selection := picker.Open("@alice:example.org", Command{Kind: CmdApprove}, []string{"a", "b"})

	// One second past the deadline.
	fakeClock.Advance(pickerTimeout + time.Second)

	_, err := picker.Resolve("@alice:example.org", selection.ID, "a")
	if !errors.Is(err, ErrSelectionExpired) {
		t.Errorf("error = %v, want ErrSelectionExpired", err)
	}

	// The expired selection is gone, not retryable.
	_, err = picker.Resolve("@alice:example.org", selection.ID, "a")
	if !errors.Is(err, ErrSelectionNotFound) {
		t.Errorf("error after expiry = %v, want ErrSelectionNotFound", err)
	}
}

func TestPickerResolveAtDeadlineStillValid(t *testing.T) {
	picker, fakeClock := newTestPicker()
	selection := picker.Open("@alice:example.org", Command{Kind: CmdApprove}, []string{"a", "b"})

	fakeClock.Advance(pickerTimeout)

	if _, err := picker.Resolve("@alice:example.org", selection.ID, "a"); err != nil {
		t.Errorf("resolve exactly at deadline: %v", err)
	}
}

func TestPickerSupersede(t *testing.T) {
	picker, _ := newTestPicker()

	first := picker.Open("@alice:example.org", Command{Kind: CmdApprove}, []string{"a", "b"})
	second := picker.Open("@alice:example.org", Command{Kind: CmdDeny}, []string{"a", "b"})

	_, err := picker.Resolve("@alice:example.org", first.ID, "a")
	if !errors.Is(err, ErrSelectionSuperseded) {
		t.Errorf("superseded resolve error = %v, want ErrSelectionSuperseded", err)
	}

	command, err := picker.Resolve("@alice:example.org", second.ID, "b")
	if err != nil {
		t.Fatalf("current resolve: %v", err)
	}
	if command.Kind != CmdDeny || command.Session != "b" {
		t.Errorf("resolved command = %+v", command)
	}
}

func TestPickerIgnoresOtherSenders(t *testing.T) {
	picker, _ := newTestPicker()
	selection := picker.Open("@alice:example.org", Command{Kind: CmdApprove}, []string{"a", "b"})

	_, err := picker.Resolve("@mallory:example.org", selection.ID, "a")
	if !errors.Is(err, ErrSelectionNotFound) {
		t.Errorf("cross-sender resolve error = %v, want ErrSelectionNotFound", err)
	}

	// Alice's prompt still works.
	if _, err := picker.Resolve("@alice:example.org", selection.ID, "a"); err != nil {
		t.Errorf("owner resolve after foreign press: %v", err)
	}
}

func TestPickerSendersAreIndependent(t *testing.T) {
	picker, _ := newTestPicker()

	alice := picker.Open("@alice:example.org", Command{Kind: CmdApprove}, []string{"a", "b"})
	bob := picker.Open("@bob:example.org", Command{Kind: CmdDeny}, []string{"a", "b"})

	// Bob's prompt must not supersede Alice's.
	if _, err := picker.Resolve("@alice:example.org", alice.ID, "a"); err != nil {
		t.Errorf("alice resolve: %v", err)
	}
	if _, err := picker.Resolve("@bob:example.org", bob.ID, "b"); err != nil {
		t.Errorf("bob resolve: %v", err)
	}
}

// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() and advance time deterministically.
//
// Chatpane uses the clock for selection-prompt expiry: the picker
// stamps deadlines with Now and tests drive expiry with
// FakeClock.Advance rather than sleeping. Components that would
// otherwise call time.Now, time.After, or time.NewTicker take a Clock
// instead.
package clock

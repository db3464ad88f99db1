// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides chatpane's binary wire encoding: CBOR with
// Core Deterministic Encoding (RFC 8949 §4.2).
//
// Two wire surfaces use it. Interaction callback payloads embedded in
// outbound chat messages are CBOR so that a round-tripped button press
// compares byte-for-byte against what was sent — deterministic
// encoding means the same logical payload always produces identical
// bytes. Hook events arriving on the local Unix socket are CBOR frames
// for the same reason, plus compactness.
//
// Consumers import only this package, never fxamacker/cbor directly.
package codec

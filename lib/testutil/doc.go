// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for chatpane packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls.
//
// [SocketDir] creates a short-named temporary directory in /tmp
// suitable for Unix domain sockets. Unix sockets have a 108-byte path
// limit (sun_path in sockaddr_un) which deeply nested test tmpdirs can
// exceed, making t.TempDir() unsuitable for socket files.
//
// [UniqueID] generates monotonically increasing identifiers for tests
// that need distinguishable names.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no chatpane-internal dependencies.
package testutil

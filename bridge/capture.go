// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "strings"

// elisionPrefix marks a capture whose head was cut to fit the
// character budget.
const elisionPrefix = "...\n"

// truncationSuffix marks a status line excerpt cut to fit its budget.
const truncationSuffix = "..."

// TrimCapture prepares raw pane content for relay: trailing blank
// lines go, and if the remainder exceeds maxChars the oldest text is
// elided from the front, cutting on a line boundary where possible so
// the relayed excerpt starts with a whole line.
func TrimCapture(raw string, maxChars int) string {
	text := strings.TrimRight(raw, " \t\n")
	if text == "" {
		return ""
	}
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	tail := text[len(text)-maxChars:]
	// Drop the likely-partial first line of the tail. Keep the raw cut
	// when the budget holds no newline at all.
	if index := strings.IndexByte(tail, '\n'); index >= 0 && index+1 < len(tail) {
		tail = tail[index+1:]
	}
	return elisionPrefix + tail
}

// LastLine returns the last non-blank line of raw pane content,
// truncated to maxChars. Used for the one-line activity excerpt in
// status listings.
func LastLine(raw string, maxChars int) string {
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], " \t")
		if line == "" {
			continue
		}
		if maxChars > 0 && len(line) > maxChars {
			return line[:maxChars] + truncationSuffix
		}
		return line
	}
	return ""
}

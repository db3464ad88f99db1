// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"strings"
	"testing"
)

func TestTrimCaptureStripsTrailingBlankLines(t *testing.T) {
	got := TrimCapture("line one\nline two\n\n\n   \n", 1000)
	if got != "line one\nline two" {
		t.Errorf("TrimCapture = %q", got)
	}
}

func TestTrimCaptureUnderBudgetUnchanged(t *testing.T) {
	got := TrimCapture("short", 100)
	if got != "short" {
		t.Errorf("TrimCapture = %q", got)
	}
}

func TestTrimCaptureElidesHead(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = strings.Repeat("x", 40)
	}
	raw := strings.Join(lines, "\n")

	got := TrimCapture(raw, 500)
	if !strings.HasPrefix(got, elisionPrefix) {
		t.Fatalf("elided capture missing prefix: %q", got[:20])
	}
	if len(got) > 500+len(elisionPrefix) {
		t.Errorf("capture length %d exceeds budget", len(got))
	}
	// The cut lands on a line boundary: the first retained line is a
	// whole 40-char line.
	body := strings.TrimPrefix(got, elisionPrefix)
	if first := strings.SplitN(body, "\n", 2)[0]; first != strings.Repeat("x", 40) {
		t.Errorf("first retained line is partial: %q", first)
	}
}

func TestTrimCaptureEmptyInput(t *testing.T) {
	if got := TrimCapture("\n\n  \n", 100); got != "" {
		t.Errorf("TrimCapture = %q, want empty", got)
	}
}

func TestLastLineSkipsBlankTail(t *testing.T) {
	got := LastLine("building...\ndone\n\n   \n", 80)
	if got != "done" {
		t.Errorf("LastLine = %q, want done", got)
	}
}

func TestLastLineTruncates(t *testing.T) {
	long := strings.Repeat("a", 120)
	got := LastLine(long, 80)
	if got != strings.Repeat("a", 80)+truncationSuffix {
		t.Errorf("LastLine = %q", got)
	}
}

func TestLastLineAllBlank(t *testing.T) {
	if got := LastLine("\n\n", 80); got != "" {
		t.Errorf("LastLine = %q, want empty", got)
	}
}

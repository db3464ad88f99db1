// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

// Command chatpane-notify sends one hook event to the chatpane
// daemon. It is meant to be called from hook scripts of the processes
// running inside tmux sessions:
//
//	chatpane-notify --session claude --type permission-requested \
//	    --summary "Bash(git push)"
//
// When stdin is not a terminal, its contents are attached as the pane
// capture, so hooks can pipe whatever context they already have:
//
//	tail -n 50 build.log | chatpane-notify --type task-completed \
//	    --summary "build finished"
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/chatpane/chatpane/lib/hookipc"
	"github.com/chatpane/chatpane/lib/version"
)

// sendTimeout bounds the whole exchange. The daemon is on the same
// machine; anything slower than this means it is gone.
const sendTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("chatpane-notify", pflag.ContinueOnError)
	socketPath := flags.String("socket", "/tmp/chatpane-hooks.sock", "chatpane hook socket path")
	session := flags.String("session", os.Getenv("CHATPANE_SESSION"), "tmux session name the event originates from")
	eventType := flags.String("type", "", "event type: task-completed or permission-requested")
	summary := flags.String("summary", "", "short description of what happened")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *showVersion {
		fmt.Printf("chatpane-notify %s\n", version.Info())
		return nil
	}

	if *session == "" {
		return fmt.Errorf("--session is required (or set CHATPANE_SESSION)")
	}

	event := hookipc.Event{
		Session:   *session,
		Type:      *eventType,
		Summary:   *summary,
		Timestamp: time.Now().UTC(),
	}

	// Piped stdin becomes the attached capture.
	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading capture from stdin: %w", err)
		}
		event.Capture = string(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	return hookipc.Send(ctx, *socketPath, event)
}

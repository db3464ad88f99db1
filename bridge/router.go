// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "strings"

// CommandKind classifies what a routed message asks for.
type CommandKind int

const (
	// CmdSendText injects the message text into a session.
	CmdSendText CommandKind = iota
	// CmdStatus lists all sessions with a one-line activity excerpt.
	CmdStatus
	// CmdStatusDetail shows a capture of one session.
	CmdStatusDetail
	// CmdListSessions lists session names only.
	CmdListSessions
	// CmdApprove injects "y" into a session.
	CmdApprove
	// CmdDeny injects "n" into a session.
	CmdDeny
	// CmdMenu offers the per-session quick action buttons.
	CmdMenu
)

// Command is the routed form of an inbound message.
type Command struct {
	// Kind says what to do.
	Kind CommandKind

	// Session is the explicitly named target, empty when the message
	// named none and resolution falls to the dispatcher.
	Session string

	// Text is the payload for CmdSendText.
	Text string
}

// commandPrefix is the optional marker that flags a message as meant
// for the relay. It is accepted and stripped everywhere so users can
// keep the habit from channels where the relay only answers prefixed
// messages.
const commandPrefix = "cc:"

// Route classifies a raw message body. knownSessions is the set of
// names a leading @mention may target; a mention of anything else is
// stripped with the target left unresolved, so the rest of the message
// still routes through the normal auto-targeting path.
//
// Resolution order: trim, strip the cc: prefix, parse a leading
// @mention, then match command keywords on what remains. Anything
// that isn't a keyword is text to inject.
func Route(raw string, knownSessions []string) (Command, error) {
	text := strings.TrimSpace(raw)

	if len(text) >= len(commandPrefix) && strings.EqualFold(text[:len(commandPrefix)], commandPrefix) {
		text = strings.TrimSpace(text[len(commandPrefix):])
	}

	if text == "" {
		return Command{}, ErrEmptyMessage
	}

	var target string
	if strings.HasPrefix(text, "@") {
		mention, remainder := splitWord(text)
		name := mention[1:]
		if isKnownSession(name, knownSessions) {
			target = name
			if remainder == "" {
				// A bare "@name" asks what that session is doing.
				return Command{Kind: CmdStatusDetail, Session: target}, nil
			}
		}
		// The mention is stripped whether or not it named a live
		// session; an unknown name just leaves the target unresolved
		// and the rest of the message routes normally.
		text = remainder
		if text == "" {
			return Command{}, ErrEmptyMessage
		}
	}

	keyword, remainder := splitWord(text)
	switch strings.ToLower(keyword) {
	case "status":
		if remainder == "" {
			if target != "" {
				return Command{Kind: CmdStatusDetail, Session: target}, nil
			}
			return Command{Kind: CmdStatus}, nil
		}
		// "status <name>" names its target inline. The name is not
		// checked here: the dispatcher reports an unknown session,
		// which beats typing the literal words into a live pane.
		if target == "" && !strings.ContainsAny(remainder, " \t") {
			return Command{Kind: CmdStatusDetail, Session: remainder}, nil
		}
	case "sessions", "ls":
		if remainder == "" {
			return Command{Kind: CmdListSessions}, nil
		}
	case "y":
		if remainder == "" {
			return Command{Kind: CmdApprove, Session: target}, nil
		}
	case "n":
		if remainder == "" {
			return Command{Kind: CmdDeny, Session: target}, nil
		}
	case "m", "menu":
		if remainder == "" {
			return Command{Kind: CmdMenu, Session: target}, nil
		}
	}

	return Command{Kind: CmdSendText, Session: target, Text: text}, nil
}

// splitWord splits off the first whitespace-delimited word.
func splitWord(s string) (word, rest string) {
	index := strings.IndexAny(s, " \t")
	if index < 0 {
		return s, ""
	}
	return s[:index], strings.TrimSpace(s[index+1:])
}

func isKnownSession(name string, knownSessions []string) bool {
	for _, known := range knownSessions {
		if known == name {
			return true
		}
	}
	return false
}

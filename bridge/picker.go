// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatpane/chatpane/lib/clock"
)

// SelectionState describes a selection prompt's lifecycle.
type SelectionState int

const (
	// SelectionOpen means the prompt is awaiting a press.
	SelectionOpen SelectionState = iota
	// SelectionSuperseded means a newer prompt replaced this one for
	// the same sender. Presses are dropped silently.
	SelectionSuperseded
)

// Selection is one pending session choice: a command arrived that
// needs a target, several sessions were active, and the sender was
// asked which one. The deferred command runs once the sender picks.
type Selection struct {
	// ID uniquely identifies this prompt. Button payloads carry it so
	// a press against an old prompt can be told apart from the
	// current one.
	ID string

	// Sender is who the prompt was shown to. Only their press
	// resolves it.
	Sender string

	// Command is the deferred command, re-targeted to the chosen
	// session on resolution.
	Command Command

	// Candidates are the session names offered, in registry order.
	Candidates []string

	// Deadline is when the prompt expires.
	Deadline time.Time

	state SelectionState
}

// Picker tracks pending session selections, at most one per sender.
// Opening a new prompt supersedes the sender's previous one: the old
// buttons still render in chat history, but pressing them does
// nothing.
//
// Picker is safe for concurrent use.
type Picker struct {
	clock   clock.Clock
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	open map[string]*Selection // keyed by sender
	byID map[string]*Selection
}

// NewPicker creates a picker whose prompts expire after timeout.
func NewPicker(clk clock.Clock, timeout time.Duration, logger *slog.Logger) *Picker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Picker{
		clock:   clk,
		timeout: timeout,
		logger:  logger,
		open:    make(map[string]*Selection),
		byID:    make(map[string]*Selection),
	}
}

// Open creates a selection prompt for the sender, superseding any
// existing one.
func (p *Picker) Open(sender string, command Command, candidates []string) *Selection {
	selection := &Selection{
		ID:         uuid.NewString(),
		Sender:     sender,
		Command:    command,
		Candidates: append([]string(nil), candidates...),
		Deadline:   p.clock.Now().Add(p.timeout),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if previous, exists := p.open[sender]; exists {
		previous.state = SelectionSuperseded
		p.logger.Debug("selection superseded",
			"sender", sender,
			"selection_id", previous.ID,
		)
	}
	p.open[sender] = selection
	p.byID[selection.ID] = selection

	// Superseded prompts stay in byID so a late press can be told
	// apart from an unknown one, but only until their deadline passes.
	now := p.clock.Now()
	for id, stale := range p.byID {
		if stale.state == SelectionSuperseded && now.After(stale.Deadline) {
			delete(p.byID, id)
		}
	}

	p.logger.Info("selection opened",
		"sender", sender,
		"selection_id", selection.ID,
		"candidates", len(candidates),
	)
	return selection
}

// Resolve consumes a press against selectionID, returning the
// deferred command re-targeted to the chosen session.
//
// A press against an unknown or already-resolved ID returns
// ErrSelectionNotFound; resolution is one-shot, so double presses of
// the same button fail the second time. A superseded prompt returns
// ErrSelectionSuperseded; an expired one ErrSelectionExpired. In
// every failure case no command is returned and nothing is injected.
func (p *Picker) Resolve(sender, selectionID, session string) (Command, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	selection, exists := p.byID[selectionID]
	if !exists {
		return Command{}, ErrSelectionNotFound
	}

	if selection.state == SelectionSuperseded {
		delete(p.byID, selectionID)
		return Command{}, ErrSelectionSuperseded
	}

	if sender != selection.Sender {
		// Someone else pressed a button on another user's prompt.
		// Treat it like an unknown selection rather than resolving on
		// their behalf.
		return Command{}, ErrSelectionNotFound
	}

	// Expiry is checked lazily at press time; there is no background
	// sweep.
	if p.clock.Now().After(selection.Deadline) {
		p.removeLocked(selection)
		return Command{}, ErrSelectionExpired
	}

	p.removeLocked(selection)

	command := selection.Command
	command.Session = session
	p.logger.Info("selection resolved",
		"sender", sender,
		"selection_id", selectionID,
		"session", session,
	)
	return command, nil
}

// removeLocked drops a selection from both indexes. The caller must
// hold p.mu.
func (p *Picker) removeLocked(selection *Selection) {
	delete(p.byID, selection.ID)
	if p.open[selection.Sender] == selection {
		delete(p.open, selection.Sender)
	}
}

// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chatpane/chatpane/lib/hookipc"
)

// opTimeout bounds each individual backend or transport call. The
// sender gets an error reply instead of a relay that hangs forever on
// a wedged tmux server or homeserver.
const opTimeout = 5 * time.Second

// hookQueue is the work queue key for hook events. Hooks share one
// queue so notifications keep their arrival order; chat commands queue
// per sender.
const hookQueue = "\x00hooks"

// queueDepth is each work queue's buffer. A full queue blocks the
// producer, which in turn slows the /sync loop — acceptable
// backpressure for a single-operator relay.
const queueDepth = 32

// Supervisor multiplexes the two event sources — chat messages from
// the transport and hook events from the local socket — into ordered
// work queues. Events from one sender execute strictly in arrival
// order; events from different senders may interleave.
type Supervisor struct {
	Transport  Transport
	Host       Host
	Registry   *Registry
	Dispatcher *Dispatcher
	Picker     *Picker
	Formatter  *Formatter

	// Hooks delivers hook events. The supervisor drains it until Run
	// returns.
	Hooks <-chan hookipc.Event

	// AllowedSender restricts whose messages are acted on. Empty
	// accepts everyone.
	AllowedSender string

	// DefaultSession is the target assumed when a quick-action button
	// carries no session of its own (the fixed y/n menu buttons).
	// Empty means such presses go through normal target resolution.
	DefaultSession string

	// Logger receives structured output. If nil, slog.Default().
	Logger *slog.Logger

	mu      sync.Mutex
	queues  map[string]chan func(context.Context)
	workers sync.WaitGroup
}

func (s *Supervisor) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Run processes events until the context is cancelled or the
// transport fails permanently. It owns all worker goroutines and
// returns only after they have drained.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.queues = make(map[string]chan func(context.Context))

	transportFailed := make(chan error, 1)
	producers := sync.WaitGroup{}

	producers.Add(1)
	go func() {
		defer producers.Done()
		for {
			event, err := s.Transport.Next(ctx)
			if err != nil {
				if ctx.Err() == nil {
					transportFailed <- err
				}
				return
			}
			s.enqueue(ctx, event.SenderID, func(ctx context.Context) {
				s.handleChat(ctx, event)
			})
		}
	}()

	producers.Add(1)
	go func() {
		defer producers.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-s.Hooks:
				if !ok {
					return
				}
				s.enqueue(ctx, hookQueue, func(ctx context.Context) {
					s.handleHook(ctx, event)
				})
			}
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-transportFailed:
		s.logger().Error("transport failed", "error", runErr)
	}

	// Stop both producers (the transport loop observes the cancel via
	// Next) before closing the queues they feed.
	cancel()
	producers.Wait()

	s.mu.Lock()
	for _, queue := range s.queues {
		close(queue)
	}
	s.mu.Unlock()
	s.workers.Wait()

	return runErr
}

// enqueue appends work to the named queue, creating its worker on
// first use.
func (s *Supervisor) enqueue(ctx context.Context, key string, work func(context.Context)) {
	s.mu.Lock()
	queue, exists := s.queues[key]
	if !exists {
		queue = make(chan func(context.Context), queueDepth)
		s.queues[key] = queue
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			for work := range queue {
				work(ctx)
			}
		}()
	}
	s.mu.Unlock()

	select {
	case queue <- work:
	case <-ctx.Done():
	}
}

// handleChat processes one inbound chat event.
func (s *Supervisor) handleChat(ctx context.Context, event InboundEvent) {
	if s.AllowedSender != "" && event.SenderID != s.AllowedSender {
		s.logger().Debug("dropping message from unauthorized sender", "sender", event.SenderID)
		return
	}

	if event.Callback != nil {
		s.handleCallback(ctx, event.SenderID, event.Callback)
		return
	}

	known := s.knownSessions(ctx)
	command, err := Route(event.Text, known)
	if err != nil {
		s.reply(ctx, errorText(err))
		return
	}
	s.execute(ctx, event.SenderID, command)
}

// handleCallback processes a button press.
func (s *Supervisor) handleCallback(ctx context.Context, sender string, payload *CallbackPayload) {
	switch payload.Kind {
	case KindSelection:
		command, err := s.Picker.Resolve(sender, payload.SelectionID, payload.Session)
		if err != nil {
			if errors.Is(err, ErrSelectionSuperseded) {
				// The user already got a newer prompt; saying anything
				// about the old one is noise.
				return
			}
			s.reply(ctx, errorText(err))
			return
		}
		s.execute(ctx, sender, command)
	case KindCommand:
		command, err := s.commandFromAction(payload)
		if err != nil {
			s.logger().Warn("unknown callback action", "action", payload.Action)
			return
		}
		s.execute(ctx, sender, command)
	default:
		s.logger().Warn("unknown callback kind", "kind", payload.Kind)
	}
}

// commandFromAction maps a quick action payload to a command. Approve
// and deny buttons without a session of their own fall back to the
// configured default session; a sessionless status button means the
// overview, not a detail view.
func (s *Supervisor) commandFromAction(payload *CallbackPayload) (Command, error) {
	session := payload.Session
	if session == "" {
		session = s.DefaultSession
	}

	switch payload.Action {
	case ActionApprove:
		return Command{Kind: CmdApprove, Session: session}, nil
	case ActionDeny:
		return Command{Kind: CmdDeny, Session: session}, nil
	case ActionStatus:
		if payload.Session == "" {
			return Command{Kind: CmdStatus}, nil
		}
		return Command{Kind: CmdStatusDetail, Session: payload.Session}, nil
	case ActionSessions:
		return Command{Kind: CmdListSessions}, nil
	case ActionMenu:
		return Command{Kind: CmdMenu}, nil
	}
	return Command{}, fmt.Errorf("unknown action %q", payload.Action)
}

// execute runs a routed command, resolving its target first when one
// is needed. Ambiguous targets open a selection prompt instead of
// injecting anywhere.
func (s *Supervisor) execute(ctx context.Context, sender string, command Command) {
	switch command.Kind {
	case CmdStatus:
		s.respond(ctx, func(opCtx context.Context) (string, error) {
			return s.Dispatcher.Status(opCtx)
		})
		return
	case CmdListSessions:
		s.respond(ctx, func(opCtx context.Context) (string, error) {
			return s.Dispatcher.ListSessions(opCtx)
		})
		return
	case CmdMenu:
		// The menu is the whole command surface, one entry per known
		// session. No target to resolve.
		s.send(ctx, s.Formatter.FormatMenu(s.knownSessions(ctx)))
		return
	}

	target, err := s.resolveTarget(ctx, command.Session)
	if err != nil {
		var ambiguous *AmbiguousTargetError
		if errors.As(err, &ambiguous) {
			selection := s.Picker.Open(sender, command, ambiguous.Candidates)
			s.send(ctx, s.Formatter.FormatSelectionPrompt(selection))
			return
		}
		s.reply(ctx, errorText(err))
		return
	}

	switch command.Kind {
	case CmdSendText:
		s.respond(ctx, func(opCtx context.Context) (string, error) {
			return s.Dispatcher.SendText(opCtx, target, command.Text)
		})
	case CmdApprove:
		s.respond(ctx, func(opCtx context.Context) (string, error) {
			return s.Dispatcher.Approve(opCtx, target)
		})
	case CmdDeny:
		s.respond(ctx, func(opCtx context.Context) (string, error) {
			return s.Dispatcher.Deny(opCtx, target)
		})
	case CmdStatusDetail:
		s.respond(ctx, func(opCtx context.Context) (string, error) {
			return s.Dispatcher.StatusDetail(opCtx, target)
		})
	default:
		s.logger().Error("unhandled command kind", "kind", command.Kind)
	}
}

// handleHook processes one hook event: capture the pane, suppress
// repeats of unchanged completions, and relay a notification.
func (s *Supervisor) handleHook(ctx context.Context, event hookipc.Event) {
	capture := event.Capture
	if capture == "" {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		fetched, err := s.Host.Capture(opCtx, event.Session, s.Dispatcher.limits.CaptureLines)
		cancel()
		if err != nil {
			s.logger().Warn("capture for notification failed",
				"session", event.Session,
				"error", err,
			)
		} else {
			capture = fetched
		}
	}

	changed := s.Registry.RecordOutput(event.Session, capture)
	if !changed && event.Type == hookipc.EventTaskCompleted {
		// The pane looks exactly like it did at the last notification.
		// A repeated completion hook over unchanged output is noise.
		s.logger().Debug("suppressing duplicate notification", "session", event.Session)
		return
	}

	s.send(ctx, s.Formatter.FormatNotification(event, capture))
}

// resolveTarget wraps Dispatcher.ResolveTarget with the operation
// timeout.
func (s *Supervisor) resolveTarget(ctx context.Context, explicit string) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.Dispatcher.ResolveTarget(opCtx, explicit)
}

// respond runs one dispatcher operation under the operation timeout
// and replies with its result or exactly one error message.
func (s *Supervisor) respond(ctx context.Context, operation func(context.Context) (string, error)) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	result, err := operation(opCtx)
	cancel()
	if err != nil {
		s.reply(ctx, errorText(err))
		return
	}
	s.reply(ctx, result)
}

// reply sends a plain notice. Send failures are logged, never
// retried: the next command will surface connectivity problems soon
// enough.
func (s *Supervisor) reply(ctx context.Context, body string) {
	s.send(ctx, OutboundMessage{Body: body, Notice: true})
}

func (s *Supervisor) send(ctx context.Context, message OutboundMessage) {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.Transport.Send(opCtx, message); err != nil {
		s.logger().Error("send failed", "error", err)
	}
}

// knownSessions returns the active session names for mention parsing.
// A failed probe yields the stale snapshot's names: better to route a
// mention against slightly old data than to dump "@worker fix it"
// into the default pane as text.
func (s *Supervisor) knownSessions(ctx context.Context) []string {
	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.Registry.Refresh(opCtx); err != nil {
		s.logger().Debug("refresh before routing failed", "error", err)
	}
	return s.Registry.ActiveNames()
}

// errorText maps an error to the single reply line the sender sees.
func errorText(err error) string {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return "Message is empty"
	case errors.Is(err, ErrNoActiveSession):
		return "No active sessions"
	case errors.Is(err, ErrSelectionExpired):
		return "Selection expired, send the command again"
	case errors.Is(err, ErrSelectionNotFound):
		return "That selection is no longer active"
	}

	var notFound *SessionNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Sprintf("Session %q not found", notFound.Name)
	}
	var unreachable *BackendUnreachableError
	if errors.As(err, &unreachable) {
		return "tmux server unreachable"
	}
	return fmt.Sprintf("Error: %v", err)
}

// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"strings"

	"github.com/chatpane/chatpane/lib/config"
	"github.com/chatpane/chatpane/lib/hookipc"
)

// Formatter renders hook events and selection prompts as outbound
// messages.
type Formatter struct {
	limits config.LimitsConfig
}

// NewFormatter creates a formatter with the given truncation budgets.
func NewFormatter(limits config.LimitsConfig) *Formatter {
	return &Formatter{limits: limits}
}

// FormatNotification renders a hook event. capture is the pane
// excerpt to attach, already fetched by the caller (the event's own
// capture when present, a fresh one otherwise).
//
// A permission request carries exactly two affordances, approve and
// deny, both tagged with the originating session so a press lands in
// the right pane no matter how many other sessions exist. A task
// completion carries status and menu affordances instead.
func (f *Formatter) FormatNotification(event hookipc.Event, capture string) OutboundMessage {
	summary := event.Summary
	if f.limits.SummaryChars > 0 && len(summary) > f.limits.SummaryChars {
		summary = summary[:f.limits.SummaryChars] + truncationSuffix
	}

	var builder strings.Builder
	switch event.Type {
	case hookipc.EventPermissionRequested:
		fmt.Fprintf(&builder, "[%s] permission requested", event.Session)
	case hookipc.EventTaskCompleted:
		fmt.Fprintf(&builder, "[%s] task completed", event.Session)
	default:
		fmt.Fprintf(&builder, "[%s] %s", event.Session, event.Type)
	}
	if summary != "" {
		builder.WriteString(": ")
		builder.WriteString(summary)
	}

	trimmed := TrimCapture(capture, f.limits.CaptureChars)
	if trimmed != "" {
		builder.WriteByte('\n')
		builder.WriteString(trimmed)
	}

	message := OutboundMessage{
		Body:   builder.String(),
		Notice: true,
	}

	switch event.Type {
	case hookipc.EventPermissionRequested:
		message.Actions = []Action{
			{Label: "y", Payload: CallbackPayload{Kind: KindCommand, Session: event.Session, Action: ActionApprove}},
			{Label: "n", Payload: CallbackPayload{Kind: KindCommand, Session: event.Session, Action: ActionDeny}},
		}
	case hookipc.EventTaskCompleted:
		message.Actions = []Action{
			{Label: "status", Payload: CallbackPayload{Kind: KindCommand, Session: event.Session, Action: ActionStatus}},
			{Label: "menu", Payload: CallbackPayload{Kind: KindCommand, Session: event.Session, Action: ActionMenu}},
		}
	}
	return message
}

// FormatSelectionPrompt renders a session picker: one button per
// candidate, each tagged with the selection ID so presses against a
// superseded prompt are recognizable.
func (f *Formatter) FormatSelectionPrompt(selection *Selection) OutboundMessage {
	message := OutboundMessage{
		Body: fmt.Sprintf("Multiple sessions active. Which one?\n%s",
			strings.Join(selection.Candidates, "\n")),
	}
	for _, candidate := range selection.Candidates {
		message.Actions = append(message.Actions, Action{
			Label: candidate,
			Payload: CallbackPayload{
				Kind:        KindSelection,
				SelectionID: selection.ID,
				Session:     candidate,
				Action:      ActionPick,
			},
		})
	}
	return message
}

// FormatMenu renders the full command surface: the fixed command
// buttons (y, n, status, sessions), then one approve/deny/status
// triple per known session. The fixed buttons carry no session, so a
// press goes through the normal target resolution; the per-session
// buttons act on their session directly.
func (f *Formatter) FormatMenu(sessions []string) OutboundMessage {
	body := "Commands: y, n, status, sessions"
	if len(sessions) > 0 {
		body += "\nSessions:\n" + strings.Join(sessions, "\n")
	}

	message := OutboundMessage{
		Body: body,
		Actions: []Action{
			{Label: "y", Payload: CallbackPayload{Kind: KindCommand, Action: ActionApprove}},
			{Label: "n", Payload: CallbackPayload{Kind: KindCommand, Action: ActionDeny}},
			{Label: "status", Payload: CallbackPayload{Kind: KindCommand, Action: ActionStatus}},
			{Label: "sessions", Payload: CallbackPayload{Kind: KindCommand, Action: ActionSessions}},
		},
	}
	for _, session := range sessions {
		message.Actions = append(message.Actions,
			Action{Label: session + " y", Payload: CallbackPayload{Kind: KindCommand, Session: session, Action: ActionApprove}},
			Action{Label: session + " n", Payload: CallbackPayload{Kind: KindCommand, Session: session, Action: ActionDeny}},
			Action{Label: session + " status", Payload: CallbackPayload{Kind: KindCommand, Session: session, Action: ActionStatus}},
		)
	}
	return message
}

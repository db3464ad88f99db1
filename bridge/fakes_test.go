// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"sync"
	"time"
)

// fakeHost is an in-memory Host. Tests control the session list and
// pane content directly and observe every injection.
type fakeHost struct {
	mu        sync.Mutex
	sessions  []HostSession
	captures  map[string]string
	injected  map[string][]string
	probeErr  error
	injectErr error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		captures: make(map[string]string),
		injected: make(map[string][]string),
	}
}

func (h *fakeHost) addSession(name string, createdAt time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = append(h.sessions, HostSession{Name: name, CreatedAt: createdAt})
}

func (h *fakeHost) removeSession(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.sessions[:0]
	for _, session := range h.sessions {
		if session.Name != name {
			kept = append(kept, session)
		}
	}
	h.sessions = kept
}

func (h *fakeHost) setCapture(name, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.captures[name] = content
}

func (h *fakeHost) setProbeError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probeErr = err
}

func (h *fakeHost) injections(name string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.injected[name]...)
}

func (h *fakeHost) Sessions(ctx context.Context) ([]HostSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.probeErr != nil {
		return nil, h.probeErr
	}
	return append([]HostSession(nil), h.sessions...), nil
}

func (h *fakeHost) SendText(ctx context.Context, session, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.injectErr != nil {
		return h.injectErr
	}
	found := false
	for _, existing := range h.sessions {
		if existing.Name == session {
			found = true
			break
		}
	}
	if !found {
		return &SessionNotFoundError{Name: session}
	}
	h.injected[session] = append(h.injected[session], text)
	return nil
}

func (h *fakeHost) Capture(ctx context.Context, session string, maxLines int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	content, ok := h.captures[session]
	if !ok {
		return "", &SessionNotFoundError{Name: session}
	}
	return content, nil
}

// fakeTransport is a channel-backed Transport. Tests push inbound
// events and read outbound messages.
type fakeTransport struct {
	inbound chan InboundEvent
	sent    chan OutboundMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		inbound: make(chan InboundEvent, 64),
		sent:    make(chan OutboundMessage, 64),
	}
}

func (t *fakeTransport) Start(ctx context.Context) error { return nil }

func (t *fakeTransport) Next(ctx context.Context) (InboundEvent, error) {
	select {
	case event := <-t.inbound:
		return event, nil
	case <-ctx.Done():
		return InboundEvent{}, ctx.Err()
	}
}

func (t *fakeTransport) Send(ctx context.Context, message OutboundMessage) error {
	select {
	case t.sent <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

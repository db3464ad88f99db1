// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/chatpane/chatpane/lib/codec"
	"github.com/chatpane/chatpane/messaging"
)

// MatrixTransport adapts a messaging.Gateway to the Transport
// interface. Callback payloads are deterministic CBOR, base64-encoded
// into the io.chatpane content keys.
type MatrixTransport struct {
	gateway *messaging.Gateway
	logger  *slog.Logger
}

// NewMatrixTransport wraps a gateway.
func NewMatrixTransport(gateway *messaging.Gateway, logger *slog.Logger) *MatrixTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatrixTransport{gateway: gateway, logger: logger}
}

// Start connects the gateway and anchors the sync position.
func (t *MatrixTransport) Start(ctx context.Context) error {
	return t.gateway.Start(ctx)
}

// Next returns the next inbound event. Messages whose callback key
// fails to decode are delivered as plain text: a client bug should
// produce a visible "unknown command" reply, not a silent drop.
func (t *MatrixTransport) Next(ctx context.Context) (InboundEvent, error) {
	for {
		event, err := t.gateway.Next(ctx)
		if err != nil {
			return InboundEvent{}, err
		}

		content, ok := event.MessageContent()
		if !ok {
			t.logger.Debug("skipping non-message event", "event_id", event.EventID, "type", event.Type)
			continue
		}

		inbound := InboundEvent{
			SenderID: event.Sender,
			Text:     content.Body,
		}

		if content.Callback != "" {
			payload, err := decodeCallback(content.Callback)
			if err != nil {
				t.logger.Warn("undecodable callback payload",
					"event_id", event.EventID,
					"error", err,
				)
			} else {
				inbound.Callback = payload
			}
		}

		return inbound, nil
	}
}

// Send delivers a message, encoding any actions into content keys.
func (t *MatrixTransport) Send(ctx context.Context, message OutboundMessage) error {
	var content messaging.MessageContent
	if message.Notice {
		content = messaging.NewNoticeMessage(message.Body)
	} else {
		content = messaging.NewTextMessage(message.Body)
	}

	for _, action := range message.Actions {
		encoded, err := encodeCallback(action.Payload)
		if err != nil {
			return fmt.Errorf("encoding action %q: %w", action.Label, err)
		}
		content.Actions = append(content.Actions, messaging.Action{
			Label:    action.Label,
			Callback: encoded,
		})
	}

	return t.gateway.Send(ctx, content)
}

// encodeCallback serializes a payload to base64 CBOR.
func encodeCallback(payload CallbackPayload) (string, error) {
	data, err := codec.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// decodeCallback parses a base64 CBOR payload.
func decodeCallback(encoded string) (*CallbackPayload, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding callback base64: %w", err)
	}
	var payload CallbackPayload
	if err := codec.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decoding callback payload: %w", err)
	}
	return &payload, nil
}

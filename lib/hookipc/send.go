// Copyright 2026 The Chatpane Authors
// SPDX-License-Identifier: Apache-2.0

package hookipc

import (
	"context"
	"fmt"
	"net"

	"github.com/chatpane/chatpane/lib/codec"
)

// Send delivers one hook event to the daemon listening on socketPath.
// The connection is dialed, one CBOR frame is written, and the
// connection is closed. The context bounds the whole exchange.
func Send(ctx context.Context, socketPath string, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	var dialer net.Dialer
	connection, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("hookipc: dialing %s: %w", socketPath, err)
	}
	defer connection.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := connection.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("hookipc: setting write deadline: %w", err)
		}
	}

	if err := codec.NewEncoder(connection).Encode(event); err != nil {
		return fmt.Errorf("hookipc: writing event: %w", err)
	}
	return nil
}

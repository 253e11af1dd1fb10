// Package ws wires the hand-rolled wsserver engine to the agent loop: each
// inbound text frame is one non-streaming turn, replied with a single
// outbound text frame (spec §4.6, §4.7).
package ws

import (
	"context"

	"cclaw/pkg/wsserver"
)

// Turn drives one non-streaming agent loop turn for the given connection's
// session key and returns the reply text.
type Turn func(ctx context.Context, sessionKey string, text string) string

// New builds a wsserver.Server whose handler keys sessions by WebSocket
// connection id and drives turn non-streaming per inbound frame.
func New(token string, turn Turn) *wsserver.Server {
	return wsserver.New(token, func(ctx context.Context, connID, text string) string {
		return turn(ctx, "ws_"+connID, text)
	})
}

package primary

import (
	"context"
	"net"
)

// MessageHandler handles one decoded frame type on an accepted connection.
// The handler owns the reply; the server closes the connection afterwards.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conn net.Conn, payload []byte) error
}

// MessageHandlerFunc adapts a function to MessageHandler
type MessageHandlerFunc func(ctx context.Context, conn net.Conn, payload []byte) error

func (f MessageHandlerFunc) HandleMessage(ctx context.Context, conn net.Conn, payload []byte) error {
	return f(ctx, conn, payload)
}

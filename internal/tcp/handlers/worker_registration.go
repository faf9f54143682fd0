package handlers

import (
	"context"
	"net"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/services/dispatch"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/tcp/frame"
)

// Implementation of message handlers
// Each handler deals with one specific message type

var _ primary.MessageHandler = (*WorkerRegistrationHandler)(nil)

// WorkerRegistrationHandler handles REGISTER_WORKER messages on the dispatcher.
// Registration is not acknowledged; the connection is simply closed.
type WorkerRegistrationHandler struct {
	Dispatcher dispatch.IDispatchService
	Logger     primary.Logger
}

func NewWorkerRegistrationHandler(dispatcher dispatch.IDispatchService, logger primary.Logger) *WorkerRegistrationHandler {
	return &WorkerRegistrationHandler{
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// HandleMessage implements the MessageHandler interface
func (h *WorkerRegistrationHandler) HandleMessage(ctx context.Context, conn net.Conn, payload []byte) error {
	var info domain.ConnectivityInfo
	if err := frame.Decode(payload, &info); err != nil {
		h.Logger.Error("Failed to parse worker registration", "remote", conn.RemoteAddr().String(), "error", err)
		return err
	}

	h.Logger.Debug("Worker registration received", "worker", info.Name, "address", info.Addr())

	if err := h.Dispatcher.RegisterWorker(ctx, info); err != nil {
		h.Logger.Error("Failed to register worker", "worker", info.Name, "error", err)
		return err
	}
	return nil
}

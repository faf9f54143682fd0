package handlers

import (
	"context"
	"net"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/services/dispatch"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/tcp/defs"
	"gitlab.com/appserver.net/internal/tcp/frame"
)

var _ primary.MessageHandler = (*JobRequestHandler)(nil)

// JobRequestHandler handles client JOB_REQUEST messages on the dispatcher
type JobRequestHandler struct {
	Dispatcher dispatch.IDispatchService
	Logger     primary.Logger
}

func NewTCPJobRequestHandler(dispatcher dispatch.IDispatchService, logger primary.Logger) *JobRequestHandler {
	return &JobRequestHandler{
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// HandleMessage implements the MessageHandler interface
func (h *JobRequestHandler) HandleMessage(ctx context.Context, conn net.Conn, payload []byte) error {
	return serveJob(conn, payload, h.Logger, func(job *domain.Job) (*domain.JobResult, error) {
		return h.Dispatcher.Dispatch(ctx, job)
	})
}

// serveJob decodes a job, runs it and writes exactly one reply frame.
func serveJob(
	conn net.Conn,
	payload []byte,
	logger primary.Logger,
	run func(job *domain.Job) (*domain.JobResult, error),
) error {
	var job domain.Job
	if err := frame.Decode(payload, &job); err != nil {
		logger.Error("Failed to parse job request", "remote", conn.RemoteAddr().String(), "error", err)
		return frame.SendError(conn, job.ID, err)
	}

	result, err := run(&job)
	if err != nil {
		if sendErr := frame.SendError(conn, job.ID, err); sendErr != nil {
			logger.Error("Failed to send error reply", "jobId", job.ID, "error", sendErr)
			return sendErr
		}
		return nil
	}

	if err := frame.SendJSON(conn, defs.MsgJobResult, result); err != nil {
		logger.Error("Failed to send job result", "jobId", job.ID, "error", err)
		return err
	}
	return nil
}

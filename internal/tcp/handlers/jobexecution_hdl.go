package handlers

import (
	"context"
	"net"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/services/satellite"
	"gitlab.com/appserver.net/internal/domain"
)

var _ primary.MessageHandler = (*JobExecutionHandler)(nil)

// JobExecutionHandler handles JOB_REQUEST messages forwarded to a worker
type JobExecutionHandler struct {
	Satellite satellite.ISatelliteService
	Logger    primary.Logger
}

func NewJobExecutionHandler(sat satellite.ISatelliteService, logger primary.Logger) *JobExecutionHandler {
	return &JobExecutionHandler{
		Satellite: sat,
		Logger:    logger,
	}
}

// HandleMessage implements the MessageHandler interface
func (h *JobExecutionHandler) HandleMessage(ctx context.Context, conn net.Conn, payload []byte) error {
	return serveJob(conn, payload, h.Logger, func(job *domain.Job) (*domain.JobResult, error) {
		return h.Satellite.Execute(ctx, job)
	})
}

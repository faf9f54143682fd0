package secondary

import (
	"context"

	"gitlab.com/appserver.net/internal/domain"
)

// JobForwarder delivers a job to a worker and waits for its single reply
type JobForwarder interface {
	Forward(ctx context.Context, worker domain.ConnectivityInfo, job *domain.Job) (*domain.JobResult, error)
}

// Registrar announces a worker to the dispatcher
type Registrar interface {
	Register(ctx context.Context, dispatcherAddr string, info domain.ConnectivityInfo) error
}

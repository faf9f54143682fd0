package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/core/services/balancer"
	"gitlab.com/appserver.net/internal/core/services/registry"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/metrics"
	"gitlab.com/appserver.net/internal/static/errs"
)

// IDispatchService defines the dispatcher operations used by the connection handlers
type IDispatchService interface {
	// RegisterWorker adds or refreshes a worker and places it in the rotation
	RegisterWorker(ctx context.Context, info domain.ConnectivityInfo) error

	// Dispatch forwards job to the next worker in rotation and returns its reply
	Dispatch(ctx context.Context, job *domain.Job) (*domain.JobResult, error)

	// Workers reports the registered workers in rotation order
	Workers() []domain.WorkerStatus
}

var _ IDispatchService = &Dispatcher{}

// Dispatcher is built once per process and shared by every connection handler.
type Dispatcher struct {
	registry  registry.IWorkerRegistry
	balancer  balancer.IBalancer
	forwarder secondary.JobForwarder
	validate  *validator.Validate
	logger    primary.Logger
	tracer    trace.Tracer
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(
	workerRegistry registry.IWorkerRegistry,
	rotation balancer.IBalancer,
	forwarder secondary.JobForwarder,
	logger primary.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry:  workerRegistry,
		balancer:  rotation,
		forwarder: forwarder,
		validate:  validator.New(),
		logger:    logger.With("component", "dispatcher"),
		tracer:    otel.Tracer("appserver/dispatcher"),
	}
}

func (d *Dispatcher) RegisterWorker(ctx context.Context, info domain.ConnectivityInfo) error {
	if err := d.validate.Struct(info); err != nil {
		d.logger.Warn("Rejected worker registration", "worker", info.Name, "error", err)
		return fmt.Errorf("%w: %v", errs.ErrInvalidRegistration, err)
	}

	// Registry first: every name in the rotation must resolve.
	d.registry.Register(info)
	added := d.balancer.WorkerAdded(info.Name)
	metrics.WorkerRegistrationsTotal.Inc()

	if added {
		d.logger.Info("Worker registered", "worker", info.Name, "address", info.Addr())
	} else {
		d.logger.Info("Worker re-registered", "worker", info.Name, "address", info.Addr())
	}
	return nil
}

// Dispatch never modifies job; a missing id is assigned on the forwarded copy.
func (d *Dispatcher) Dispatch(ctx context.Context, in *domain.Job) (*domain.JobResult, error) {
	forwarded := *in
	job := &forwarded
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	ctx, span := d.tracer.Start(ctx, "dispatcher.Dispatch", trace.WithAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("tool.name", job.ToolName),
	))
	defer span.End()

	workerName, err := d.balancer.Next()
	if err != nil {
		span.SetStatus(codes.Error, "no workers available")
		d.logger.Warn("No worker to dispatch to", "jobId", job.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", errs.ErrNoWorkersAvailable, err)
	}

	span.SetAttributes(attribute.String("worker.name", workerName))

	info, err := d.registry.Lookup(workerName)
	if err != nil {
		span.SetStatus(codes.Error, "worker not in registry")
		d.logger.Error("Rotation and registry out of sync", "jobId", job.ID, "worker", workerName, "error", err)
		return nil, fmt.Errorf("%w: %w", errs.ErrNoWorkersAvailable, err)
	}

	logger := d.logger.With("jobId", job.ID, "tool", job.ToolName, "worker", workerName)
	logger.Info("Dispatching job")

	start := time.Now()
	result, err := d.forwarder.Forward(ctx, info, job)
	metrics.JobDispatchDuration.WithLabelValues(workerName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.JobsDispatchedTotal.WithLabelValues(workerName, metrics.StatusFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "forward failed")
		var remote *errs.RemoteError
		if errors.As(err, &remote) {
			// The worker answered; its failure is relayed as is.
			logger.Warn("Worker reported job failure", "error", err)
			return nil, err
		}
		logger.Error("Failed to forward job", "error", err)
		if !errors.Is(err, errs.ErrWorkerUnreachable) {
			err = fmt.Errorf("%w: %w", errs.ErrWorkerUnreachable, err)
		}
		return nil, err
	}

	metrics.JobsDispatchedTotal.WithLabelValues(workerName, metrics.StatusSuccess).Inc()
	result.Worker = workerName
	logger.Info("Job completed", "duration", time.Since(start))
	return result, nil
}

func (d *Dispatcher) Workers() []domain.WorkerStatus {
	names, next := d.balancer.Names()

	statuses := make([]domain.WorkerStatus, 0, len(names))
	for i, name := range names {
		info, err := d.registry.Lookup(name)
		if err != nil {
			continue
		}
		statuses = append(statuses, domain.WorkerStatus{
			ConnectivityInfo: info,
			RotationIndex:    i,
			NextInLine:       i == next,
		})
	}
	return statuses
}

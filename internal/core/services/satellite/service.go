package satellite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/core/services/toolcache"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/metrics"
	"gitlab.com/appserver.net/internal/static/errs"
)

// ISatelliteService defines the worker-side operations
type ISatelliteService interface {
	// Register announces this worker to the dispatcher
	Register(ctx context.Context) error

	// Execute runs job with the tool it names
	Execute(ctx context.Context, job *domain.Job) (*domain.JobResult, error)
}

var _ ISatelliteService = &Satellite{}

// Options tunes registration retries and execution bounds
type Options struct {
	ExecuteTimeout   time.Duration
	RegisterAttempts int
	RegisterBackoff  time.Duration
}

// DefaultOptions returns the settings used when the configuration leaves them out
func DefaultOptions() Options {
	return Options{
		ExecuteTimeout:   time.Minute,
		RegisterAttempts: 5,
		RegisterBackoff:  2 * time.Second,
	}
}

// Satellite is built once per worker process and shared by every connection.
type Satellite struct {
	info           domain.ConnectivityInfo
	dispatcherAddr string
	tools          toolcache.IToolCache
	registrar      secondary.Registrar
	opts           Options
	logger         primary.Logger
	tracer         trace.Tracer
}

// NewSatellite creates the worker context
func NewSatellite(
	info domain.ConnectivityInfo,
	dispatcherAddr string,
	tools toolcache.IToolCache,
	registrar secondary.Registrar,
	opts Options,
	logger primary.Logger,
) *Satellite {
	defaults := DefaultOptions()
	if opts.ExecuteTimeout <= 0 {
		opts.ExecuteTimeout = defaults.ExecuteTimeout
	}
	if opts.RegisterAttempts <= 0 {
		opts.RegisterAttempts = defaults.RegisterAttempts
	}
	if opts.RegisterBackoff < 0 {
		opts.RegisterBackoff = defaults.RegisterBackoff
	}

	return &Satellite{
		info:           info,
		dispatcherAddr: dispatcherAddr,
		tools:          tools,
		registrar:      registrar,
		opts:           opts,
		logger:         logger.With("worker", info.Name),
		tracer:         otel.Tracer("appserver/satellite"),
	}
}

// Info returns the descriptor this worker registers with
func (s *Satellite) Info() domain.ConnectivityInfo {
	return s.info
}

// Register must only be called once the worker's listener is bound.
func (s *Satellite) Register(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.opts.RegisterAttempts; attempt++ {
		lastErr = s.registrar.Register(ctx, s.dispatcherAddr, s.info)
		if lastErr == nil {
			s.logger.Info("Registered with dispatcher", "dispatcher", s.dispatcherAddr, "attempt", attempt)
			return nil
		}

		s.logger.Warn("Registration attempt failed",
			"dispatcher", s.dispatcherAddr,
			"attempt", attempt,
			"of", s.opts.RegisterAttempts,
			"error", lastErr,
		)
		if attempt == s.opts.RegisterAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("registration with %s cancelled: %w", s.dispatcherAddr, ctx.Err())
		case <-time.After(s.opts.RegisterBackoff):
		}
	}
	return fmt.Errorf("failed to register with dispatcher at %s after %d attempts: %w",
		s.dispatcherAddr, s.opts.RegisterAttempts, lastErr)
}

func (s *Satellite) Execute(ctx context.Context, job *domain.Job) (*domain.JobResult, error) {
	logger := s.logger.With("jobId", job.ID, "tool", job.ToolName)

	ctx, span := s.tracer.Start(ctx, "satellite.Execute", trace.WithAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("tool.name", job.ToolName),
		attribute.String("worker.name", s.info.Name),
	))
	defer span.End()

	tool, err := s.tools.Resolve(ctx, job.ToolName)
	if err != nil {
		metrics.JobExecutionTotal.WithLabelValues(metrics.UnresolvedTool, metrics.StatusFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool resolution failed")
		logger.Warn("Failed to resolve tool", "error", err)
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, s.opts.ExecuteTimeout)
	defer cancel()

	start := time.Now()
	out, err := tool.Execute(execCtx, job.Parameters)
	if err == nil && execCtx.Err() != nil {
		err = execCtx.Err()
	}
	if err != nil {
		metrics.JobExecutionTotal.WithLabelValues(job.ToolName, metrics.StatusFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool execution failed")
		logger.Warn("Tool execution failed", "error", err, "duration", time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %w", errs.ErrTimeout, job.ToolName, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrToolExecution, job.ToolName, err)
	}

	result, err := json.Marshal(out)
	if err != nil {
		metrics.JobExecutionTotal.WithLabelValues(job.ToolName, metrics.StatusFailed).Inc()
		return nil, fmt.Errorf("%w: %s: result is not serializable: %w", errs.ErrToolExecution, job.ToolName, err)
	}

	metrics.JobExecutionTotal.WithLabelValues(job.ToolName, metrics.StatusSuccess).Inc()
	logger.Info("Job executed", "duration", time.Since(start))

	return &domain.JobResult{JobID: job.ID, Worker: s.info.Name, Result: result}, nil
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/services/dispatch"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/handlers"
	"gitlab.com/appserver.net/internal/handlers/response"
	"gitlab.com/appserver.net/internal/static/errs"
)

// JobHandler lets HTTP clients run a job through the dispatcher and wait for its result
type JobHandler struct {
	dispatcher dispatch.IDispatchService
	validate   *validator.Validate
	timeout    time.Duration
	logger     primary.Logger
}

// NewJobHandler creates a new job handler. A positive timeout bounds each
// dispatch and is reported as a gateway timeout when it expires.
func NewJobHandler(dispatcher dispatch.IDispatchService, timeout time.Duration, logger primary.Logger) *JobHandler {
	return &JobHandler{
		dispatcher: dispatcher,
		validate:   validator.New(),
		timeout:    timeout,
		logger:     logger,
	}
}

// RegisterRoutes registers the API routes for JobHandler
func (h *JobHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/jobs", h.CreateJob).Methods("POST")
}

// CreateJob dispatches the job and responds once the worker has answered
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		handlers.ResponseError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := domain.NewJob(req.ToolName, req.Parameters)
	if req.JobID != uuid.Nil {
		job.ID = req.JobID
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.dispatcher.Dispatch(ctx, job)
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, errs.ErrTimeout) {
		err = fmt.Errorf("%w: %w", errs.ErrTimeout, err)
	}
	if err != nil {
		h.logger.Warn("Job failed", "jobId", job.ID, "tool", job.ToolName, "error", err)
		response.WriteError(w, err)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, CreateJobResponse{
		JobID:  result.JobID,
		Worker: result.Worker,
		Result: result.Result,
	})
}

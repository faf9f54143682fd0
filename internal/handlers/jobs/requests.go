package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
)

// CreateJobRequest represents a request to run a job
type CreateJobRequest struct {
	JobID      uuid.UUID       `json:"job_id"`
	ToolName   string          `json:"tool_name" validate:"required"`
	Parameters json.RawMessage `json:"parameters"`
}

// CreateJobResponse carries the result of a completed job
type CreateJobResponse struct {
	JobID  uuid.UUID       `json:"job_id"`
	Worker string          `json:"worker"`
	Result json.RawMessage `json:"result"`
}

package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Job represents a request to run a named tool with opaque parameters.
// It is forwarded unchanged from client to dispatcher to worker.
type Job struct {
	ID         uuid.UUID       `json:"job_id"`
	ToolName   string          `json:"tool_name"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// NewJob creates a job with a fresh correlation id
func NewJob(toolName string, parameters json.RawMessage) *Job {
	return &Job{
		ID:         uuid.New(),
		ToolName:   toolName,
		Parameters: parameters,
	}
}

// JobResult is the value a worker sends back for a job
type JobResult struct {
	JobID  uuid.UUID       `json:"job_id"`
	Worker string          `json:"worker,omitempty"`
	Result json.RawMessage `json:"result"`
}

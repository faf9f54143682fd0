package defs

import (
	"github.com/google/uuid"
)

// Protocol data structures. REGISTER_WORKER carries a domain.ConnectivityInfo,
// JOB_REQUEST a domain.Job and JOB_RESULT a domain.JobResult.
type (
	// ErrorData represents data sent with error responses
	ErrorData struct {
		Code    int        `json:"code"`
		Kind    string     `json:"kind"`
		Message string     `json:"message"`
		JobID   *uuid.UUID `json:"job_id,omitempty"`
	}
)

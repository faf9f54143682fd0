package response

import (
	"encoding/json"
	"net/http"

	"gitlab.com/appserver.net/internal/static/errs"
)

// ErrorMessage is the body of every failed API response
type ErrorMessage struct {
	Code       int    `json:"code"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

var statusByCode = map[int]int{
	errs.CodeProtocol:               http.StatusBadRequest,
	errs.CodeInvalidRegistration:    http.StatusBadRequest,
	errs.CodeUnsupportedMessageType: http.StatusBadRequest,
	errs.CodeUnknownTool:            http.StatusNotFound,
	errs.CodeUnknownWorker:          http.StatusNotFound,
	errs.CodeToolExecution:          http.StatusUnprocessableEntity,
	errs.CodeNoWorkersAvailable:     http.StatusServiceUnavailable,
	errs.CodeEmptyRotation:          http.StatusServiceUnavailable,
	errs.CodeWorkerUnreachable:      http.StatusBadGateway,
	errs.CodeTimeout:                http.StatusGatewayTimeout,
}

// StatusFor maps an error onto the HTTP status that reports it
func StatusFor(err error) int {
	code, _ := errs.Code(err)
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError writes err with its wire code, kind and matching HTTP status
func WriteError(w http.ResponseWriter, err error) {
	code, kind := errs.Code(err)
	msg := ErrorMessage{
		Code:       code,
		Kind:       kind,
		Message:    err.Error(),
		StatusCode: StatusFor(err),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(msg.StatusCode)
	_ = json.NewEncoder(w).Encode(msg)
}

func WriteSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

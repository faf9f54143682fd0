package errs

import (
	"errors"
	"fmt"
)

var (
	ErrProtocol               = errors.New("protocol error")
	ErrUnsupportedMessageType = errors.New("unsupported message type")
	ErrUnknownWorker          = errors.New("unknown worker")
	ErrEmptyRotation          = errors.New("empty rotation")
	ErrNoWorkersAvailable     = errors.New("no workers available")
	ErrWorkerUnreachable      = errors.New("worker unreachable")
	ErrTimeout                = errors.New("timeout")
	ErrUnknownTool            = errors.New("unknown tool")
	ErrToolExecution          = errors.New("tool execution failed")
	ErrInvalidRegistration    = errors.New("invalid registration")
)

// Wire error codes
const (
	CodeInternal               = 1000
	CodeProtocol               = 1001
	CodeUnsupportedMessageType = 1002
	CodeUnknownWorker          = 1003
	CodeEmptyRotation          = 1004
	CodeNoWorkersAvailable     = 1005
	CodeWorkerUnreachable      = 1006
	CodeTimeout                = 1007
	CodeUnknownTool            = 1008
	CodeToolExecution          = 1009
	CodeInvalidRegistration    = 1010
)

type classification struct {
	err  error
	code int
	kind string
}

// Ordered most specific first: a forward timeout matches both ErrTimeout
// and ErrWorkerUnreachable and must be reported as a timeout.
var classifications = []classification{
	{ErrTimeout, CodeTimeout, "Timeout"},
	{ErrUnknownTool, CodeUnknownTool, "UnknownTool"},
	{ErrToolExecution, CodeToolExecution, "ToolExecutionFailed"},
	{ErrNoWorkersAvailable, CodeNoWorkersAvailable, "NoWorkersAvailable"},
	{ErrEmptyRotation, CodeEmptyRotation, "EmptyRotation"},
	{ErrUnknownWorker, CodeUnknownWorker, "UnknownWorker"},
	{ErrWorkerUnreachable, CodeWorkerUnreachable, "WorkerUnreachable"},
	{ErrUnsupportedMessageType, CodeUnsupportedMessageType, "UnsupportedMessageType"},
	{ErrInvalidRegistration, CodeInvalidRegistration, "InvalidRegistration"},
	{ErrProtocol, CodeProtocol, "ProtocolError"},
}

// Code maps an error onto its wire code and kind.
func Code(err error) (int, string) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Code, remote.Kind
	}
	for _, c := range classifications {
		if errors.Is(err, c.err) {
			return c.code, c.kind
		}
	}
	return CodeInternal, "InternalError"
}

// Sentinel returns the sentinel error registered for a wire code, or nil.
func Sentinel(code int) error {
	for _, c := range classifications {
		if c.code == code {
			return c.err
		}
	}
	return nil
}

// RemoteError is an error reported by the other end of a connection.
type RemoteError struct {
	Code    int
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
}

// Unwrap lets errors.Is match the sentinel behind the code, so callers can
// test a relayed failure the same way as a local one.
func (e *RemoteError) Unwrap() error {
	return Sentinel(e.Code)
}

package tools

import (
	"context"
	"encoding/json"
)

// Tool is the execution contract every pluggable compute unit implements.
// Parameters are the job's opaque payload; decoding them is up to the tool.
// The returned value must be JSON-marshalable.
type Tool interface {
	Execute(ctx context.Context, params json.RawMessage) (any, error)
}

// ToolFunc adapts a function to Tool
type ToolFunc func(ctx context.Context, params json.RawMessage) (any, error)

func (f ToolFunc) Execute(ctx context.Context, params json.RawMessage) (any, error) {
	return f(ctx, params)
}

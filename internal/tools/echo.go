package tools

import (
	"context"
	"encoding/json"

	"gitlab.com/appserver.net/internal/domain"
)

const KindEcho = "echo"

// EchoTool returns its parameters unchanged
type EchoTool struct{}

var _ Tool = (*EchoTool)(nil)

func NewEchoTool(domain.ToolDefinition) (Tool, error) {
	return &EchoTool{}, nil
}

func (t *EchoTool) Execute(_ context.Context, params json.RawMessage) (any, error) {
	if len(params) == 0 {
		return json.RawMessage("null"), nil
	}
	return params, nil
}

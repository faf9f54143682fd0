package secondary

import (
	"context"

	"gitlab.com/appserver.net/internal/domain"
)

// ToolProvider hands out tool definitions by name
type ToolProvider interface {
	// Provide returns the definition for name, or an error wrapping
	// errs.ErrUnknownTool when the provider has none.
	Provide(ctx context.Context, name string) (*domain.ToolDefinition, error)
}

// ToolRepository is a ToolProvider that can also enumerate and store definitions
type ToolRepository interface {
	ToolProvider

	List(ctx context.Context) ([]*domain.ToolDefinition, error)

	Save(ctx context.Context, def *domain.ToolDefinition) error
}

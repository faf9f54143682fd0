package toolcatalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
	"gitlab.com/appserver.net/internal/tools"
)

// QualifiedFibName is the fully qualified name older clients submit fib jobs under
const QualifiedFibName = "appserver.job.impl.Fib"

var _ secondary.ToolRepository = (*Catalog)(nil)

// Catalog is an in-memory tool repository
type Catalog struct {
	mu          sync.RWMutex
	definitions map[string]domain.ToolDefinition
}

// NewCatalog creates a catalog holding defs
func NewCatalog(defs ...domain.ToolDefinition) *Catalog {
	c := &Catalog{definitions: make(map[string]domain.ToolDefinition, len(defs))}
	for _, def := range defs {
		c.definitions[def.Name] = def
	}
	return c
}

// Builtin returns a catalog with every built-in tool under its own name
func Builtin() *Catalog {
	return NewCatalog(
		domain.ToolDefinition{Name: tools.KindEcho, Kind: tools.KindEcho},
		domain.ToolDefinition{Name: tools.KindFib, Kind: tools.KindFib},
		domain.ToolDefinition{Name: QualifiedFibName, Kind: tools.KindFib},
		domain.ToolDefinition{Name: tools.KindCalculator, Kind: tools.KindCalculator},
	)
}

func (c *Catalog) Provide(_ context.Context, name string) (*domain.ToolDefinition, error) {
	c.mu.RLock()
	def, ok := c.definitions[name]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTool, name)
	}
	return &def, nil
}

func (c *Catalog) List(_ context.Context) ([]*domain.ToolDefinition, error) {
	c.mu.RLock()
	defs := make([]*domain.ToolDefinition, 0, len(c.definitions))
	for _, def := range c.definitions {
		def := def
		defs = append(defs, &def)
	}
	c.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

func (c *Catalog) Save(_ context.Context, def *domain.ToolDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("tool definition needs a name")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.definitions[def.Name] = *def
	return nil
}

package tools

import (
	"fmt"
	"sort"
	"sync"

	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
)

// Constructor instantiates a tool from its definition
type Constructor func(def domain.ToolDefinition) (Tool, error)

// Factory turns tool definitions into tool instances, keyed by kind
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates an empty factory
func NewFactory() *Factory {
	return &Factory{
		constructors: make(map[string]Constructor),
	}
}

// NewDefaultFactory creates a factory with every built-in tool kind
func NewDefaultFactory() *Factory {
	f := NewFactory()
	f.Register(KindEcho, NewEchoTool)
	f.Register(KindFib, NewFibTool)
	f.Register(KindCalculator, NewCalculatorTool)
	return f
}

// Register adds or replaces the constructor for kind
func (f *Factory) Register(kind string, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[kind] = constructor
}

// New instantiates the tool described by def
func (f *Factory) New(def domain.ToolDefinition) (Tool, error) {
	f.mu.RLock()
	constructor, ok := f.constructors[def.Kind]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: no implementation for kind %q of tool %q", errs.ErrUnknownTool, def.Kind, def.Name)
	}

	tool, err := constructor(def)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate tool %q: %w", def.Name, err)
	}
	if tool == nil {
		return nil, fmt.Errorf("failed to instantiate tool %q: constructor for kind %q returned no tool", def.Name, def.Kind)
	}
	return tool, nil
}

// Kinds lists the registered kinds
func (f *Factory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]string, 0, len(f.constructors))
	for kind := range f.constructors {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

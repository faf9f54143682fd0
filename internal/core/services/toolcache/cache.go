package toolcache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/metrics"
	"gitlab.com/appserver.net/internal/static/errs"
	"gitlab.com/appserver.net/internal/tools"
)

// IToolCache resolves tool names to instantiated tools
type IToolCache interface {
	// Resolve returns the cached tool for name, provisioning it on a miss
	Resolve(ctx context.Context, name string) (tools.Tool, error)
}

var _ IToolCache = &Cache{}

// Cache keeps one tool instance per name for the lifetime of the worker.
// Misses for the same name share a single provisioning call.
type Cache struct {
	provider secondary.ToolProvider
	factory  *tools.Factory
	logger   primary.Logger

	mu    sync.RWMutex
	tools map[string]tools.Tool
	group singleflight.Group
}

// NewCache creates an empty tool cache
func NewCache(provider secondary.ToolProvider, factory *tools.Factory, logger primary.Logger) *Cache {
	return &Cache{
		provider: provider,
		factory:  factory,
		logger:   logger.With("component", "tool-cache"),
		tools:    make(map[string]tools.Tool),
	}
}

func (c *Cache) Resolve(ctx context.Context, name string) (tools.Tool, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty tool name", errs.ErrUnknownTool)
	}

	if tool, ok := c.get(name); ok {
		metrics.ToolCacheLookupsTotal.WithLabelValues("hit").Inc()
		c.logger.Debug("Tool already in cache", "tool", name)
		return tool, nil
	}
	metrics.ToolCacheLookupsTotal.WithLabelValues("miss").Inc()

	// The provisioning call must not be cancelled because the first caller
	// went away; callers sharing the flight would all see the cancellation.
	ch := c.group.DoChan(name, func() (interface{}, error) {
		return c.provision(context.WithoutCancel(ctx), name)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		tool, ok := res.Val.(tools.Tool)
		if !ok || tool == nil {
			return nil, fmt.Errorf("%w: %s resolved to no tool", errs.ErrUnknownTool, name)
		}
		return tool, nil
	}
}

func (c *Cache) provision(ctx context.Context, name string) (tools.Tool, error) {
	// A flight that finished just before this one started has already
	// filled the cache.
	if tool, ok := c.get(name); ok {
		return tool, nil
	}

	c.logger.Info("Provisioning tool", "tool", name)

	def, err := c.provider.Provide(ctx, name)
	if err != nil {
		outcome := "error"
		if errors.Is(err, errs.ErrUnknownTool) {
			outcome = "unknown"
		}
		metrics.ToolProvisionsTotal.WithLabelValues(metrics.UnresolvedTool, outcome).Inc()
		c.logger.Warn("Failed to provision tool", "tool", name, "error", err)
		return nil, err
	}

	tool, err := c.factory.New(*def)
	if err != nil {
		metrics.ToolProvisionsTotal.WithLabelValues(metrics.UnresolvedTool, "error").Inc()
		c.logger.Error("Failed to instantiate tool", "tool", name, "kind", def.Kind, "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.tools[name] = tool
	c.mu.Unlock()

	metrics.ToolProvisionsTotal.WithLabelValues(name, "provisioned").Inc()
	c.logger.Info("Tool provisioned", "tool", name, "kind", def.Kind)
	return tool, nil
}

func (c *Cache) get(name string) (tools.Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tool, ok := c.tools[name]
	return tool, ok
}

// Names lists the cached tool names
func (c *Cache) Names() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	c.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

package toolport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
)

const (
	toolKeyPrefix = "tool:"
	scanBatchSize = 100
)

var _ secondary.ToolRepository = (*ToolRepository)(nil)

// ToolRepository implements the ToolRepository interface with Redis.
// Each definition is stored as JSON under tool:<name>.
type ToolRepository struct {
	redisClient *redis.Client
	logger      primary.Logger
}

// NewToolRepository creates a new Redis tool repository
func NewToolRepository(redisClient *redis.Client, logger primary.Logger) *ToolRepository {
	return &ToolRepository{
		redisClient: redisClient,
		logger:      logger,
	}
}

func toolKey(name string) string {
	return toolKeyPrefix + name
}

// Provide retrieves a tool definition from Redis by name
func (r *ToolRepository) Provide(ctx context.Context, name string) (*domain.ToolDefinition, error) {
	toolJSON, err := r.redisClient.Get(ctx, toolKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTool, name)
		}
		r.logger.Error("Failed to get tool definition", "tool", name, "error", err)
		return nil, fmt.Errorf("failed to get tool definition: %w", err)
	}

	var def domain.ToolDefinition
	if err := json.Unmarshal(toolJSON, &def); err != nil {
		r.logger.Error("Failed to unmarshal tool definition", "tool", name, "error", err)
		return nil, fmt.Errorf("failed to unmarshal tool definition: %w", err)
	}
	if def.Name == "" {
		def.Name = name
	}
	return &def, nil
}

// List retrieves all tool definitions from Redis.
func (r *ToolRepository) List(ctx context.Context) ([]*domain.ToolDefinition, error) {
	var cursor uint64
	var toolKeys []string
	var err error

	// Use SCAN to iterate over keys with the specified prefix
	for {
		var keys []string
		keys, cursor, err = r.redisClient.Scan(ctx, cursor, toolKeyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan tool keys: %w", err)
		}
		toolKeys = append(toolKeys, keys...)
		if cursor == 0 {
			break
		}
	}

	defs := make([]*domain.ToolDefinition, 0, len(toolKeys))
	if len(toolKeys) == 0 {
		return defs, nil
	}

	// Use MGET to retrieve all definitions at once
	toolData, err := r.redisClient.MGet(ctx, toolKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tool definitions: %w", err)
	}

	for i, data := range toolData {
		raw, ok := data.(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		var def domain.ToolDefinition
		if err := json.Unmarshal([]byte(raw), &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tool definition %s: %w", toolKeys[i], err)
		}
		if def.Name == "" {
			def.Name = toolKeys[i][len(toolKeyPrefix):]
		}
		defs = append(defs, &def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// Save stores a tool definition in Redis without expiration
func (r *ToolRepository) Save(ctx context.Context, def *domain.ToolDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("tool definition needs a name")
	}

	toolJSON, err := json.Marshal(def)
	if err != nil {
		r.logger.Error("Failed to marshal tool definition", "error", err)
		return fmt.Errorf("failed to marshal tool definition: %w", err)
	}

	if err := r.redisClient.Set(ctx, toolKey(def.Name), toolJSON, 0).Err(); err != nil {
		r.logger.Error("Failed to save tool definition", "tool", def.Name, "error", err)
		return fmt.Errorf("failed to save tool definition: %w", err)
	}
	return nil
}

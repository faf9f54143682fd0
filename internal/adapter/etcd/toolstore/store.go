package toolstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
)

// DefaultPrefix is the key directory tool definitions live under
const DefaultPrefix = "/appserver/tools/"

var _ secondary.ToolRepository = (*ToolStore)(nil)

// NewClient connects to an etcd cluster
func NewClient(endpoints []string, timeout time.Duration) (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return cli, nil
}

// ToolStore keeps tool definitions as JSON values under prefix/<name>
type ToolStore struct {
	kv     clientv3.KV
	prefix string
	logger primary.Logger
	tracer trace.Tracer
}

// NewToolStore creates a store on top of any etcd KV; an empty prefix uses DefaultPrefix
func NewToolStore(kv clientv3.KV, prefix string, logger primary.Logger) *ToolStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ToolStore{
		kv:     kv,
		prefix: prefix,
		logger: logger,
		tracer: otel.Tracer("appserver/etcd-toolstore"),
	}
}

func (s *ToolStore) key(name string) string {
	return path.Join(s.prefix, name)
}

// Provide retrieves a tool definition from etcd
func (s *ToolStore) Provide(ctx context.Context, name string) (*domain.ToolDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "toolstore.etcd.Provide")
	defer span.End()

	key := s.key(name)
	span.SetAttributes(attribute.String("tool.name", name), attribute.String("etcd.key", key))

	resp, err := s.kv.Get(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get tool from etcd")
		s.logger.Error("Failed to get tool definition", "tool", name, "error", err)
		return nil, fmt.Errorf("failed to get tool %s from etcd: %w", name, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTool, name)
	}

	var def domain.ToolDefinition
	if err := json.Unmarshal(resp.Kvs[0].Value, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool %s from JSON: %w", name, err)
	}
	if def.Name == "" {
		def.Name = name
	}
	return &def, nil
}

// List retrieves all tool definitions under the prefix
func (s *ToolStore) List(ctx context.Context) ([]*domain.ToolDefinition, error) {
	ctx, span := s.tracer.Start(ctx, "toolstore.etcd.List")
	defer span.End()

	resp, err := s.kv.Get(ctx, s.prefix, clientv3.WithPrefix())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list tools from etcd")
		return nil, fmt.Errorf("failed to list tools from etcd: %w", err)
	}
	span.SetAttributes(attribute.Int("etcd.kv_count", len(resp.Kvs)))

	defs := make([]*domain.ToolDefinition, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var def domain.ToolDefinition
		if err := json.Unmarshal(kv.Value, &def); err != nil {
			s.logger.Warn("Failed to unmarshal tool from etcd", "key", string(kv.Key), "error", err)
			continue
		}
		if def.Name == "" {
			def.Name = strings.TrimPrefix(string(kv.Key), s.prefix)
		}
		defs = append(defs, &def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// Save persists a tool definition to etcd
func (s *ToolStore) Save(ctx context.Context, def *domain.ToolDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("tool definition needs a name")
	}

	ctx, span := s.tracer.Start(ctx, "toolstore.etcd.Save")
	defer span.End()

	defJSON, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal tool to JSON: %w", err)
	}

	key := s.key(def.Name)
	span.SetAttributes(attribute.String("tool.name", def.Name), attribute.String("etcd.key", key))

	if _, err := s.kv.Put(ctx, key, string(defJSON)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put tool to etcd")
		return fmt.Errorf("failed to save tool %s to etcd: %w", def.Name, err)
	}
	return nil
}

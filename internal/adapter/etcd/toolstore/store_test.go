package toolstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"gitlab.com/appserver.net/internal/adapter/logging"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
)

// memKV serves Get and Put from a map; other KV methods are not used.
type memKV struct {
	clientv3.KV

	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(val)
	return &clientv3.PutResponse{}, nil
}

func (m *memKV) Get(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := clientv3.OpGet(key, opts...)
	end := string(op.RangeBytes())

	keys := make([]string, 0)
	for k := range m.data {
		if (end == "" && k == key) || (end != "" && k >= key && k < end) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	resp := &clientv3.GetResponse{}
	for _, k := range keys {
		resp.Kvs = append(resp.Kvs, &mvccpb.KeyValue{Key: []byte(k), Value: m.data[k]})
	}
	resp.Count = int64(len(resp.Kvs))
	return resp, nil
}

func TestToolStore(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	store := NewToolStore(kv, "", logging.NewNopLogger())

	t.Run("unknown tool", func(t *testing.T) {
		_, err := store.Provide(ctx, "fib")
		require.ErrorIs(t, err, errs.ErrUnknownTool)
	})

	t.Run("save then provide", func(t *testing.T) {
		def := &domain.ToolDefinition{Name: "fib", Kind: "fib", Config: json.RawMessage(`{"max":40}`)}
		require.NoError(t, store.Save(ctx, def))
		require.Contains(t, kv.data, DefaultPrefix+"fib")

		got, err := store.Provide(ctx, "fib")
		require.NoError(t, err)
		require.Equal(t, "fib", got.Kind)
		require.JSONEq(t, `{"max":40}`, string(got.Config))
	})

	t.Run("list only reads the prefix", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.ToolDefinition{Name: "echo", Kind: "echo"}))
		kv.data["/elsewhere/calc"] = []byte(`{"name":"calc","kind":"calculator"}`)

		defs, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		require.Equal(t, "echo", defs[0].Name)
		require.Equal(t, "fib", defs[1].Name)
	})

	t.Run("name defaults to key", func(t *testing.T) {
		kv.data[DefaultPrefix+"calc"] = []byte(`{"kind":"calculator"}`)

		got, err := store.Provide(ctx, "calc")
		require.NoError(t, err)
		require.Equal(t, "calc", got.Name)
	})

	t.Run("save requires a name", func(t *testing.T) {
		require.Error(t, store.Save(ctx, &domain.ToolDefinition{Kind: "echo"}))
	})
}

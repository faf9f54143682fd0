package toolcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"gitlab.com/appserver.net/internal/adapter/logging"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/metrics"
	"gitlab.com/appserver.net/internal/static/errs"
	"gitlab.com/appserver.net/internal/tools"
)

type countingProvider struct {
	defs  map[string]domain.ToolDefinition
	calls atomic.Int32
	delay time.Duration
}

func (p *countingProvider) Provide(ctx context.Context, name string) (*domain.ToolDefinition, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	def, ok := p.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTool, name)
	}
	return &def, nil
}

func newProvider() *countingProvider {
	return &countingProvider{defs: map[string]domain.ToolDefinition{
		"echo": {Name: "echo", Kind: tools.KindEcho},
		"fib":  {Name: "fib", Kind: tools.KindFib},
		"odd":  {Name: "odd", Kind: "cobol"},
	}}
}

func TestResolveCachesTool(t *testing.T) {
	provider := newProvider()
	cache := NewCache(provider, tools.NewDefaultFactory(), logging.NewNopLogger())

	first, err := cache.Resolve(context.Background(), "fib")
	require.NoError(t, err)

	second, err := cache.Resolve(context.Background(), "fib")
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Equal(t, int32(1), provider.calls.Load())
	require.Equal(t, []string{"fib"}, cache.Names())

	out, err := second.Execute(context.Background(), json.RawMessage(`10`))
	require.NoError(t, err)
	require.Equal(t, uint64(55), out)
}

func TestResolveUnknownTool(t *testing.T) {
	provider := newProvider()
	cache := NewCache(provider, tools.NewDefaultFactory(), logging.NewNopLogger())

	_, err := cache.Resolve(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrUnknownTool)
	require.Zero(t, cache.Len())

	// Failures are not cached.
	_, err = cache.Resolve(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrUnknownTool)
	require.Equal(t, int32(2), provider.calls.Load())
}

func TestResolveUnknownKind(t *testing.T) {
	cache := NewCache(newProvider(), tools.NewDefaultFactory(), logging.NewNopLogger())

	_, err := cache.Resolve(context.Background(), "odd")
	require.ErrorIs(t, err, errs.ErrUnknownTool)
}

func TestResolveEmptyName(t *testing.T) {
	provider := newProvider()
	cache := NewCache(provider, tools.NewDefaultFactory(), logging.NewNopLogger())

	_, err := cache.Resolve(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrUnknownTool)
	require.Zero(t, provider.calls.Load())
}

func TestResolveConcurrentMissesShareOneProvision(t *testing.T) {
	provider := newProvider()
	provider.delay = 50 * time.Millisecond
	cache := NewCache(provider, tools.NewDefaultFactory(), logging.NewNopLogger())

	const callers = 20
	results := make([]tools.Tool, callers)
	errors := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errors[i] = cache.Resolve(context.Background(), "echo")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errors[i])
		require.Same(t, results[0], results[i])
	}
	require.Equal(t, int32(1), provider.calls.Load())
	require.Equal(t, 1, cache.Len())
}

func TestResolveCallerCancelled(t *testing.T) {
	provider := newProvider()
	provider.delay = 100 * time.Millisecond
	cache := NewCache(provider, tools.NewDefaultFactory(), logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.Resolve(ctx, "echo")
	require.ErrorIs(t, err, context.Canceled)

	// The flight completes on its own and fills the cache.
	require.Eventually(t, func() bool { return cache.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestUnknownNamesDoNotGrowProvisionSeries(t *testing.T) {
	cache := NewCache(newProvider(), tools.NewDefaultFactory(), logging.NewNopLogger())

	// Settle the fixed failure series before counting.
	_, _ = cache.Resolve(context.Background(), "missing-0")
	before := testutil.CollectAndCount(metrics.ToolProvisionsTotal)

	for i := 1; i <= 500; i++ {
		_, err := cache.Resolve(context.Background(), fmt.Sprintf("missing-%d", i))
		require.ErrorIs(t, err, errs.ErrUnknownTool)
	}

	require.Equal(t, before, testutil.CollectAndCount(metrics.ToolProvisionsTotal))
}

func TestResolveConstructorReturningNoTool(t *testing.T) {
	factory := tools.NewFactory()
	factory.Register(tools.KindEcho, func(domain.ToolDefinition) (tools.Tool, error) {
		return nil, nil
	})
	cache := NewCache(newProvider(), factory, logging.NewNopLogger())

	require.NotPanics(t, func() {
		_, err := cache.Resolve(context.Background(), "echo")
		require.Error(t, err)
	})
	require.Zero(t, cache.Len())
}

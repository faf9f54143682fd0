package storefactory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"gitlab.com/appserver.net/internal/adapter/logging"
	"gitlab.com/appserver.net/internal/adapter/static/toolcatalog"
	"gitlab.com/appserver.net/internal/config"
	"gitlab.com/appserver.net/internal/domain"
)

func TestNewRepositoryStatic(t *testing.T) {
	repo, closeFn, err := NewRepository(context.Background(), config.StoreConfig{Backend: config.BackendStatic}, logging.NewNopLogger())
	require.NoError(t, err)
	defer closeFn()

	def, err := repo.Provide(context.Background(), toolcatalog.QualifiedFibName)
	require.NoError(t, err)
	require.Equal(t, "fib", def.Kind)
}

func TestNewRepositoryRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.StoreConfig{
		Backend: config.BackendRedis,
		Redis:   &config.RedisConfig{Addr: mr.Addr()},
	}
	repo, closeFn, err := NewRepository(context.Background(), cfg, logging.NewNopLogger())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, repo.Save(context.Background(), &domain.ToolDefinition{Name: "echo", Kind: "echo"}))
	require.True(t, mr.Exists("tool:echo"))
}

func TestNewRepositoryUnknownBackend(t *testing.T) {
	_, _, err := NewRepository(context.Background(), config.StoreConfig{Backend: "ftp"}, logging.NewNopLogger())
	require.Error(t, err)
}

func TestSeedSkipsExisting(t *testing.T) {
	ctx := context.Background()
	dst := toolcatalog.NewCatalog(domain.ToolDefinition{Name: "fib", Kind: "custom"})

	seeded, err := Seed(ctx, dst, toolcatalog.Builtin())
	require.NoError(t, err)
	require.Equal(t, 3, seeded)

	def, err := dst.Provide(ctx, "fib")
	require.NoError(t, err)
	require.Equal(t, "custom", def.Kind)

	seeded, err = Seed(ctx, dst, toolcatalog.Builtin())
	require.NoError(t, err)
	require.Zero(t, seeded)
}

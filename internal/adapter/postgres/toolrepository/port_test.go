package toolrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"gitlab.com/appserver.net/internal/adapter/logging"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
)

const (
	provideQuery = "SELECT name, kind, COALESCE(config::text, '') AS config FROM tools WHERE name = $1"
	listQuery    = "SELECT name, kind, COALESCE(config::text, '') AS config FROM tools ORDER BY name ASC"
	saveQuery    = "INSERT INTO tools (name, kind, config) VALUES ($1, $2, $3) ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind, config = EXCLUDED.config"
)

func newRepository(t *testing.T) (*ToolRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewToolRepository(sqlx.NewDb(db, "postgres"), logging.NewNopLogger(), ""), mock
}

func TestProvide(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(provideQuery)).
		WithArgs("fib").
		WillReturnRows(sqlmock.NewRows([]string{"name", "kind", "config"}).AddRow("fib", "fib", `{"max": 30}`))

	def, err := repo.Provide(context.Background(), "fib")
	require.NoError(t, err)
	require.Equal(t, "fib", def.Kind)
	require.JSONEq(t, `{"max":30}`, string(def.Config))
}

func TestProvideNullConfig(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(provideQuery)).
		WithArgs("echo").
		WillReturnRows(sqlmock.NewRows([]string{"name", "kind", "config"}).AddRow("echo", "echo", ""))

	def, err := repo.Provide(context.Background(), "echo")
	require.NoError(t, err)
	require.Nil(t, def.Config)
}

func TestProvideUnknown(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(provideQuery)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Provide(context.Background(), "nope")
	require.ErrorIs(t, err, errs.ErrUnknownTool)
}

func TestProvideDatabaseError(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(provideQuery)).
		WithArgs("fib").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Provide(context.Background(), "fib")
	require.ErrorContains(t, err, "connection reset")
	require.NotErrorIs(t, err, errs.ErrUnknownTool)
}

func TestList(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "kind", "config"}).
			AddRow("calculator", "calculator", "").
			AddRow("fib", "fib", `{"max":10}`))

	defs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	require.Equal(t, "calculator", defs[0].Name)
	require.Equal(t, "fib", defs[1].Name)
}

func TestSave(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(saveQuery)).
		WithArgs("fib", "fib", `{"max":10}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(saveQuery)).
		WithArgs("echo", "echo", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), &domain.ToolDefinition{Name: "fib", Kind: "fib", Config: json.RawMessage(`{"max":10}`)}))
	require.NoError(t, repo.Save(context.Background(), &domain.ToolDefinition{Name: "echo", Kind: "echo"}))
}

func TestSaveRequiresName(t *testing.T) {
	repo, _ := newRepository(t)

	require.Error(t, repo.Save(context.Background(), &domain.ToolDefinition{Kind: "echo"}))
}

func TestMigrate(t *testing.T) {
	repo, mock := newRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS tools")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
}

package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSelect(t *testing.T) {
	query, args := NewQueryBuilder("").
		Select("name", "kind").
		From("tools").
		Where("name = ?", "fib").
		Or("kind = ?", "echo").
		OrderBy("name", true).
		Build()

	require.Equal(t, "SELECT name, kind FROM tools WHERE name = ? OR kind = ? ORDER BY name ASC", query)
	require.Equal(t, []interface{}{"fib", "echo"}, args)
}

func TestBuildSelectWithSchema(t *testing.T) {
	query, args := NewQueryBuilder("app").Select("name").From("tools").OrderBy("name", false).Build()

	require.Equal(t, "SELECT name FROM app.tools ORDER BY name DESC", query)
	require.Empty(t, args)
}

func TestBuildUpsert(t *testing.T) {
	query, args := NewQueryBuilder("").
		Insert("name", "kind", "config").
		Into("tools").
		Values("fib", "fib", "{}").
		OnConflict("name").
		SetExclude("kind", "config").
		Build()

	require.Equal(t,
		"INSERT INTO tools (name, kind, config) VALUES (?, ?, ?) ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind, config = EXCLUDED.config",
		query)
	require.Equal(t, []interface{}{"fib", "fib", "{}"}, args)
}

func TestBuildInsertDoNothing(t *testing.T) {
	query, args := NewQueryBuilder("").
		Insert("name").
		Into("tools").
		Values("a").
		Values("b").
		OnConflict("name").
		Build()

	require.Equal(t, "INSERT INTO tools (name) VALUES (?), (?) ON CONFLICT (name) DO NOTHING", query)
	require.Equal(t, []interface{}{"a", "b"}, args)
}

func TestBuildInsertRowWidthMismatch(t *testing.T) {
	query, args := NewQueryBuilder("").Insert("name", "kind").Into("tools").Values("a").Build()

	require.Empty(t, query)
	require.Nil(t, args)
}

package toolrepository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/core/ports/secondary"
	"gitlab.com/appserver.net/internal/domain"
	"gitlab.com/appserver.net/internal/static/errs"
	querybuilder "gitlab.com/appserver.net/internal/utils"
)

// Schema creates the table the repository reads from
const Schema = `
CREATE TABLE IF NOT EXISTS tools (
	name   TEXT PRIMARY KEY,
	kind   TEXT NOT NULL,
	config JSONB
)`

var _ secondary.ToolRepository = (*ToolRepository)(nil)

// ToolRepository implements the ToolRepository interface with PostgreSQL
type ToolRepository struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

// NewToolRepository creates a new PostgreSQL tool repository; schema may be empty
func NewToolRepository(db *sqlx.DB, logger primary.Logger, schema string) *ToolRepository {
	return &ToolRepository{
		db:     db,
		logger: logger,
		schema: schema,
	}
}

// toolRow reads config as text so a NULL column scans cleanly
type toolRow struct {
	Name   string `db:"name"`
	Kind   string `db:"kind"`
	Config string `db:"config"`
}

func (r toolRow) definition() *domain.ToolDefinition {
	def := &domain.ToolDefinition{Name: r.Name, Kind: r.Kind}
	if r.Config != "" {
		def.Config = json.RawMessage(r.Config)
	}
	return def
}

func (r *ToolRepository) selectColumns(tbl domain.ToolTable) []string {
	return []string{
		tbl.Name,
		tbl.Kind,
		fmt.Sprintf("COALESCE(%s::text, '') AS %s", tbl.Config, tbl.Config),
	}
}

// Provide retrieves a tool definition by name
func (r *ToolRepository) Provide(ctx context.Context, name string) (*domain.ToolDefinition, error) {
	toolTbl := domain.GetToolTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(r.selectColumns(toolTbl)...).
		From(toolTbl.TableName()).
		Where(fmt.Sprintf("%s = ?", toolTbl.Name), name).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	var row toolRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", errs.ErrUnknownTool, name)
		}
		r.logger.Error("Failed to get tool definition", "tool", name, "error", err)
		return nil, fmt.Errorf("failed to get tool definition: %w", err)
	}

	return row.definition(), nil
}

// List retrieves every tool definition ordered by name
func (r *ToolRepository) List(ctx context.Context) ([]*domain.ToolDefinition, error) {
	toolTbl := domain.GetToolTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Select(r.selectColumns(toolTbl)...).
		From(toolTbl.TableName()).
		OrderBy(toolTbl.Name, true).
		Build()

	var rows []toolRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("Failed to list tool definitions", "error", err)
		return nil, fmt.Errorf("failed to list tool definitions: %w", err)
	}

	defs := make([]*domain.ToolDefinition, 0, len(rows))
	for _, row := range rows {
		defs = append(defs, row.definition())
	}
	return defs, nil
}

// Save inserts a definition or replaces the one with the same name
func (r *ToolRepository) Save(ctx context.Context, def *domain.ToolDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("tool definition needs a name")
	}

	var config interface{}
	if len(def.Config) > 0 {
		config = string(def.Config)
	}

	toolTbl := domain.GetToolTable()
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Insert(toolTbl.Name, toolTbl.Kind, toolTbl.Config).
		Into(toolTbl.TableName()).
		Values(def.Name, def.Kind, config).
		OnConflict(toolTbl.Name).
		SetExclude(toolTbl.Kind, toolTbl.Config).
		Build()

	query = sqlx.Rebind(sqlx.DOLLAR, query)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to save tool definition", "tool", def.Name, "error", err)
		return fmt.Errorf("failed to save tool definition: %w", err)
	}
	return nil
}

// Migrate creates the tools table if it does not exist
func (r *ToolRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create tools table: %w", err)
	}
	return nil
}

// Package sink writes finished tables to their destination: a PostgreSQL
// schema, a directory of Parquet files, or nowhere.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/dima-ingest/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// DefaultSchema receives the tables when no schema is configured.
const DefaultSchema = "dima_prod"

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres appends each table to schema."name", creating the schema, the
// table and any missing columns on the way. One transaction per table: a
// failed write leaves the relation as it was.
type Postgres struct {
	db     Beginner
	schema string
	logger *slog.Logger
}

// NewPostgres returns a sink writing into schema. An empty schema uses
// DefaultSchema.
func NewPostgres(db Beginner, schema string, logger *slog.Logger) *Postgres {
	if schema == "" {
		schema = DefaultSchema
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, schema: schema, logger: logger}
}

func (p *Postgres) Write(ctx context.Context, name string, t *core.Table) error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", name)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	for _, stmt := range p.ddl(name, t) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("prepare %s.%s: %w", p.schema, name, err)
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{p.schema, name}, t.ColumnNames(), pgx.CopyFromRows(copyRows(t)))
	if err != nil {
		return fmt.Errorf("copy into %s.%s: %w", p.schema, name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.logger.Debug("copied rows", "schema", p.schema, "table", name, "rows", n)
	return nil
}

// ddl returns the statements that make schema."name" able to take t.
func (p *Postgres) ddl(name string, t *core.Table) []string {
	table := pgx.Identifier{p.schema, name}.Sanitize()

	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + SQLType(c.Type)
	}

	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{p.schema}.Sanitize(),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", ")),
	}
	for _, def := range defs {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", table, def))
	}
	return stmts
}

// SQLType maps a column type to its PostgreSQL type.
func SQLType(t core.ColumnType) string {
	switch t {
	case core.TypeInt:
		return "BIGINT"
	case core.TypeFloat:
		return "DOUBLE PRECISION"
	case core.TypeDate:
		return "DATE"
	case core.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func copyRows(t *core.Table) [][]any {
	rows := make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = pgValue(v, t.Columns[i].Type)
		}
		rows[r] = vals
	}
	return rows
}

// pgValue converts a cell to the pgtype matching its column. A value whose
// Go type does not fit the column is sent as its text rendering.
func pgValue(v core.Value, typ core.ColumnType) any {
	switch typ {
	case core.TypeInt:
		if i, ok := v.Raw.(int64); ok || !v.Valid {
			return pgtype.Int8{Int64: i, Valid: v.Valid}
		}
	case core.TypeFloat:
		switch x := v.Raw.(type) {
		case float64:
			return pgtype.Float8{Float64: x, Valid: v.Valid}
		case int64:
			return pgtype.Float8{Float64: float64(x), Valid: v.Valid}
		}
		if !v.Valid {
			return pgtype.Float8{}
		}
	case core.TypeDate:
		if tm, ok := v.Raw.(time.Time); ok || !v.Valid {
			return pgtype.Date{Time: tm, Valid: v.Valid}
		}
	case core.TypeTimestamp:
		if tm, ok := v.Raw.(time.Time); ok || !v.Valid {
			return pgtype.Timestamp{Time: tm, Valid: v.Valid}
		}
	}
	return pgtype.Text{String: v.String(), Valid: v.Valid}
}

package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// sqlEngine backs the adapter with SQLite, either a database file or an
// in-memory database. Statements are rendered to SQL using the collection
// schema; JSON-valued fields arrive here already serialized to text.
type sqlEngine struct {
	db   *sql.DB
	kind EngineKind
}

// openSQLite opens (or creates) a SQLite database at the given path and
// runs migrations. Pass ":memory:" for the in-memory fallback engine.
func openSQLite(path string) (*sqlEngine, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	kind := KindSQLiteFile
	if path == ":memory:" {
		kind = KindSQLiteMemory
	}
	return &sqlEngine{db: db, kind: kind}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

func (e *sqlEngine) Kind() EngineKind { return e.kind }

func (e *sqlEngine) Close() error { return e.db.Close() }

// DB exposes the underlying handle for snapshot/backup use.
func (e *sqlEngine) DB() *sql.DB { return e.db }

func (e *sqlEngine) Exec(ctx context.Context, stmt Statement) (Result, error) {
	schema, ok := Collections[stmt.table()]
	if !ok {
		return Result{}, fmt.Errorf("unknown collection %q", stmt.table())
	}

	switch s := stmt.(type) {
	case CreateTable:
		return e.createTable(ctx, schema)
	case Select:
		return e.selectRows(ctx, schema, s)
	case Insert:
		return e.insert(ctx, schema, s)
	case Update:
		return e.update(ctx, schema, s)
	case Delete:
		return e.delete(ctx, schema, s)
	default:
		return Result{}, fmt.Errorf("unsupported statement %T", stmt)
	}
}

func columnType(k FieldKind) string {
	switch k {
	case KindInteger, KindBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func (e *sqlEngine) createTable(ctx context.Context, schema Schema) (Result, error) {
	cols := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		def := fmt.Sprintf("%s %s", f.Name, columnType(f.Kind))
		if f.Name == "id" {
			def += " PRIMARY KEY"
		}
		cols = append(cols, def)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", schema.Name, strings.Join(cols, ", "))
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return Result{}, fmt.Errorf("create table %s: %w", schema.Name, err)
	}
	return Result{}, nil
}

func (e *sqlEngine) selectRows(ctx context.Context, schema Schema, s Select) (Result, error) {
	names := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		names[i] = f.Name
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), schema.Name)
	var args []any
	if s.Where != nil {
		query += fmt.Sprintf(" WHERE %s = ?", s.Where.Column)
		args = append(args, s.Where.Value)
	}

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("select %s: %w", schema.Name, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("scan %s: %w", schema.Name, err)
		}
		row := make(Record, len(names))
		for i, name := range names {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[name] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate %s: %w", schema.Name, err)
	}
	return Result{Rows: out}, nil
}

func (e *sqlEngine) insert(ctx context.Context, schema Schema, s Insert) (Result, error) {
	var names []string
	var args []any
	for _, f := range schema.Fields {
		v, present := s.Row[f.Name]
		if !present {
			continue
		}
		enc, err := encodeField(f, v)
		if err != nil {
			return Result{}, fmt.Errorf("insert %s: %w", schema.Name, err)
		}
		names = append(names, f.Name)
		args = append(args, enc)
	}
	if len(names) == 0 {
		return Result{}, fmt.Errorf("insert %s: empty row", schema.Name)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		schema.Name,
		strings.Join(names, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "),
	)
	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("insert %s: %w", schema.Name, err)
	}
	affected, _ := res.RowsAffected()

	id, _ := s.Row["id"].(string)
	return Result{RowsAffected: affected, InsertID: id}, nil
}

func (e *sqlEngine) update(ctx context.Context, schema Schema, s Update) (Result, error) {
	var assigns []string
	var args []any
	for _, f := range schema.Fields {
		v, present := s.Set[f.Name]
		if !present {
			continue
		}
		enc, err := encodeField(f, v)
		if err != nil {
			return Result{}, fmt.Errorf("update %s: %w", schema.Name, err)
		}
		assigns = append(assigns, f.Name+" = ?")
		args = append(args, enc)
	}
	if len(assigns) == 0 {
		return Result{}, fmt.Errorf("update %s: empty set", schema.Name)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", schema.Name, strings.Join(assigns, ", "), s.Where.Column)
	args = append(args, s.Where.Value)

	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("update %s: %w", schema.Name, err)
	}
	affected, _ := res.RowsAffected()
	return Result{RowsAffected: affected}, nil
}

func (e *sqlEngine) delete(ctx context.Context, schema Schema, s Delete) (Result, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", schema.Name, s.Where.Column)
	res, err := e.db.ExecContext(ctx, query, s.Where.Value)
	if err != nil {
		return Result{}, fmt.Errorf("delete %s: %w", schema.Name, err)
	}
	affected, _ := res.RowsAffected()
	return Result{RowsAffected: affected}, nil
}

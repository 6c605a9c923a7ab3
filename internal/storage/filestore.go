package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
)

// fileStore is the last-resort engine for environments without a usable
// SQLite database: a flat key/value layout with one JSON-encoded array of
// rows per collection, persisted as <dir>/collections/<collection>.json.
// The collections subdirectory keeps the engine's files apart from the flat
// legacy keys old app versions wrote directly under the data dir, so the
// legacy importer never mistakes the store's own journal for legacy data.
// It interprets the same statement language as the SQLite engine and
// produces the same result shapes, so the adapter treats the two
// interchangeably.
//
// Unlike the SQLite engines it stores JSON-valued fields natively, not as
// serialized text; the adapter's schema layer accepts both representations
// on the read path.
type fileStore struct {
	mu  sync.Mutex
	dir string
}

func openFileStore(dir string) (*fileStore, error) {
	root := filepath.Join(dir, "collections")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &fileStore{dir: root}, nil
}

func (e *fileStore) Kind() EngineKind { return KindFileStore }

func (e *fileStore) Close() error { return nil }

// Dir returns the directory holding the per-collection files.
func (e *fileStore) Dir() string { return e.dir }

func (e *fileStore) keyPath(key string) string {
	return filepath.Join(e.dir, key+".json")
}

// readKey loads the raw JSON value stored under a collection key.
func (e *fileStore) readKey(key string, out any) (bool, error) {
	data, err := os.ReadFile(e.keyPath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (e *fileStore) writeKey(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	tmp := e.keyPath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, e.keyPath(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (e *fileStore) removeKey(key string) error {
	err := os.Remove(e.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (e *fileStore) loadRows(table string) ([]Record, error) {
	var rows []Record
	if _, err := e.readKey(table, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (e *fileStore) saveRows(table string, rows []Record) error {
	if rows == nil {
		rows = []Record{}
	}
	return e.writeKey(table, rows)
}

func (e *fileStore) Exec(ctx context.Context, stmt Statement) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if _, ok := Collections[stmt.table()]; !ok {
		return Result{}, fmt.Errorf("unknown collection %q", stmt.table())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch s := stmt.(type) {
	case CreateTable:
		// Collections are implicitly schemaless arrays; nothing to declare.
		return Result{}, nil
	case Select:
		rows, err := e.loadRows(s.Table)
		if err != nil {
			return Result{}, err
		}
		if s.Where == nil {
			return Result{Rows: rows}, nil
		}
		var out []Record
		for _, row := range rows {
			if matchEq(row, *s.Where) {
				out = append(out, row)
			}
		}
		return Result{Rows: out}, nil
	case Insert:
		rows, err := e.loadRows(s.Table)
		if err != nil {
			return Result{}, err
		}
		rows = append(rows, s.Row)
		if err := e.saveRows(s.Table, rows); err != nil {
			return Result{}, err
		}
		id, _ := s.Row["id"].(string)
		return Result{RowsAffected: 1, InsertID: id}, nil
	case Update:
		rows, err := e.loadRows(s.Table)
		if err != nil {
			return Result{}, err
		}
		var affected int64
		for i, row := range rows {
			if !matchEq(row, s.Where) {
				continue
			}
			merged := make(Record, len(row)+len(s.Set))
			for k, v := range row {
				merged[k] = v
			}
			for k, v := range s.Set {
				merged[k] = v
			}
			rows[i] = merged
			affected++
		}
		if affected > 0 {
			if err := e.saveRows(s.Table, rows); err != nil {
				return Result{}, err
			}
		}
		return Result{RowsAffected: affected}, nil
	case Delete:
		rows, err := e.loadRows(s.Table)
		if err != nil {
			return Result{}, err
		}
		kept := rows[:0]
		var affected int64
		for _, row := range rows {
			if matchEq(row, s.Where) {
				affected++
				continue
			}
			kept = append(kept, row)
		}
		if affected > 0 {
			if err := e.saveRows(s.Table, kept); err != nil {
				return Result{}, err
			}
		}
		return Result{RowsAffected: affected}, nil
	default:
		return Result{}, fmt.Errorf("unsupported statement %T", stmt)
	}
}

// matchEq compares a row field against a condition value, tolerating the
// numeric widening JSON round-trips introduce (int64 vs float64).
func matchEq(row Record, cond Eq) bool {
	v, ok := row[cond.Column]
	if !ok {
		return cond.Value == nil
	}
	if na, aok := asFloat(v); aok {
		if nb, bok := asFloat(cond.Value); bok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(v, cond.Value)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

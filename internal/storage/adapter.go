package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Engine is one of the backing stores an installation may end up using.
type Engine interface {
	Exec(ctx context.Context, stmt Statement) (Result, error)
	Kind() EngineKind
	Close() error
}

// Config controls engine selection.
type Config struct {
	// DBPath is the SQLite database file. Empty disables the file engine.
	DBPath string
	// FallbackDir holds the flat per-collection JSON files used when no
	// SQLite engine can be opened. Also the location legacy app versions
	// wrote their flat keys to.
	FallbackDir string
}

// Adapter exposes one collection-oriented CRUD surface regardless of which
// physical engine backs it. Read helpers never propagate errors, since the UI
// always needs a renderable, if possibly empty, result. Write helpers
// propagate errors after logging, because silent data loss on write is worse
// than a visible failure.
type Adapter struct {
	engine Engine
	logger *slog.Logger
	now    func() time.Time
}

// Open probes for a usable engine in priority order: SQLite database file,
// in-memory SQLite, flat file store. Probe failures are logged and fall
// through; an error is returned only when even the file store cannot be
// created. The adapter never panics out of initialization.
func Open(cfg Config, logger *slog.Logger) (*Adapter, error) {
	a := &Adapter{logger: logger, now: time.Now}

	if cfg.DBPath != "" {
		eng, err := openSQLite(cfg.DBPath)
		if err == nil {
			logger.Info("storage engine selected", "kind", eng.Kind(), "path", cfg.DBPath)
			a.engine = eng
			return a.init()
		}
		logger.Warn("sqlite file engine unavailable", "path", cfg.DBPath, "error", err)
	}

	if eng, err := openSQLite(":memory:"); err == nil {
		logger.Info("storage engine selected", "kind", eng.Kind())
		a.engine = eng
		return a.init()
	} else {
		logger.Warn("in-memory sqlite engine unavailable", "error", err)
	}

	eng, err := openFileStore(cfg.FallbackDir)
	if err != nil {
		return nil, fmt.Errorf("open file store: %w", err)
	}
	logger.Info("storage engine selected", "kind", eng.Kind(), "dir", cfg.FallbackDir)
	a.engine = eng
	// The file store needs no table declarations.
	return a, nil
}

// NewWithEngine wires an adapter around an already-open engine. Used by
// tests and by the restore path.
func NewWithEngine(engine Engine, logger *slog.Logger) *Adapter {
	return &Adapter{engine: engine, logger: logger, now: time.Now}
}

// Engine returns the backing engine, so callers can rewrap it (fault
// injection in tests, instrumentation) via NewWithEngine.
func (a *Adapter) Engine() Engine { return a.engine }

// init declares every collection against a freshly opened SQL engine.
func (a *Adapter) init() (*Adapter, error) {
	ctx := context.Background()
	for _, name := range CollectionNames {
		if _, err := a.engine.Exec(ctx, CreateTable{Table: name}); err != nil {
			return nil, fmt.Errorf("declare %s: %w", name, err)
		}
	}
	return a, nil
}

// Close releases the backing engine.
func (a *Adapter) Close() error { return a.engine.Close() }

// EngineKind reports which engine the capability probe selected.
func (a *Adapter) EngineKind() EngineKind { return a.engine.Kind() }

// DB returns the underlying *sql.DB when a SQLite engine is active, for
// snapshot/backup use. Nil for the file store.
func (a *Adapter) DB() *sql.DB {
	if e, ok := a.engine.(*sqlEngine); ok {
		return e.DB()
	}
	return nil
}

// fileStoreEngine returns the fallback engine when active.
func (a *Adapter) fileStoreEngine() (*fileStore, bool) {
	e, ok := a.engine.(*fileStore)
	return e, ok
}

func (a *Adapter) timestamp() string {
	return a.now().UTC().Format(time.RFC3339)
}

// newID builds a collision-free record ID with a readable collection prefix.
func newID(singular string) string {
	return singular + "_" + uuid.NewString()
}

// GetAll returns every record in the collection, JSON fields decoded.
// Errors are logged and reported as an empty slice.
func (a *Adapter) GetAll(ctx context.Context, collection string) []Record {
	schema, ok := Collections[collection]
	if !ok {
		a.logger.Error("get all: unknown collection", "collection", collection)
		return []Record{}
	}

	res, err := a.engine.Exec(ctx, Select{Table: collection})
	if err != nil {
		a.logger.Error("get all", "collection", collection, "error", err)
		return []Record{}
	}

	out := make([]Record, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, decodeRecord(schema, row))
	}
	return out
}

// GetByID returns the decoded record with the given id, or nil when it does
// not exist or the read fails.
func (a *Adapter) GetByID(ctx context.Context, collection, id string) Record {
	schema, ok := Collections[collection]
	if !ok {
		a.logger.Error("get by id: unknown collection", "collection", collection)
		return nil
	}

	res, err := a.engine.Exec(ctx, Select{Table: collection, Where: &Eq{Column: "id", Value: id}})
	if err != nil {
		a.logger.Error("get by id", "collection", collection, "id", id, "error", err)
		return nil
	}
	if len(res.Rows) == 0 {
		return nil
	}
	return decodeRecord(schema, res.Rows[0])
}

// Add inserts a record, assigning an ID and stamping createdAt/updatedAt
// when absent. The stored (possibly id-augmented) record is returned.
func (a *Adapter) Add(ctx context.Context, collection string, item Record) (Record, error) {
	schema, ok := Collections[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	rec := make(Record, len(item)+3)
	for k, v := range item {
		rec[k] = v
	}
	if id, _ := rec["id"].(string); id == "" {
		rec["id"] = newID(schema.Singular)
	}
	ts := a.timestamp()
	if created, _ := rec["createdAt"].(string); created == "" {
		rec["createdAt"] = ts
	}
	// Imports (legacy, restore) carry their own updatedAt; keep it.
	if updated, _ := rec["updatedAt"].(string); updated == "" {
		rec["updatedAt"] = ts
	}

	if _, err := a.engine.Exec(ctx, Insert{Table: collection, Row: rec}); err != nil {
		a.logger.Error("add", "collection", collection, "error", err)
		return nil, fmt.Errorf("add to %s: %w", collection, err)
	}
	return rec, nil
}

// Update merges a partial update into the existing record (updates win on
// key collision), rewrites updatedAt, and keeps createdAt immutable. It
// returns nil, nil when the record does not exist.
func (a *Adapter) Update(ctx context.Context, collection, id string, updates Record) (Record, error) {
	if _, ok := Collections[collection]; !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	existing := a.GetByID(ctx, collection, id)
	if existing == nil {
		return nil, nil
	}

	merged := make(Record, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	merged["id"] = id
	merged["createdAt"] = existing["createdAt"]
	merged["updatedAt"] = a.timestamp()

	set := make(Record, len(merged))
	for k, v := range merged {
		if k == "id" {
			continue
		}
		set[k] = v
	}

	res, err := a.engine.Exec(ctx, Update{
		Table: collection,
		Set:   set,
		Where: Eq{Column: "id", Value: id},
	})
	if err != nil {
		a.logger.Error("update", "collection", collection, "id", id, "error", err)
		return nil, fmt.Errorf("update %s: %w", collection, err)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return merged, nil
}

// Remove deletes the record with the given id and reports whether any row
// was affected. Errors degrade to false.
func (a *Adapter) Remove(ctx context.Context, collection, id string) bool {
	if _, ok := Collections[collection]; !ok {
		a.logger.Error("remove: unknown collection", "collection", collection)
		return false
	}

	res, err := a.engine.Exec(ctx, Delete{Table: collection, Where: Eq{Column: "id", Value: id}})
	if err != nil {
		a.logger.Error("remove", "collection", collection, "id", id, "error", err)
		return false
	}
	return res.RowsAffected > 0
}

// Query fetches all records and applies an in-memory filter predicate.
func (a *Adapter) Query(ctx context.Context, collection string, pred func(Record) bool) []Record {
	all := a.GetAll(ctx, collection)
	out := make([]Record, 0, len(all))
	for _, rec := range all {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// GetPreference returns the stored value for a preference key, or nil when
// unset or unreadable.
func (a *Adapter) GetPreference(ctx context.Context, key string) any {
	rec := a.GetByID(ctx, "preferences", key)
	if rec == nil {
		return nil
	}
	return rec["value"]
}

// SetPreference upserts a preference value under the given key.
func (a *Adapter) SetPreference(ctx context.Context, key string, value any) error {
	existing := a.GetByID(ctx, "preferences", key)
	if existing != nil {
		_, err := a.Update(ctx, "preferences", key, Record{"value": value})
		return err
	}
	_, err := a.Add(ctx, "preferences", Record{"id": key, "value": value})
	return err
}

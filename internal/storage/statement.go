package storage

// The adapter talks to its engines through a small tagged-variant statement
// language rather than SQL text. The SQLite engine renders statements to SQL;
// the file-store engine interprets them directly against its JSON arrays.
// Both produce the same Result shape, so the adapter never branches on which
// engine it ended up with.

// Record is one row of a collection as seen by callers: decoded JSON values,
// booleans as booleans, timestamps as RFC 3339 strings.
type Record = map[string]any

// Eq is a single-column equality condition, the only predicate the
// statement language supports, matching the write shapes the adapter
// actually produces.
type Eq struct {
	Column string
	Value  any
}

// Statement is a sealed union of the five supported operations.
type Statement interface {
	table() string
}

// CreateTable declares a collection. The SQLite engine renders idempotent
// DDL from the collection schema; the file-store engine ignores it because
// its collections are implicitly schemaless arrays.
type CreateTable struct {
	Table string
}

// Select reads all rows, or the rows matching Where when it is non-nil.
type Select struct {
	Table string
	Where *Eq
}

// Insert appends one encoded row.
type Insert struct {
	Table string
	Row   Record
}

// Update assigns Set on every row matching Where.
type Update struct {
	Table string
	Set   Record
	Where Eq
}

// Delete removes every row matching Where.
type Delete struct {
	Table string
	Where Eq
}

func (s CreateTable) table() string { return s.Table }
func (s Select) table() string      { return s.Table }
func (s Insert) table() string      { return s.Table }
func (s Update) table() string      { return s.Table }
func (s Delete) table() string      { return s.Table }

// Result is the uniform outcome of executing a statement.
type Result struct {
	Rows         []Record
	RowsAffected int64
	InsertID     string
}

// EngineKind identifies which backing engine a probe ended up selecting.
type EngineKind string

const (
	KindSQLiteFile   EngineKind = "sqlite"
	KindSQLiteMemory EngineKind = "sqlite-memory"
	KindFileStore    EngineKind = "filestore"
)

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupFileStore(t *testing.T) (*fileStore, string) {
	t.Helper()
	dir := t.TempDir()
	eng, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	return eng, dir
}

// The file store must honor every statement variant the SQLite engine does,
// with the same result shapes, so the adapter can treat them alike.
func TestFileStoreStatementCoverage(t *testing.T) {
	eng, _ := setupFileStore(t)
	ctx := context.Background()

	// CreateTable is a no-op: collections are implicitly schemaless arrays.
	if _, err := eng.Exec(ctx, CreateTable{Table: "activities"}); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// Insert reports one affected row and echoes the id.
	res, err := eng.Exec(ctx, Insert{Table: "activities", Row: Record{
		"id":   "activity_1",
		"type": "prayer",
		"date": "2025-06-01",
	}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if res.RowsAffected != 1 || res.InsertID != "activity_1" {
		t.Errorf("insert result = %+v, want rowsAffected 1, insertId activity_1", res)
	}

	eng.Exec(ctx, Insert{Table: "activities", Row: Record{"id": "activity_2", "type": "meeting", "date": "2025-06-02"}})

	// Select without a condition returns everything.
	res, err = eng.Exec(ctx, Select{Table: "activities"})
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("select all returned %d rows, want 2", len(res.Rows))
	}

	// Select with a single-column equality condition.
	res, err = eng.Exec(ctx, Select{Table: "activities", Where: &Eq{Column: "id", Value: "activity_2"}})
	if err != nil {
		t.Fatalf("select where: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["type"] != "meeting" {
		t.Errorf("select where rows = %v", res.Rows)
	}

	// Update reports affected rows and merges assignments.
	res, err = eng.Exec(ctx, Update{
		Table: "activities",
		Set:   Record{"notes": "edited"},
		Where: Eq{Column: "id", Value: "activity_1"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.RowsAffected != 1 {
		t.Errorf("update rowsAffected = %d, want 1", res.RowsAffected)
	}
	res, _ = eng.Exec(ctx, Select{Table: "activities", Where: &Eq{Column: "id", Value: "activity_1"}})
	if res.Rows[0]["notes"] != "edited" || res.Rows[0]["type"] != "prayer" {
		t.Errorf("update did not merge: %v", res.Rows[0])
	}

	// Update of a missing row affects nothing.
	res, err = eng.Exec(ctx, Update{
		Table: "activities",
		Set:   Record{"notes": "x"},
		Where: Eq{Column: "id", Value: "activity_404"},
	})
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if res.RowsAffected != 0 {
		t.Errorf("update missing rowsAffected = %d, want 0", res.RowsAffected)
	}

	// Delete reports affected rows.
	res, err = eng.Exec(ctx, Delete{Table: "activities", Where: Eq{Column: "id", Value: "activity_1"}})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.RowsAffected != 1 {
		t.Errorf("delete rowsAffected = %d, want 1", res.RowsAffected)
	}
	res, _ = eng.Exec(ctx, Select{Table: "activities"})
	if len(res.Rows) != 1 {
		t.Errorf("after delete got %d rows, want 1", len(res.Rows))
	}
}

func TestFileStoreUnknownCollection(t *testing.T) {
	eng, _ := setupFileStore(t)

	if _, err := eng.Exec(context.Background(), Select{Table: "nope"}); err == nil {
		t.Error("expected error for unknown collection")
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	eng, dir := setupFileStore(t)
	ctx := context.Background()

	eng.Exec(ctx, Insert{Table: "meetings", Row: Record{"id": "meeting_1", "name": "Noon Group"}})
	eng.Close()

	reopened, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	res, err := reopened.Exec(ctx, Select{Table: "meetings"})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["name"] != "Noon Group" {
		t.Errorf("rows after reopen = %v", res.Rows)
	}

	// One JSON array per collection, namespaced away from legacy flat keys.
	if _, err := os.Stat(filepath.Join(dir, "collections", "meetings.json")); err != nil {
		t.Errorf("expected collections/meetings.json on disk: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "meetings.json")); !os.IsNotExist(err) {
		t.Errorf("meetings.json must not exist at the data dir root: %v", err)
	}
}

func TestFileStoreKeepsNativeJSONValues(t *testing.T) {
	eng, dir := setupFileStore(t)
	ctx := context.Background()

	eng.Exec(ctx, Insert{Table: "users", Row: Record{
		"id":         "user_1",
		"homeGroups": []any{"Tuesday Night"},
	}})

	data, err := os.ReadFile(filepath.Join(dir, "collections", "users.json"))
	if err != nil {
		t.Fatalf("read users.json: %v", err)
	}
	// Structured values are stored as JSON, not as an escaped string blob.
	if want := `"Tuesday Night"`; !strings.Contains(string(data), want) {
		t.Errorf("users.json does not contain %s natively:\n%s", want, data)
	}
	if dontWant := `\"Tuesday Night\"`; strings.Contains(string(data), dontWant) {
		t.Errorf("users.json stores homeGroups as escaped text:\n%s", data)
	}
}

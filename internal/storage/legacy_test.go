package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeLegacyFile(t *testing.T, dir, key string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal legacy %s: %v", key, err)
	}
	if err := os.WriteFile(filepath.Join(dir, key+".json"), data, 0o644); err != nil {
		t.Fatalf("write legacy %s: %v", key, err)
	}
}

func TestHasLegacyData(t *testing.T) {
	dir := t.TempDir()
	if HasLegacyData(dir) {
		t.Error("empty dir should have no legacy data")
	}

	writeLegacyFile(t, dir, "activities", []Record{{"id": "a1"}})
	if !HasLegacyData(dir) {
		t.Error("expected legacy data to be detected")
	}
}

func TestMigrateFromLegacy(t *testing.T) {
	dir := t.TempDir()
	writeLegacyFile(t, dir, "user", Record{
		"name":         "Jamie",
		"sobrietyDate": "2020-03-15",
		"homeGroups":   []string{"Tuesday Night"},
	})
	writeLegacyFile(t, dir, "activities", []Record{
		{"id": "activity_old_1", "type": "meeting", "date": "2024-12-01"},
		{"type": "prayer", "date": "2024-12-02"},
	})
	writeLegacyFile(t, dir, "meetings", []Record{
		{"name": "Downtown Serenity", "days": []string{"tuesday"}},
	})
	writeLegacyFile(t, dir, "spiritualFitness", 42.0)

	eng, err := openSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	a := NewWithEngine(eng, slog.Default())

	ctx := context.Background()
	imported, err := a.MigrateFromLegacy(ctx, dir)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if imported != 4 {
		t.Errorf("imported = %d, want 4", imported)
	}

	if users := a.GetAll(ctx, "users"); len(users) != 1 || users[0]["name"] != "Jamie" {
		t.Errorf("users after migration = %v", users)
	}
	// Imported records keep their original IDs.
	if got := a.GetByID(ctx, "activities", "activity_old_1"); got == nil {
		t.Error("expected imported activity to keep its id")
	}
	if acts := a.GetAll(ctx, "activities"); len(acts) != 2 {
		t.Errorf("got %d activities, want 2", len(acts))
	}
	if v := a.GetPreference(ctx, "spiritualFitness"); v != 42.0 {
		t.Errorf("cached score = %v, want 42", v)
	}

	// A second run is a no-op.
	imported, err = a.MigrateFromLegacy(ctx, dir)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if imported != 0 {
		t.Errorf("second migrate imported %d records, want 0", imported)
	}
	if acts := a.GetAll(ctx, "activities"); len(acts) != 2 {
		t.Errorf("second migrate duplicated records: %d", len(acts))
	}
}

// The fallback engine and the legacy importer share the data dir, so the
// engine's own collection files must never be mistaken for legacy flat keys
// and re-imported into themselves.
func TestFileStoreJournalIsNotLegacyData(t *testing.T) {
	dir := t.TempDir()
	eng, err := openFileStore(dir)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	a := NewWithEngine(eng, slog.Default())
	ctx := context.Background()

	if _, err := a.Add(ctx, "activities", Record{"type": "meeting", "date": "2025-06-01"}); err != nil {
		t.Fatalf("add activity: %v", err)
	}

	if HasLegacyData(dir) {
		t.Fatal("file store journal detected as legacy data")
	}
	imported, err := a.MigrateFromLegacy(ctx, dir)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if imported != 0 {
		t.Errorf("imported = %d, want 0", imported)
	}
	if acts := a.GetAll(ctx, "activities"); len(acts) != 1 {
		t.Errorf("journal has %d activities after startup migration, want 1", len(acts))
	}

	// Real flat keys at the data dir root are still detected.
	writeLegacyFile(t, dir, "meetings", []Record{{"name": "Old Group"}})
	if !HasLegacyData(dir) {
		t.Error("flat legacy key at the dir root not detected")
	}
}

func TestMigrateFromLegacyNothingToImport(t *testing.T) {
	eng, err := openFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	a := NewWithEngine(eng, slog.Default())

	imported, err := a.MigrateFromLegacy(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if imported != 0 {
		t.Errorf("imported = %d, want 0", imported)
	}
}

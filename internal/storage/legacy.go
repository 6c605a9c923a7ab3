package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Earlier app versions persisted flat top-level keys instead of the
// collection layout: a single "user" object, plain "activities" /
// "meetings" / "messages" arrays, and a cached "spiritualFitness" score.
// These live as <dir>/<key>.json in the same directory the fallback engine
// uses. Migration is a one-time import gated by the legacyMigrated
// preference flag.

var legacyCollectionKeys = map[string]string{
	"activities": "activities",
	"meetings":   "meetings",
	"messages":   "messages",
}

const legacyMigratedKey = "legacyMigrated"

// HasLegacyData reports whether any flat legacy key exists under dir.
func HasLegacyData(dir string) bool {
	for _, key := range []string{"user", "activities", "meetings", "messages", "spiritualFitness"} {
		if _, err := os.Stat(filepath.Join(dir, key+".json")); err == nil {
			return true
		}
	}
	return false
}

func readLegacyKey(dir, key string, out any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, key+".json"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read legacy %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode legacy %s: %w", key, err)
	}
	return true, nil
}

// MigrateFromLegacy imports flat legacy keys into the collection-based
// store. Records keep their original IDs and timestamps when present.
// Returns the number of imported records; a second call is a no-op.
func (a *Adapter) MigrateFromLegacy(ctx context.Context, dir string) (int, error) {
	if done, _ := a.GetPreference(ctx, legacyMigratedKey).(bool); done {
		return 0, nil
	}

	imported := 0

	var user Record
	found, err := readLegacyKey(dir, "user", &user)
	if err != nil {
		a.logger.Warn("legacy user unreadable, skipping", "error", err)
	} else if found && len(user) > 0 {
		if _, err := a.Add(ctx, "users", user); err != nil {
			return imported, fmt.Errorf("import legacy user: %w", err)
		}
		imported++
	}

	for key, collection := range legacyCollectionKeys {
		var rows []Record
		found, err := readLegacyKey(dir, key, &rows)
		if err != nil {
			a.logger.Warn("legacy key unreadable, skipping", "key", key, "error", err)
			continue
		}
		if !found {
			continue
		}
		for _, row := range rows {
			if _, err := a.Add(ctx, collection, row); err != nil {
				return imported, fmt.Errorf("import legacy %s: %w", key, err)
			}
			imported++
		}
	}

	var fitness any
	if found, err := readLegacyKey(dir, "spiritualFitness", &fitness); err == nil && found {
		if err := a.SetPreference(ctx, "spiritualFitness", fitness); err != nil {
			return imported, fmt.Errorf("import legacy score: %w", err)
		}
	}

	if err := a.SetPreference(ctx, legacyMigratedKey, true); err != nil {
		return imported, fmt.Errorf("mark migrated: %w", err)
	}

	a.logger.Info("legacy data imported", "records", imported)
	return imported, nil
}

package storage

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

// forEachEngine runs a scenario against both engine families: in-memory
// SQLite and the flat file store. The adapter surface must behave
// identically on both.
func forEachEngine(t *testing.T, fn func(t *testing.T, a *Adapter)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		eng, err := openSQLite(":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { eng.Close() })
		fn(t, NewWithEngine(eng, slog.Default()))
	})

	t.Run("filestore", func(t *testing.T) {
		eng, err := openFileStore(t.TempDir())
		if err != nil {
			t.Fatalf("open file store: %v", err)
		}
		t.Cleanup(func() { eng.Close() })
		fn(t, NewWithEngine(eng, slog.Default()))
	})
}

func TestUserRoundTrip(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		added, err := a.Add(ctx, "users", Record{
			"name":         "Jamie",
			"lastName":     "R",
			"email":        "jamie@example.com",
			"sobrietyDate": "2020-03-15",
			"homeGroups":   []any{"Tuesday Night", "Saturday Morning"},
			"privacySettings": map[string]any{
				"shareLastName": false,
				"shareLocation": true,
			},
			"sponsor": map[string]any{"name": "Pat", "phone": "555-0100"},
		})
		if err != nil {
			t.Fatalf("add user: %v", err)
		}
		id, _ := added["id"].(string)
		if !strings.HasPrefix(id, "user_") {
			t.Errorf("id = %q, want user_ prefix", id)
		}
		if added["createdAt"] == "" || added["updatedAt"] == "" {
			t.Error("expected createdAt and updatedAt to be stamped")
		}

		got := a.GetByID(ctx, "users", id)
		if got == nil {
			t.Fatal("expected user, got nil")
		}
		if got["name"] != "Jamie" || got["sobrietyDate"] != "2020-03-15" {
			t.Errorf("scalar fields did not round-trip: %v", got)
		}
		wantGroups := []any{"Tuesday Night", "Saturday Morning"}
		if !reflect.DeepEqual(got["homeGroups"], wantGroups) {
			t.Errorf("homeGroups = %v, want %v", got["homeGroups"], wantGroups)
		}
		privacy, ok := got["privacySettings"].(map[string]any)
		if !ok {
			t.Fatalf("privacySettings decoded to %T, want map", got["privacySettings"])
		}
		if privacy["shareLastName"] != false || privacy["shareLocation"] != true {
			t.Errorf("privacySettings = %v", privacy)
		}
		sponsor, ok := got["sponsor"].(map[string]any)
		if !ok || sponsor["name"] != "Pat" {
			t.Errorf("sponsor = %v", got["sponsor"])
		}

		// Absent JSON fields decode to their neutral defaults.
		if !reflect.DeepEqual(got["sponsees"], []any{}) {
			t.Errorf("sponsees default = %v, want []", got["sponsees"])
		}
		if !reflect.DeepEqual(got["messagingKeys"], map[string]any{}) {
			t.Errorf("messagingKeys default = %v, want {}", got["messagingKeys"])
		}
	})
}

func TestActivityRoundTrip(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		added, err := a.Add(ctx, "activities", Record{
			"type":        "meeting",
			"duration":    60,
			"date":        "2025-06-10T19:00:00Z",
			"notes":       "home group",
			"meetingName": "Tuesday Night",
			"wasChair":    true,
			"wasShare":    false,
		})
		if err != nil {
			t.Fatalf("add activity: %v", err)
		}
		id := added["id"].(string)
		if !strings.HasPrefix(id, "activity_") {
			t.Errorf("id = %q, want activity_ prefix", id)
		}

		got := a.GetByID(ctx, "activities", id)
		if got == nil {
			t.Fatal("expected activity, got nil")
		}
		if got["type"] != "meeting" || got["meetingName"] != "Tuesday Night" {
			t.Errorf("fields did not round-trip: %v", got)
		}
		if got["duration"] != int64(60) {
			t.Errorf("duration = %v (%T), want 60", got["duration"], got["duration"])
		}
		if got["wasChair"] != true {
			t.Errorf("wasChair = %v, want true", got["wasChair"])
		}
		if got["wasSpeaker"] != false {
			t.Errorf("wasSpeaker = %v, want false", got["wasSpeaker"])
		}
	})
}

func TestMeetingRoundTrip(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		added, err := a.Add(ctx, "meetings", Record{
			"name": "Downtown Serenity",
			"days": []any{"tuesday", "thursday"},
			"schedule": []any{
				map[string]any{"day": "tuesday", "time": "19:00", "format": "discussion"},
			},
			"coordinates": map[string]any{"lat": 47.61, "lon": -122.33},
			"isHomeGroup": true,
		})
		if err != nil {
			t.Fatalf("add meeting: %v", err)
		}

		got := a.GetByID(ctx, "meetings", added["id"].(string))
		if got == nil {
			t.Fatal("expected meeting, got nil")
		}
		coords, ok := got["coordinates"].(map[string]any)
		if !ok {
			t.Fatalf("coordinates decoded to %T, want map", got["coordinates"])
		}
		if coords["lat"] != 47.61 || coords["lon"] != -122.33 {
			t.Errorf("coordinates = %v", coords)
		}
		sched, ok := got["schedule"].([]any)
		if !ok || len(sched) != 1 {
			t.Fatalf("schedule = %v", got["schedule"])
		}
		if got["isHomeGroup"] != true {
			t.Errorf("isHomeGroup = %v, want true", got["isHomeGroup"])
		}
	})
}

func TestGetAllIdempotent(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		for _, typ := range []string{"prayer", "meeting", "reading"} {
			if _, err := a.Add(ctx, "activities", Record{"type": typ, "date": "2025-06-10"}); err != nil {
				t.Fatalf("add: %v", err)
			}
		}

		first := a.GetAll(ctx, "activities")
		second := a.GetAll(ctx, "activities")
		if len(first) != 3 || len(second) != 3 {
			t.Fatalf("got %d then %d records, want 3", len(first), len(second))
		}
		if !reflect.DeepEqual(first, second) {
			t.Error("two reads with no intervening writes differ")
		}
	})
}

func TestUpdateMergesPartialRecord(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		added, err := a.Add(ctx, "activities", Record{
			"type":     "meeting",
			"duration": 60,
			"date":     "2025-06-10",
			"notes":    "original notes",
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		id := added["id"].(string)
		createdAt := added["createdAt"]

		updated, err := a.Update(ctx, "activities", id, Record{"notes": "edited"})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated == nil {
			t.Fatal("expected updated record")
		}
		if updated["notes"] != "edited" {
			t.Errorf("notes = %v, want edited", updated["notes"])
		}
		if updated["type"] != "meeting" || updated["duration"] != int64(60) {
			t.Errorf("partial update dropped fields: %v", updated)
		}
		if updated["createdAt"] != createdAt {
			t.Errorf("createdAt changed on update: %v -> %v", createdAt, updated["createdAt"])
		}

		got := a.GetByID(ctx, "activities", id)
		if got["notes"] != "edited" || got["type"] != "meeting" {
			t.Errorf("persisted record = %v", got)
		}
	})
}

func TestUpdateMissingRecord(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		got, err := a.Update(context.Background(), "activities", "activity_missing", Record{"notes": "x"})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for missing record, got %v", got)
		}
	})
}

func TestRemoveSemantics(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		if a.Remove(ctx, "meetings", "meeting_missing") {
			t.Error("remove of missing id should return false")
		}

		added, err := a.Add(ctx, "meetings", Record{"name": "Noon Group"})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		id := added["id"].(string)

		if !a.Remove(ctx, "meetings", id) {
			t.Error("remove of existing id should return true")
		}
		if got := a.GetByID(ctx, "meetings", id); got != nil {
			t.Errorf("expected nil after remove, got %v", got)
		}
	})
}

func TestQueryPredicate(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		a.Add(ctx, "activities", Record{"type": "meeting", "date": "2025-06-01"})
		a.Add(ctx, "activities", Record{"type": "prayer", "date": "2025-06-02"})
		a.Add(ctx, "activities", Record{"type": "meeting", "date": "2025-06-03"})

		meetings := a.Query(ctx, "activities", func(rec Record) bool {
			return rec["type"] == "meeting"
		})
		if len(meetings) != 2 {
			t.Errorf("got %d meetings, want 2", len(meetings))
		}
	})
}

func TestPreferenceUpsert(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		if v := a.GetPreference(ctx, "theme"); v != nil {
			t.Errorf("unset preference = %v, want nil", v)
		}

		if err := a.SetPreference(ctx, "theme", "dark"); err != nil {
			t.Fatalf("set preference: %v", err)
		}
		if v := a.GetPreference(ctx, "theme"); v != "dark" {
			t.Errorf("theme = %v, want dark", v)
		}

		// Upsert path: second set updates in place.
		if err := a.SetPreference(ctx, "theme", "light"); err != nil {
			t.Fatalf("set preference again: %v", err)
		}
		if v := a.GetPreference(ctx, "theme"); v != "light" {
			t.Errorf("theme = %v, want light", v)
		}
		if all := a.GetAll(ctx, "preferences"); len(all) != 1 {
			t.Errorf("got %d preference rows, want 1", len(all))
		}

		// Structured values round-trip too.
		if err := a.SetPreference(ctx, "scoreTimeframe", 90); err != nil {
			t.Fatalf("set numeric preference: %v", err)
		}
		if v := a.GetPreference(ctx, "scoreTimeframe"); v != float64(90) {
			t.Errorf("scoreTimeframe = %v (%T), want 90", v, v)
		}
	})
}

func TestUnknownCollection(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		if _, err := a.Add(ctx, "journals", Record{"x": 1}); err == nil {
			t.Error("add to unknown collection should fail")
		}
		if _, err := a.Update(ctx, "journals", "id", Record{"x": 1}); err == nil {
			t.Error("update of unknown collection should fail")
		}
		if got := a.GetAll(ctx, "journals"); len(got) != 0 {
			t.Errorf("get all on unknown collection = %v, want empty", got)
		}
		if a.Remove(ctx, "journals", "id") {
			t.Error("remove on unknown collection should return false")
		}
	})
}

func TestAddKeepsProvidedID(t *testing.T) {
	forEachEngine(t, func(t *testing.T, a *Adapter) {
		ctx := context.Background()

		added, err := a.Add(ctx, "activities", Record{
			"id":        "activity_imported_1",
			"type":      "prayer",
			"date":      "2024-01-01",
			"createdAt": "2024-01-01T08:00:00Z",
			"updatedAt": "2024-02-01T09:30:00Z",
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if added["id"] != "activity_imported_1" {
			t.Errorf("id = %v, want provided id kept", added["id"])
		}
		if added["createdAt"] != "2024-01-01T08:00:00Z" {
			t.Errorf("createdAt = %v, want provided timestamp kept", added["createdAt"])
		}
		if added["updatedAt"] != "2024-02-01T09:30:00Z" {
			t.Errorf("updatedAt = %v, want provided timestamp kept", added["updatedAt"])
		}

		// Without a provided updatedAt the insert stamp applies.
		stamped, err := a.Add(ctx, "activities", Record{"type": "meeting", "date": "2024-01-02"})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if ts, _ := stamped["updatedAt"].(string); ts == "" {
			t.Error("updatedAt not stamped when absent")
		}
	})
}

package sobriety

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestDays(t *testing.T) {
	tests := []struct {
		name string
		date string
		want int
	}{
		{"one year ago", "2024-06-15", 365},
		{"yesterday", "2025-06-14", 1},
		{"today", "2025-06-15", 0},
		{"datetime form", "2024-06-15T08:30:00Z", 365},
		{"future date", "2026-01-01", 0},
		{"unparseable", "soon", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Days(tt.date, testNow); got != tt.want {
				t.Errorf("Days(%q) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

func TestDaysIgnoresTimeOfDay(t *testing.T) {
	// Late-evening start vs early-morning "now" still counts whole
	// calendar days.
	lateNow := time.Date(2025, 6, 15, 0, 30, 0, 0, time.UTC)
	if got := Days("2025-06-14", lateNow); got != 1 {
		t.Errorf("Days = %d, want 1", got)
	}
}

func TestYears(t *testing.T) {
	if got := Years("2020-06-15", 2, testNow); got != 5.0 {
		t.Errorf("Years = %v, want 5.0", got)
	}
	// 365 days is just under one mean year.
	if got := Years("2024-06-15", 2, testNow); got != 1.0 {
		t.Errorf("Years = %v, want 1.0", got)
	}
	if got := Years("2024-12-15", 1, testNow); got != 0.5 {
		t.Errorf("Years = %v, want 0.5", got)
	}
}

// Package sobriety computes elapsed sober time from the user's sobriety
// date. All functions take an explicit clock so callers and tests can pin
// "now".
package sobriety

import (
	"math"
	"time"

	"github.com/mhollis/serenity/internal/model"
)

const hoursPerDay = 24

// Days returns the number of whole calendar days between the sobriety date
// and now, comparing UTC-truncated dates. Future dates yield 0.
func Days(sobrietyDate string, now time.Time) int {
	start := model.ParseDate(sobrietyDate)
	if start.IsZero() {
		return 0
	}
	days := int(truncateUTC(now).Sub(truncateUTC(start)).Hours() / hoursPerDay)
	if days < 0 {
		return 0
	}
	return days
}

// Years returns sober time in years rounded to the given number of decimal
// places, using the 365.25-day mean year.
func Years(sobrietyDate string, decimalPlaces int, now time.Time) float64 {
	days := Days(sobrietyDate, now)
	years := float64(days) / 365.25
	if decimalPlaces < 0 {
		decimalPlaces = 0
	}
	pow := math.Pow(10, float64(decimalPlaces))
	return math.Round(years*pow) / pow
}

func truncateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

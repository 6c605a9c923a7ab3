// Package fitness reduces a journal of recovery activities to the 0-100
// "spiritual fitness" score shown on the dashboard. The calculation is pure:
// callers supply the activity list, the lookback window, and the clock.
package fitness

import (
	"math"
	"time"

	"github.com/mhollis/serenity/internal/model"
)

// DefaultTimeframe is the lookback window in days when neither an explicit
// argument nor a stored preference supplies one.
const DefaultTimeframe = 30

// FloorScore is returned whenever no activity falls inside the window.
const FloorScore = 20

// Weights assigns the per-type point value of one logged activity.
// Lowercase aliases cover spellings older app versions wrote.
var Weights = map[string]int{
	model.ActivityMeeting:      10,
	model.ActivityStepWork:     10,
	"stepwork":                 10,
	model.ActivityService:      9,
	model.ActivityPrayer:       8,
	model.ActivityMeditation:   8,
	model.ActivityReading:      6,
	model.ActivityLiterature:   6,
	model.ActivitySponsorCall:  5,
	model.ActivityAAMemberCall: 5,
	"aamembercall":             5,
	model.ActivitySponseeCall:  4,
}

// legacyUnknownWeight is what the retired fixed-window scorer granted an
// unrecognized activity type. The canonical path grants 0. The divergence is
// historical drift kept visible rather than silently reconciled; see
// LegacyScore.
const legacyUnknownWeight = 2

// bracket holds the scoring constants for one window-length band. Longer
// windows earn less per activity, so engagement spread thin over a long
// window scores lower than the same engagement packed into a short one.
type bracket struct {
	basePoints     float64
	pointsDivisor  float64
	activityCap    float64
	coverageMult   float64
	consistencyCap float64
}

func bracketFor(timeframeDays int) bracket {
	switch {
	case timeframeDays <= 30:
		return bracket{basePoints: 20, pointsDivisor: 3, activityCap: 40, coverageMult: 0.30, consistencyCap: 30}
	case timeframeDays <= 90:
		return bracket{basePoints: 15, pointsDivisor: 4, activityCap: 35, coverageMult: 0.25, consistencyCap: 25}
	case timeframeDays <= 180:
		return bracket{basePoints: 10, pointsDivisor: 5, activityCap: 32, coverageMult: 0.20, consistencyCap: 22}
	default:
		return bracket{basePoints: 5, pointsDivisor: 6, activityCap: 30, coverageMult: 0.15, consistencyCap: 20}
	}
}

// inWindow filters activities to those dated within the trailing window.
func inWindow(activities []model.Activity, timeframeDays int, now time.Time) []model.Activity {
	cutoff := now.Add(-time.Duration(timeframeDays) * 24 * time.Hour)
	var out []model.Activity
	for _, a := range activities {
		d := a.When()
		if d.IsZero() {
			continue
		}
		if d.Before(cutoff) || d.After(now) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Calculate computes the canonical score for the given lookback window.
// Unrecognized activity types contribute no points but still occupy a
// journal entry; they never count toward variety either.
func Calculate(activities []model.Activity, timeframeDays int, now time.Time) int {
	if timeframeDays <= 0 {
		timeframeDays = DefaultTimeframe
	}

	recent := inWindow(activities, timeframeDays, now)
	if len(recent) == 0 {
		return FloorScore
	}

	totalPoints := 0
	days := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, a := range recent {
		if w, ok := Weights[a.Type]; ok {
			totalPoints += w
			types[a.Type] = struct{}{}
		}
		days[a.When().UTC().Format("2006-01-02")] = struct{}{}
	}

	b := bracketFor(timeframeDays)

	activityPoints := math.Min(b.activityCap, float64(totalPoints)/b.pointsDivisor)
	coveragePercent := float64(len(days)) / float64(timeframeDays) * 100
	consistencyPoints := math.Min(b.consistencyCap, coveragePercent*b.coverageMult)
	varietyBonus := math.Min(10, float64(len(types))*2)

	score := b.basePoints + activityPoints + consistencyPoints + varietyBonus
	return int(math.Round(math.Min(100, score)))
}

// LegacyScore reproduces the retired fixed-30-day scorer for comparison with
// cached scores imported from old installs. It differs from Calculate only
// in its fixed window and in granting unrecognized types a flat weight of 2.
func LegacyScore(activities []model.Activity, now time.Time) int {
	recent := inWindow(activities, DefaultTimeframe, now)
	if len(recent) == 0 {
		return FloorScore
	}

	totalPoints := 0
	days := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, a := range recent {
		if w, ok := Weights[a.Type]; ok {
			totalPoints += w
			types[a.Type] = struct{}{}
		} else {
			totalPoints += legacyUnknownWeight
		}
		days[a.When().UTC().Format("2006-01-02")] = struct{}{}
	}

	b := bracketFor(DefaultTimeframe)

	activityPoints := math.Min(b.activityCap, float64(totalPoints)/b.pointsDivisor)
	coveragePercent := float64(len(days)) / float64(DefaultTimeframe) * 100
	consistencyPoints := math.Min(b.consistencyCap, coveragePercent*b.coverageMult)
	varietyBonus := math.Min(10, float64(len(types))*2)

	score := b.basePoints + activityPoints + consistencyPoints + varietyBonus
	return int(math.Round(math.Min(100, score)))
}

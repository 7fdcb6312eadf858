package progress

import (
	"time"
)

const dateKeyLayout = "2006-01-02"

// civilDate returns the calendar date of t in loc as midnight UTC,
// so day differences are exact whatever the zone's DST rules are
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b in loc; negative when b is earlier
func daysBetween(a, b time.Time, loc *time.Location) int {
	return int(civilDate(b, loc).Sub(civilDate(a, loc)) / (24 * time.Hour))
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// CalculateStreak counts consecutive study days ending today or yesterday.
// Dates are compared as calendar days in loc; several dates on one day count once.
// A date after today means the history is not anchored at today, and the streak is 0.
func CalculateStreak(dates []time.Time, today time.Time, loc *time.Location) int {
	loc = locationOrUTC(loc)
	check := civilDate(today, loc)

	studied := make(map[string]bool, len(dates))
	for _, d := range dates {
		day := civilDate(d, loc)
		if day.After(check) {
			return 0
		}
		studied[day.Format(dateKeyLayout)] = true
	}

	streak := 0

	// allow starting from today or yesterday
	if !studied[check.Format(dateKeyLayout)] {
		check = check.AddDate(0, 0, -1)
		if !studied[check.Format(dateKeyLayout)] {
			return 0
		}
	}

	for studied[check.Format(dateKeyLayout)] {
		streak++
		check = check.AddDate(0, 0, -1)
	}

	return streak
}

// CurrentStreak returns the streak a learner still holds at now.
// A streak whose last study day is before yesterday has lapsed and reads as 0.
func CurrentStreak(streakDays int, lastStudyDate *time.Time, now time.Time, loc *time.Location) int {
	if lastStudyDate == nil {
		return 0
	}
	if daysBetween(*lastStudyDate, now, locationOrUTC(loc)) > 1 {
		return 0
	}
	return streakDays
}

package extract

import (
	"strings"
	"time"
)

// Range tokens produced by TimeRange.  Weekday and month queries yield the
// title-cased name ("Monday", "January") instead of one of these constants.
const (
	RangeToday    = "today"
	RangeTomorrow = "tomorrow"
	RangeThisWeek = "this week"
	RangeNextWeek = "next week"
	RangeUpcoming = "upcoming"
)

var weekdayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// TimeRange maps literal temporal phrases in the message to a closed set of
// range tokens.  Absence of any phrase defaults to RangeUpcoming (the next 30
// days from now).
func TimeRange(text string) string {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, RangeToday):
		return RangeToday
	case strings.Contains(lower, RangeTomorrow):
		return RangeTomorrow
	case strings.Contains(lower, RangeThisWeek):
		return RangeThisWeek
	case strings.Contains(lower, RangeNextWeek):
		return RangeNextWeek
	}

	for _, month := range monthNames {
		if strings.Contains(lower, month) {
			return TitleCase(month)
		}
	}
	for _, day := range weekdayNames {
		if strings.Contains(lower, day) {
			return TitleCase(day)
		}
	}

	return RangeUpcoming
}

// RangeBounds converts a range token into concrete [min, max) query bounds
// relative to now.  Unknown tokens (including month names, which have no
// bounded window of their own) fall back to the 30-day upcoming horizon.
func RangeBounds(token string, now time.Time) (time.Time, time.Time) {
	startOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	endOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	}
	// Monday-based start of week.
	startOfWeek := func(t time.Time) time.Time {
		offset := (int(t.Weekday()) + 6) % 7
		return startOfDay(t.AddDate(0, 0, -offset))
	}

	switch token {
	case RangeToday:
		return startOfDay(now), endOfDay(now)
	case RangeTomorrow:
		tomorrow := now.AddDate(0, 0, 1)
		return startOfDay(tomorrow), endOfDay(tomorrow)
	case RangeThisWeek:
		start := startOfWeek(now)
		return start, endOfDay(start.AddDate(0, 0, 6))
	case RangeNextWeek:
		start := startOfWeek(now).AddDate(0, 0, 7)
		return start, endOfDay(start.AddDate(0, 0, 6))
	}

	// Specific weekday: the next occurrence of that day.
	for i, day := range weekdayNames {
		if token != TitleCase(day) {
			continue
		}
		// weekdayNames is Monday-based; time.Weekday is Sunday-based.
		target := (i + 1) % 7
		ahead := (target - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		d := now.AddDate(0, 0, ahead)
		return startOfDay(d), endOfDay(d)
	}

	// Upcoming: next 30 days.
	return now, now.AddDate(0, 0, 30)
}

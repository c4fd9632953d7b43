package domain

import "time"

// DateString returns date in YYYY-MM-DD format
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// DisplayDate returns a user-friendly date relative to now
func DisplayDate(t, now time.Time) string {
	if sameDay(t, now) {
		return "Today"
	}

	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}

	return t.Format("2 Jan 2006")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

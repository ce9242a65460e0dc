package planning

import "time"

// IsBusinessDay reports whether t falls on a weekday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDayWindow builds the window of n consecutive business days
// starting at start. The window is truncated as soon as a non-business day
// is encountered; a truncated window shorter than n is rejected (ok=false).
func BusinessDayWindow(start time.Time, n int) ([]time.Time, bool) {
	if n < 1 {
		return nil, false
	}

	window := make([]time.Time, 0, n)
	day := DateOf(start)
	for i := 0; i < n; i++ {
		if !IsBusinessDay(day) {
			return window, false
		}
		window = append(window, day)
		day = day.AddDate(0, 0, 1)
	}

	return window, true
}

// MonthDays lists every day of the given month in loc.
func MonthDays(year int, month time.Month, loc *time.Location) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)

	var days []time.Time
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

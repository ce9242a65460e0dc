package planning

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ToUTC combines a calendar date with an "HH:MM" wall-clock time read in
// loc and returns the absolute UTC instant. Stored event times are UTC;
// business rules are evaluated in local time, so every comparison against
// the store must go through here.
func ToUTC(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}

	local := time.Date(
		date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0,
		loc,
	)

	return local.UTC(), nil
}

// ToLocal converts a stored UTC instant back to local time for display and
// day-of-week checks.
func ToLocal(instant time.Time, loc *time.Location) time.Time {
	return instant.In(loc)
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// ParseDate parses a "2006-01-02" date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

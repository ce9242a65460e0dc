package planning

import (
	"sort"
	"time"

	"github.com/vpierre44/formation-api/internal/domain"
)

// Interval is a half-open time interval [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect:
// a.Start < b.End && b.Start < a.End. Back-to-back intervals (one ending
// exactly when the other starts) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// HasConflict reports whether the candidate interval overlaps any busy
// interval.
func HasConflict(busy []Interval, candStart, candEnd time.Time) bool {
	cand := Interval{Start: candStart, End: candEnd}
	for _, b := range busy {
		if Overlaps(cand, b) {
			return true
		}
	}
	return false
}

// SlotConflicts converts a candidate slot on date to UTC via loc and tests
// it against the busy intervals.
func SlotConflicts(busy []Interval, date time.Time, startHM, endHM string, loc *time.Location) (bool, error) {
	start, err := ToUTC(date, startHM, loc)
	if err != nil {
		return false, err
	}
	end, err := ToUTC(date, endHM, loc)
	if err != nil {
		return false, err
	}
	return HasConflict(busy, start, end), nil
}

// FullDayCoverage reports whether slots, sorted by start time, form an
// unbroken chain from requiredStart to requiredEnd: the first slot starts
// at requiredStart, each slot ends exactly where the next begins, and the
// last slot ends at requiredEnd.
func FullDayCoverage(slots []domain.Slot, requiredStart, requiredEnd string) bool {
	if len(slots) == 0 {
		return false
	}

	sorted := make([]domain.Slot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	if sorted[0].StartTime != requiredStart {
		return false
	}
	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i].EndTime != sorted[i+1].StartTime {
			return false
		}
	}

	return sorted[len(sorted)-1].EndTime == requiredEnd
}

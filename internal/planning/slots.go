package planning

import (
	"fmt"

	"github.com/vpierre44/formation-api/internal/domain"
)

const (
	// Business hours. Half-hour slots run 09:00-17:30, whole-day session
	// slots run 09:00-17:00.
	DayStart       = "09:00"
	DayEnd         = "17:00"
	LastSlotEnd    = "17:30"
	SlotMinutes    = 30
	dailySlotCount = 17
)

// DailySlots returns the fixed catalogue of half-hour slots for a single
// day: 16 slots from 09:00 to 17:00 plus the trailing 17:00-17:30 slot.
func DailySlots() []domain.Slot {
	slots := make([]domain.Slot, 0, dailySlotCount)

	hour, minute := 9, 0
	for i := 0; i < dailySlotCount; i++ {
		start := fmt.Sprintf("%02d:%02d", hour, minute)

		minute += SlotMinutes
		if minute >= 60 {
			minute -= 60
			hour++
		}
		end := fmt.Sprintf("%02d:%02d", hour, minute)

		slots = append(slots, domain.Slot{
			StartTime:    start,
			EndTime:      end,
			Display:      start + " - " + end,
			DurationDays: 1,
		})
	}

	return slots
}

// SessionSlots returns the candidate slots for a session of the given
// duration in days. Multi-day sessions are booked as whole-day blocks, so
// there is exactly one slot, 09:00-17:00, tagged with the duration.
func SessionSlots(durationDays int) []domain.Slot {
	if durationDays < 1 {
		return []domain.Slot{}
	}

	display := DayStart + " - " + DayEnd
	if durationDays > 1 {
		display = fmt.Sprintf("%s (%d jours)", display, durationDays)
	}

	return []domain.Slot{
		{
			StartTime:    DayStart,
			EndTime:      DayEnd,
			Display:      display,
			DurationDays: durationDays,
		},
	}
}

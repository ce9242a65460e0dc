package domain

// Slot is an ephemeral candidate time window, never persisted.
// StartTime/EndTime are local wall-clock times in "HH:MM" form.
// When resolved against a date it carries the formateurs free for it.
type Slot struct {
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	Display      string      `json:"display"`
	DurationDays int         `json:"duration_days"`
	Formateurs   []Formateur `json:"formateurs,omitempty"`
	Count        int         `json:"count"`
}

// DateRange is a window of consecutive business days, expressed as
// "2006-01-02" dates.
type DateRange struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Dates []string `json:"dates"`
}

// AvailabilityIndex is the derived month-wide availability summary for one
// (logiciel, year, month, duration, formateur-filter) key. It is always
// replaced wholesale, never patched.
type AvailabilityIndex struct {
	AvailableDays       []string          `json:"available_days"`
	AvailableRanges     []DateRange       `json:"available_ranges"`
	AvailableFormateurs []Formateur       `json:"available_formateurs"`
	SlotsByDate         map[string][]Slot `json:"slots_by_date"`
	Fallback            bool              `json:"fallback"`
	Err                 string            `json:"error,omitempty"`
}

// EmptyAvailabilityIndex is what availability queries degrade to on failure
// or when no trainer qualifies. "No slots" is the canonical failure signal.
func EmptyAvailabilityIndex(errMsg string) AvailabilityIndex {
	return AvailabilityIndex{
		AvailableDays:       []string{},
		AvailableRanges:     []DateRange{},
		AvailableFormateurs: []Formateur{},
		SlotsByDate:         map[string][]Slot{},
		Err:                 errMsg,
	}
}

// BookingResult reports a successful booking: the formateur the session was
// assigned to and the ids of the events created.
type BookingResult struct {
	FormateurID uint   `json:"formateur_id"`
	EventIDs    []uint `json:"event_ids"`
	Fallback    bool   `json:"fallback"`
}

package domain

import "time"

type EventKind string

const (
	EventKindAppointment EventKind = "appointment"
	EventKindSession     EventKind = "training_session"
)

type EventStatus string

const (
	EventStatusPlanned   EventStatus = "planned"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event is one scheduled occurrence: a qualification rendez-vous or one day
// of a multi-day training session. Start and End are UTC instants.
type Event struct {
	ID          uint        `json:"id"`
	Titre       string      `json:"titre"`
	Description string      `json:"description,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	FormateurID uint        `json:"formateur_id"`
	ProjetID    uint        `json:"projet_id,omitempty"`
	TaskID      uint        `json:"task_id,omitempty"`
	Kind        EventKind   `json:"kind"`
	Status      EventStatus `json:"status"`
	Lieu        string      `json:"lieu,omitempty"`
	Stagiaires  []uint      `json:"stagiaires"`
}

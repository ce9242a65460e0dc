package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// BookSessionRequest asks for a session starting on a date for a number of
// consecutive business days. The free formateur is resolved server side.
type BookSessionRequest struct {
	LogicielID    uint   `json:"logiciel_id"`
	ProjetID      uint   `json:"projet_id"`
	SessionNumber int    `json:"session_number"`
	StartDate     string `json:"start_date"`
	Duration      int    `json:"duration"`
}

func (req *BookSessionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.LogicielID, validation.Required),
		validation.Field(&req.ProjetID, validation.Required),
		validation.Field(&req.SessionNumber, validation.Required, validation.Min(1)),
		validation.Field(&req.StartDate, validation.Required, validation.Date(dateLayout)),
		validation.Field(&req.Duration, validation.Required, validation.Min(1)),
	)
}

// BookAppointmentRequest asks for a half-hour qualification rendez-vous on a
// precise creneau of one day.
type BookAppointmentRequest struct {
	LogicielID uint   `json:"logiciel_id"`
	ProjetID   uint   `json:"projet_id"`
	TaskID     uint   `json:"task_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func (req *BookAppointmentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.LogicielID, validation.Required),
		validation.Field(&req.ProjetID, validation.Required),
		validation.Field(&req.TaskID, validation.Required),
		validation.Field(&req.Date, validation.Required, validation.Date(dateLayout)),
		validation.Field(&req.StartTime, validation.Required, validation.Date(timeLayout)),
		validation.Field(&req.EndTime, validation.Required, validation.Date(timeLayout)),
	)
}

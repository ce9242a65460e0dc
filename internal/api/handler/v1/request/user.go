package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// AddCompetenceRequest tags a user as mastering a logiciel.
type AddCompetenceRequest struct {
	LogicielID uint `json:"logiciel_id"`
	Niveau     int  `json:"niveau"`
}

func (req *AddCompetenceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.LogicielID, validation.Required),
		validation.Field(&req.Niveau, validation.Required, validation.Min(1), validation.Max(5)),
	)
}

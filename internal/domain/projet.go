package domain

import "time"

// Projet is an external aggregate. The planning core only reads and writes
// its stagiaire roster, lieu and periode fields.
type Projet struct {
	ID         uint      `json:"id"`
	Nom        string    `json:"nom"`
	LogicielID uint      `json:"logiciel_id"`
	Lieu       string    `json:"lieu,omitempty"`
	Periode    string    `json:"periode,omitempty"`
	Stagiaires []uint    `json:"stagiaires"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

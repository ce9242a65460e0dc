package domain

import "time"

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Prenom    string    `json:"prenom"`
	Nom       string    `json:"nom"`
	Avatar    string    `json:"avatar,omitempty"`
	Fonction  string    `json:"fonction"` // "formateur", "stagiaire", "admin", or free text
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Competence records that a user masters a logiciel at a given level.
type Competence struct {
	ID         uint `json:"id"`
	UserID     uint `json:"user_id"`
	LogicielID uint `json:"logiciel_id"`
	Niveau     int  `json:"niveau"`
}

// Task is the external task-tracker entity a qualification rendez-vous is
// linked to. The core only patches it best-effort after booking.
type Task struct {
	ID          uint   `json:"id"`
	ProjetID    uint   `json:"projet_id"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	AssignedTo  uint   `json:"assigned_to,omitempty"`
}

package domain

// Formateur is a read-only projection of a user holding a competence for a
// logiciel. The planning core never mutates it.
type Formateur struct {
	ID       uint   `json:"id"`
	Prenom   string `json:"prenom"`
	Nom      string `json:"nom"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Fonction string `json:"fonction"`
	Niveau   int    `json:"niveau"`
}

// TrainerPool is the set of users eligible to deliver a logiciel.
// Fallback is true when nobody is tagged "formateur" and the pool was
// widened to every competent user instead.
type TrainerPool struct {
	Formateurs []Formateur `json:"formateurs"`
	Fallback   bool        `json:"fallback"`
}

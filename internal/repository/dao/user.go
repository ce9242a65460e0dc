package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	Prenom   string `gorm:"not null"`
	Nom      string `gorm:"not null"`
	Avatar   string
	Fonction string `gorm:"not null;index"` // "formateur", "stagiaire", "admin", or free text

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Competence links a user to a logiciel they master.
type Competence struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"not null;index:idx_competences_user_logiciel,unique"`
	LogicielID uint `gorm:"not null;index:idx_competences_user_logiciel,unique;index"`
	Niveau     int  `gorm:"not null"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// CompetentUser is the flat row shape of the qualification query: one row
// per (user, competence) for a logiciel.
type CompetentUser struct {
	UserID   uint
	Prenom   string
	Nom      string
	Email    string
	Avatar   string
	Fonction string
	Niveau   int
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_users_email"`) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) InsertCompetence(ctx context.Context, competence Competence) (Competence, error) {
	result := d.db.WithContext(ctx).Create(&competence)
	if result.Error != nil {
		return Competence{}, result.Error
	}
	return competence, nil
}

// FindCompetentUsers returns every user holding a competence for the
// logiciel, regardless of fonction. The service layer decides who counts
// as a formateur.
func (d *UserDAO) FindCompetentUsers(ctx context.Context, logicielID uint) ([]CompetentUser, error) {
	var rows []CompetentUser

	result := d.db.WithContext(ctx).
		Table("competences").
		Select("users.id AS user_id, users.prenom, users.nom, users.email, users.avatar, users.fonction, competences.niveau").
		Joins("JOIN users ON users.id = competences.user_id").
		Where("competences.logiciel_id = ?", logicielID).
		Order("users.id").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	return rows, nil
}

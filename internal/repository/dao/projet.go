package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrProjetNotFound = errors.New("projet not found")

type Projet struct {
	ID uint `gorm:"primaryKey"`

	Nom        string `gorm:"not null"`
	LogicielID uint   `gorm:"not null;index"`
	Lieu       string
	Periode    string

	Stagiaires datatypes.JSONSlice[uint] `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ProjetDAO struct {
	db *gorm.DB
}

func NewProjetDAO(db *gorm.DB) *ProjetDAO {
	return &ProjetDAO{
		db: db,
	}
}

func (d *ProjetDAO) Insert(ctx context.Context, projet Projet) (Projet, error) {
	result := d.db.WithContext(ctx).Create(&projet)
	if result.Error != nil {
		return Projet{}, result.Error
	}
	return projet, nil
}

func (d *ProjetDAO) FindByID(ctx context.Context, id uint) (Projet, error) {
	var projet Projet

	result := d.db.WithContext(ctx).First(&projet, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Projet{}, ErrProjetNotFound
		}
		return Projet{}, result.Error
	}

	return projet, nil
}

// Update applies a partial column patch.
func (d *ProjetDAO) Update(ctx context.Context, id uint, patch map[string]interface{}) error {
	result := d.db.WithContext(ctx).
		Model(&Projet{}).
		Where("id = ?", id).
		Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjetNotFound
	}
	return nil
}

package models

import (
	"time"

	"freight-app/controllers/idgen"

	"gorm.io/gorm"
)

type Destination struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"unique;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Destination) BeforeCreate(tx *gorm.DB) (err error) {
	d.ID = idgen.GenerateID()
	return
}

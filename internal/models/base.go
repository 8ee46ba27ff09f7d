package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel mirrors gorm.Model with wire-friendly json tags.
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

package models

import (
	"time"
)

// MaintenanceWindow suppresses incident creation and alerting for its monitor
// while active. Check records keep being written for audit; aggregates skip
// records falling inside the window.
type MaintenanceWindow struct {
	BaseModel

	MonitorID   uint      `gorm:"not null;index" json:"monitor"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	IsActive    bool      `json:"is_active"`

	Monitor Monitor `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// Covers reports whether t falls inside the window.
func (w *MaintenanceWindow) Covers(t time.Time) bool {
	return w.IsActive && !t.Before(w.StartTime) && !t.After(w.EndTime)
}

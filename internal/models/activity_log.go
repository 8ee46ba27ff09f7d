package models

import (
	"time"
)

// ActivityLog is an append-only entry on an incident timeline.
type ActivityLog struct {
	BaseModel

	IncidentID uint      `gorm:"not null;index" json:"incident"`
	Message    string    `gorm:"not null" json:"message"`
	LogType    string    `gorm:"not null;default:INFO" json:"log_type"` // INFO, SUCCESS, ERROR
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`

	Incident Incident `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

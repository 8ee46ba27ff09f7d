package models

import (
	"time"
)

type Incident struct {
	BaseModel

	MonitorID  uint       `gorm:"not null;index" json:"monitor"`
	Status     string     `gorm:"not null;default:OPEN;index" json:"status"`
	RootCause  string     `json:"root_cause"`
	Comments   string     `json:"comments"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	ResolvedAt *time.Time `json:"resolved_at"`

	// Relationships
	Monitor    Monitor       `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Activities []ActivityLog `gorm:"foreignKey:IncidentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// Duration is the incident length so far, live until resolution.
func (i *Incident) Duration() time.Duration {
	if i.ResolvedAt != nil {
		return i.ResolvedAt.Sub(i.StartedAt)
	}

	return time.Since(i.StartedAt)
}

package models

import (
	"time"
)

// CheckRecord is the immutable outcome of one probe. Append-only per monitor.
type CheckRecord struct {
	BaseModel

	MonitorID    uint       `gorm:"not null;index:idx_monitor_checked" json:"-"`
	StatusCode   *int       `json:"status_code"`
	ResponseTime float64    `gorm:"not null" json:"response_time"` // seconds
	IsUp         bool       `gorm:"not null" json:"is_up"`
	ErrorClass   string     `json:"error_class"`
	ErrorMessage string     `json:"error_message"`
	CheckedAt    time.Time  `gorm:"not null;index:idx_monitor_checked" json:"checked_at"`

	// Server metrics (SSH monitors)
	CPUUsage     *float64 `json:"cpu_usage"`
	RAMUsage     *float64 `json:"ram_usage"`
	DiskUsage    *float64 `json:"disk_usage"`
	SystemUptime string   `json:"system_uptime"`

	Monitor Monitor `gorm:"foreignKey:MonitorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

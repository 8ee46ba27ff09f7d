package models

type AlertContact struct {
	BaseModel

	Name        string `json:"name"`
	ContactType string `gorm:"not null;default:EMAIL" json:"contact_type"` // EMAIL, WEBHOOK, SLACK, DISCORD
	Value       string `gorm:"not null" json:"value"`                      // email address, webhook URL or channel

	Monitors []Monitor `gorm:"many2many:monitor_alert_contacts" json:"-"`
}

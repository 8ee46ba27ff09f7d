package models

type StatusPage struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	Slug         string `gorm:"uniqueIndex;not null" json:"slug"`
	IsPublic     bool   `json:"is_public"`
	CustomDomain string `json:"custom_domain"`

	Monitors []Monitor `gorm:"many2many:status_page_monitors" json:"-"`
}

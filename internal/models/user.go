package models

type User struct {
	BaseModel

	Username     string `gorm:"not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:USER" json:"role"`

	// Granular permissions, ignored for SUPERADMIN
	CanCreate bool `gorm:"default:false" json:"can_create"`
	CanEdit   bool `gorm:"default:false" json:"can_edit"`
	CanDelete bool `gorm:"default:false" json:"can_delete"`
}

// IsSuperAdmin reports whether the user bypasses capability checks.
func (u *User) IsSuperAdmin() bool {
	return u.Role == "SUPERADMIN"
}

// Can reports whether the user holds the given capability.
func (u *User) Can(capability string) bool {
	if u.IsSuperAdmin() {
		return true
	}

	switch capability {
	case "create":
		return u.CanCreate
	case "edit":
		return u.CanEdit
	case "delete":
		return u.CanDelete
	default:
		return false
	}
}

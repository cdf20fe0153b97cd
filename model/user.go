package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a staff account (academy admin or teacher)
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	AcademyID    uint           `gorm:"index;not null" json:"academy_id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'teacher'" json:"role"` // admin, teacher
	Subject      string         `gorm:"type:varchar(50)" json:"subject,omitempty"`      // Main subject for teachers
	Phone        string         `gorm:"type:varchar(20)" json:"phone,omitempty"`

	// Relationships
	Academy Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

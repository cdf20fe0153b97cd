package model

import (
	"time"

	"gorm.io/gorm"
)

// Academy represents a tutoring academy (hakwon)
type Academy struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	OwnerName string         `gorm:"type:varchar(100)" json:"owner_name,omitempty"`
	Address   string         `gorm:"type:varchar(500)" json:"address,omitempty"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone,omitempty"`

	// Relationships
	Teachers []User    `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"teachers,omitempty"`
	Students []Student `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
}

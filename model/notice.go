package model

import (
	"time"

	"gorm.io/gorm"
)

// Notice represents an announcement on the academy's notice board
type Notice struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	AcademyID   uint           `gorm:"index;not null" json:"academy_id"`
	AuthorID    uint           `gorm:"index" json:"author_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Content     string         `gorm:"type:text" json:"content"`
	Pinned      bool           `gorm:"default:false" json:"pinned"`
	PublishedAt time.Time      `json:"published_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`

	// Relationships
	Academy Academy `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Author  User    `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
}

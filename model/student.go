package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Student represents an enrolled student in an academy
type Student struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	AcademyID   uint           `gorm:"index;not null" json:"academy_id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	Grade       string         `gorm:"type:varchar(20)" json:"grade,omitempty"` // e.g., "중3", "고1"
	School      string         `gorm:"type:varchar(100)" json:"school,omitempty"`
	Phone       string         `gorm:"type:varchar(20)" json:"phone,omitempty"`
	ParentPhone string         `gorm:"type:varchar(20)" json:"parent_phone,omitempty"`
	Subjects    datatypes.JSON `gorm:"type:jsonb" json:"subjects,omitempty"` // Enrolled subjects, e.g. ["수학","영어"]
	Active      bool           `gorm:"default:true" json:"active"`

	// Relationships
	Academy     Academy             `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Submissions []StudentAssignment `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// SubjectList decodes the enrolled-subject jsonb column
func (s *Student) SubjectList() []string {
	var subjects []string
	if len(s.Subjects) == 0 {
		return subjects
	}
	_ = json.Unmarshal(s.Subjects, &subjects)
	return subjects
}

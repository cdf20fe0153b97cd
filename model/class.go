package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Class represents a class (분반) run by an academy
type Class struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	AcademyID uint           `gorm:"index;not null" json:"academy_id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Subject   string         `gorm:"type:varchar(50)" json:"subject"`
	TeacherID uint           `gorm:"index" json:"teacher_id"`
	Room      string         `gorm:"type:varchar(50)" json:"room,omitempty"`
	Schedule  datatypes.JSON `gorm:"type:jsonb" json:"schedule,omitempty"` // e.g. [{"day":"mon","start":"16:00","end":"18:00"}]

	// Relationships
	Academy     Academy           `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Teacher     User              `gorm:"foreignKey:TeacherID;constraint:OnDelete:SET NULL" json:"teacher,omitempty"`
	Enrollments []ClassEnrollment `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	Assignments []Assignment      `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
}

// ClassEnrollment links a student to a class
type ClassEnrollment struct {
	ClassID    uint  `gorm:"primaryKey" json:"class_id"`
	StudentID  uint  `gorm:"primaryKey" json:"student_id"`
	EnrolledAt int64 `gorm:"autoCreateTime" json:"enrolled_at"`

	// Relationships
	Class   Class   `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Student Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

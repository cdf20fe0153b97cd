package model

import (
	"time"

	"gorm.io/gorm"
)

// Exam represents a test administered by the academy
type Exam struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	AcademyID uint           `gorm:"index;not null" json:"academy_id"`
	ClassID   *uint          `gorm:"index" json:"class_id,omitempty"` // Nil for academy-wide exams
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Subject   string         `gorm:"type:varchar(50)" json:"subject"`
	ExamDate  time.Time      `json:"exam_date"`
	MaxScore  int            `gorm:"default:100" json:"max_score"`

	// Relationships
	Academy Academy      `gorm:"foreignKey:AcademyID;constraint:OnDelete:CASCADE" json:"-"`
	Results []ExamResult `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
}

// ExamResult represents one student's score on an exam
type ExamResult struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	ExamID    uint           `gorm:"index;not null" json:"exam_id"`
	StudentID uint           `gorm:"index;not null" json:"student_id"`
	Score     int            `gorm:"not null" json:"score"`
	Note      string         `gorm:"type:text" json:"note,omitempty"`

	// Relationships
	Exam    Exam    `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE" json:"-"`
	Student Student `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"student,omitempty"`
}

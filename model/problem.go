package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Difficulty represents the difficulty tier of a problem
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every tier in display order
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// IsValid reports whether d is a known difficulty tier
func (d Difficulty) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Problem represents a problem in the academy's catalog
type Problem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	AcademyID   uint           `gorm:"index;not null" json:"academy_id"`
	Subject     string         `gorm:"type:varchar(50);not null;index" json:"subject"` // e.g., "수학"
	Grade       string         `gorm:"type:varchar(20)" json:"grade,omitempty"`
	Unit        string         `gorm:"type:varchar(100);index" json:"unit"` // Curriculum chapter, e.g., "이차방정식"
	Content     string         `gorm:"type:text;not null" json:"content"`
	Answer      string         `gorm:"type:text;not null" json:"answer"`
	Explanation string         `gorm:"type:text" json:"explanation,omitempty"`
	Difficulty  Difficulty     `gorm:"type:varchar(10);default:'medium'" json:"difficulty"`
	ProblemType string         `gorm:"type:varchar(30)" json:"problem_type,omitempty"` // multiple_choice, short_answer, essay
	Tags        datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`               // Concept labels, e.g. ["인수분해","근의 공식"]
	Source      string         `gorm:"type:varchar(100)" json:"source,omitempty"`      // Textbook, scan, manual
	CreatedBy   uint           `gorm:"index" json:"created_by,omitempty"`
}

// TagList decodes the concept-tag jsonb column
func (p *Problem) TagList() []string {
	var tags []string
	if len(p.Tags) == 0 {
		return tags
	}
	_ = json.Unmarshal(p.Tags, &tags)
	return tags
}

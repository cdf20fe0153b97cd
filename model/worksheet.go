package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorksheetStatus represents the status of worksheet PDF generation
type WorksheetStatus string

const (
	WorksheetPending   WorksheetStatus = "pending"
	WorksheetCompleted WorksheetStatus = "completed"
	WorksheetFailed    WorksheetStatus = "failed"
)

// Worksheet represents a printable problem sheet composed from the catalog
type Worksheet struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
	AcademyID  uint            `gorm:"index;not null" json:"academy_id"`
	CreatedBy  uint            `gorm:"index" json:"created_by"`
	Title      string          `gorm:"type:varchar(255);not null" json:"title"`
	Subject    string          `gorm:"type:varchar(50)" json:"subject"`
	ProblemIDs datatypes.JSON  `gorm:"type:jsonb" json:"problem_ids"`
	WithAnswer bool            `gorm:"default:false" json:"with_answer"` // Include answer key pages
	Status     WorksheetStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	FileURL    string          `gorm:"type:varchar(500)" json:"file_url,omitempty"`
	Error      string          `gorm:"type:text" json:"error,omitempty"`
}

// ProblemIDList decodes the problem-id jsonb column
func (w *Worksheet) ProblemIDList() []uint {
	var ids []uint
	if len(w.ProblemIDs) == 0 {
		return ids
	}
	_ = json.Unmarshal(w.ProblemIDs, &ids)
	return ids
}
